// SPDX-License-Identifier: MIT

package api

import "net/http"

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>SignalTV</title>
  <style>
    body { font-family: sans-serif; max-width: 40rem; margin: 3rem auto; color: #222; }
    code { background: #f0f0f0; padding: 0.1rem 0.3rem; border-radius: 3px; }
    li { margin: 0.4rem 0; }
  </style>
</head>
<body>
  <h1>SignalTV</h1>
  <p>Channel resolution daemon. Available endpoints:</p>
  <ul>
    <li><a href="/api/channels"><code>GET /api/channels</code></a> &mdash; resolved channel list</li>
    <li><a href="/api/categories"><code>GET /api/categories</code></a> &mdash; channels grouped by category</li>
    <li><a href="/api/status"><code>GET /api/status</code></a> &mdash; source reachability and cache counters</li>
    <li><code>POST /api/refresh</code> &mdash; drop the cache and re-resolve</li>
    <li><a href="/playlist.m3u"><code>GET /playlist.m3u</code></a> &mdash; resolved channels as an M3U playlist</li>
    <li><a href="/healthz"><code>GET /healthz</code></a> &mdash; liveness probe</li>
    <li><a href="/metrics"><code>GET /metrics</code></a> &mdash; Prometheus metrics</li>
  </ul>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}
