// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/signaltv/signaltv/internal/cache"
	"github.com/signaltv/signaltv/internal/fetch"
	"github.com/signaltv/signaltv/internal/m3u"
	"github.com/signaltv/signaltv/internal/match"
)

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Channels(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Str("event", "api.resolve_failed").Msg("channel resolution failed")
		s.writeError(w, http.StatusBadGateway, "resolution_failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// categoriesResponse groups resolved channels by category, then by the
// provider group label within each category.
type categoriesResponse map[match.Category]map[string][]match.ResolvedChannel

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Channels(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Str("event", "api.resolve_failed").Msg("channel resolution failed")
		s.writeError(w, http.StatusBadGateway, "resolution_failed", err.Error())
		return
	}

	grouped := categoriesResponse{}
	for _, ch := range res.Channels {
		if ch.Status != match.StatusOK {
			continue
		}
		byGroup, ok := grouped[ch.Category]
		if !ok {
			byGroup = map[string][]match.ResolvedChannel{}
			grouped[ch.Category] = byGroup
		}
		byGroup[ch.Group] = append(byGroup[ch.Group], ch)
	}
	s.writeJSON(w, http.StatusOK, grouped)
}

type statusResponse struct {
	Version string               `json:"version"`
	Sources []fetch.SourceStatus `json:"sources"`
	Cache   cache.Stats          `json:"cache"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.svc.Probe(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Str("event", "api.probe_failed").Msg("source probe failed")
		s.writeError(w, http.StatusBadGateway, "probe_failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{
		Version: s.version,
		Sources: statuses,
		Cache:   s.svc.CacheStats(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.svc.Invalidate()
	res, err := s.svc.Channels(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Str("event", "api.refresh_failed").Msg("forced refresh failed")
		s.writeError(w, http.StatusBadGateway, "resolution_failed", err.Error())
		return
	}
	s.logger.Info().Str("event", "api.refresh").Int("channels", len(res.Channels)).Msg("forced refresh complete")
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Channels(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Str("event", "api.resolve_failed").Msg("channel resolution failed")
		s.writeError(w, http.StatusBadGateway, "resolution_failed", err.Error())
		return
	}

	items := make([]m3u.Item, 0, len(res.Channels))
	for _, ch := range res.Channels {
		if ch.Status != match.StatusOK || ch.URL == nil {
			continue
		}
		items = append(items, m3u.Item{
			Name:  ch.Name,
			Logo:  ch.Logo,
			Group: ch.Group,
			URL:   *ch.URL,
		})
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Content-Disposition", `attachment; filename="playlist.m3u"`)
	if err := m3u.Write(w, items); err != nil {
		s.logger.Error().Err(err).Str("event", "api.playlist_failed").Msg("failed to write playlist")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}
