// SPDX-License-Identifier: MIT

package m3u

import (
	"bytes"
	"fmt"
	"io"
)

// Item is one channel to render into an M3U document.
type Item struct {
	Name  string
	Logo  string
	Group string
	URL   string
}

// Write renders items as an extended M3U playlist.
func Write(w io.Writer, items []Item) error {
	buf := &bytes.Buffer{}
	buf.WriteString(Signature + "\n")
	for _, it := range items {
		buf.WriteString(fmt.Sprintf(
			`#EXTINF:-1 tvg-logo="%s" group-title="%s",%s`+"\n",
			it.Logo, it.Group, it.Name,
		))
		buf.WriteString(it.URL + "\n")
	}
	_, err := io.Copy(w, buf)
	return err
}
