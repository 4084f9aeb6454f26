// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/signaltv/signaltv/internal/log"
	"github.com/signaltv/signaltv/internal/m3u"
	"github.com/signaltv/signaltv/internal/match"
	"github.com/signaltv/signaltv/internal/metrics"
)

// exportPlaylist writes the resolved channels as playlist.m3u into the data
// dir. The write is atomic and fsynced before rename, so consumers polling
// the file never see a torn playlist. Export failures are logged, never
// fatal: the in-memory result is still served.
func (s *Service) exportPlaylist(ctx context.Context, channels []match.ResolvedChannel) {
	logger := log.WithComponentFromContext(ctx, "resolver")
	path := filepath.Join(s.cfg.DataDir, "playlist.m3u")

	items := make([]m3u.Item, 0, len(channels))
	for _, ch := range channels {
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

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		metrics.IncPlaylistExportError()
		logger.Warn().Err(err).Str("event", "export.failed").Str("path", path).Msg("create pending playlist file")
		return
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending playlist file")
		}
	}()

	if err := m3u.Write(pending, items); err != nil {
		metrics.IncPlaylistExportError()
		logger.Warn().Err(err).Str("event", "export.failed").Str("path", path).Msg("write playlist data")
		return
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		metrics.IncPlaylistExportError()
		logger.Warn().Err(err).Str("event", "export.failed").Str("path", path).Msg("replace playlist file")
		return
	}

	logger.Info().
		Str("event", "export.written").
		Str("path", path).
		Int("channels", len(items)).
		Msg("playlist exported")
}
