package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrNoSource = errors.New("no feed source available")

// Loader fetches the feed and falls back to the latest cached snapshot and then a local archive
// when the download fails. Cache and archive are optional.
type Loader struct {
	Client *Client
	Cache  *Cache

	ArchivePath  string
	ArchiveEntry string

	Now func() time.Time
}

func (l *Loader) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// Load returns the freshest available document
func (l *Loader) Load(ctx context.Context) (*Document, error) {
	var errs []error

	if l.Client != nil {
		doc, err := l.fetch(ctx)
		if err == nil {
			return doc, nil
		}
		slog.Warn("unable to fetch feed, falling back", "url", l.Client.URL(), "error", err)
		errs = append(errs, err)
	}

	if l.Cache != nil {
		snap, doc, err := l.Cache.Latest(ctx)
		if err == nil {
			slog.Info("using cached feed", "snapshot", snap.ID, "fetched_at", snap.FetchedAt)
			return doc, nil
		}
		errs = append(errs, err)
	}

	if l.ArchivePath != "" {
		raw, err := ReadArchive(l.ArchivePath, l.ArchiveEntry)
		if err == nil {
			doc, err := Parse(raw)
			if err == nil {
				slog.Info("using archived feed", "path", l.ArchivePath)
				return doc, nil
			}
			errs = append(errs, err)
		} else {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil, ErrNoSource
	}
	return nil, fmt.Errorf("%w, %w", ErrNoSource, errors.Join(errs...))
}

func (l *Loader) fetch(ctx context.Context) (*Document, error) {
	raw, err := l.Client.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	if l.Cache != nil {
		if _, err := l.Cache.Store(ctx, doc, l.now(), l.Client.URL()); err != nil {
			slog.Warn("unable to cache feed", "error", err)
		}
	}
	return doc, nil
}
