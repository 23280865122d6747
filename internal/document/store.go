package document

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/fsnotify/fsnotify"

	"schoolclock/internal/ics"
	appLog "schoolclock/internal/log"
	"schoolclock/internal/model"
)

// Holiday is a calendar whose events are merged into the document as
// overrides. Exactly one of Path and URL is set.
type Holiday struct {
	Path string
	URL  string
	// Schedule is the id all-day events select. Empty means "none".
	Schedule string
}

// Options configure a Store.
type Options struct {
	// Path is the document file.
	Path string

	Holidays []Holiday
	// Fetcher downloads URL holidays. Required when any holiday has a URL.
	Fetcher *ics.Fetcher

	// Location is used for holiday dates when the document has no valid
	// timezone. If nil, time.Local is used.
	Location *time.Location

	// Now is the clock. If nil, time.Now is used.
	Now func() time.Time
}

// Store holds the current document. Readers always see a complete
// document; Reload swaps in a new one only once it has loaded successfully.
type Store struct {
	opts Options

	// mu serializes reloads.
	mu  sync.Mutex
	cur atomic.Pointer[model.Document]
}

// NewStore returns an empty store. Call Reload to load the document.
func NewStore(opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Store{opts: opts}
}

// Current returns the last successfully loaded document, or nil before the
// first successful Reload. Callers must not modify it.
func (s *Store) Current() *model.Document {
	return s.cur.Load()
}

// Reload reads the document and its holiday calendars again. On error the
// current document is kept. A holiday calendar that fails is logged and left
// out rather than failing the reload.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	doc, migrated, err := Load(s.opts.Path, now)
	if err != nil {
		return err
	}
	if migrated {
		appLog.Warn("legacy document migrated in memory", "path", s.opts.Path, "last_updated_id", doc.LastUpdatedID)
	}

	loc := s.opts.Location
	if doc.Metadata.Timezone != "" {
		if l, lerr := time.LoadLocation(doc.Metadata.Timezone); lerr == nil {
			loc = l
		}
	}

	for _, h := range s.opts.Holidays {
		over, herr := s.holidays(ctx, h, loc, now)
		if herr != nil {
			appLog.Error("holiday calendar skipped", herr, "path", h.Path, "url", h.URL != "")
			continue
		}
		doc.FullDayOverrides = append(doc.FullDayOverrides, over.FullDay...)
		doc.TimeframeOverrides = append(doc.TimeframeOverrides, over.Timeframe...)
	}

	s.cur.Store(doc)
	appLog.Info("document loaded",
		"path", s.opts.Path,
		"school", doc.Metadata.SchoolName,
		"last_updated_id", doc.LastUpdatedID,
		"full_day_overrides", len(doc.FullDayOverrides),
	)
	return nil
}

// holidayWindow is how far around now holiday recurrences are expanded.
const holidayWindow = 366 * 24 * time.Hour

func (s *Store) holidays(ctx context.Context, h Holiday, loc *time.Location, now time.Time) (ics.Overrides, error) {
	var (
		body []byte
		err  error
		name = h.Path
	)
	switch {
	case h.URL != "":
		if s.opts.Fetcher == nil {
			return ics.Overrides{}, errors.Error("no fetcher for holiday url")
		}
		name = "holiday feed"
		body, err = s.opts.Fetcher.Fetch(ctx, h.URL)
	default:
		body, err = os.ReadFile(h.Path)
	}
	if err != nil {
		return ics.Overrides{}, err
	}

	events, err := ics.Parse(name, body, loc)
	if err != nil {
		return ics.Overrides{}, err
	}
	occs, err := ics.Expand(events, ics.Window{From: now.Add(-holidayWindow), To: now.Add(holidayWindow)})
	if err != nil {
		return ics.Overrides{}, err
	}

	sched := h.Schedule
	if sched == "" {
		sched = model.NoneScheduleID
	}
	return ics.Import(occs, model.RefID(sched), loc), nil
}

// Watch reloads the store whenever the document or a local holiday file
// changes, until ctx is done. Directories are watched rather than files so
// that editors and atomic writers that replace the file are noticed.
func (s *Store) Watch(ctx context.Context) (err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Annotate(err, "creating watcher: %w")
	}
	defer func() { err = errors.WithDeferred(err, w.Close()) }()

	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range s.watchedPaths() {
		abs, aerr := filepath.Abs(p)
		if aerr != nil {
			return aerr
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err = w.Add(d); err != nil {
			return errors.Annotate(err, "watching %s: %w", d)
		}
	}

	// Editors often produce a burst of events for one save.
	const settle = 200 * time.Millisecond
	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(ev.Name)
			if !files[abs] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			appLog.Debug("document change detected", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(settle)
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			appLog.Error("document watcher", werr)
		case <-timer.C:
			if rerr := s.Reload(ctx); rerr != nil {
				appLog.Error("document reload failed", rerr, "path", s.opts.Path)
			}
		}
	}
}

func (s *Store) watchedPaths() []string {
	paths := []string{s.opts.Path}
	for _, h := range s.opts.Holidays {
		if h.Path != "" {
			paths = append(paths, h.Path)
		}
	}
	return paths
}
