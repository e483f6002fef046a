package web

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursecal/internal/ics"
	appLog "coursecal/internal/log"
	"coursecal/internal/model"
	"coursecal/internal/source"
	"coursecal/internal/timeline"
)

// dataset is one immutable load of provider data and feed templates.
type dataset struct {
	lessons     []model.EventTemplate
	assessments []model.AssessmentItem
	feeds       []model.EventTemplate
	loadedAt    time.Time
	feedErrors  int
}

type snapshotInfo struct {
	LoadedAt    time.Time `json:"loaded_at"`
	Lessons     int       `json:"lessons"`
	Assessments int       `json:"assessments"`
	FeedEvents  int       `json:"feed_events"`
	FeedErrors  int       `json:"feed_errors"`
}

// Reload reads the provider snapshot and refreshes the personal ICS feeds.
// If the snapshot cannot be read the previous data stays in place.
func (s *Server) Reload(ctx context.Context) error {
	snap, err := source.LoadSnapshot(s.cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	next := &dataset{
		lessons:     snap.Templates(),
		assessments: snap.AssessmentItems(),
		loadedAt:    s.now(),
	}
	next.feeds, next.feedErrors = s.loadFeeds(ctx)

	s.dataMu.Lock()
	s.data = next
	s.dataMu.Unlock()

	appLog.Info("data reloaded",
		"lessons", len(next.lessons),
		"assessments", len(next.assessments),
		"feed_events", len(next.feeds),
		"feed_errors", next.feedErrors,
	)
	return nil
}

func (s *Server) loadFeeds(ctx context.Context) ([]model.EventTemplate, int) {
	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, c := range s.cfg.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		if id == "" {
			id = c.URL
		}
		sources = append(sources, ics.Source{ID: id, Name: c.Name, URL: c.URL})
	}
	if len(sources) == 0 {
		return nil, 0
	}

	results, errs := s.fetcher.FetchAll(ctx, sources)
	if len(errs) > 0 {
		appLog.Error("one or more ICS fetches failed", errors.Join(errs...), "error_count", len(errs))
	}

	var out []model.EventTemplate
	failed := len(errs)
	for _, res := range results {
		tmpls, err := ics.ParseICS(res.Source, res.Body, s.loc)
		if err != nil {
			failed++
			continue
		}
		out = append(out, tmpls...)
	}
	return out, failed
}

func (s *Server) current() *dataset {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.data
}

func (s *Server) snapshotInfo() snapshotInfo {
	d := s.current()
	return snapshotInfo{
		LoadedAt:    d.loadedAt,
		Lessons:     len(d.lessons),
		Assessments: len(d.assessments),
		FeedEvents:  len(d.feeds),
		FeedErrors:  d.feedErrors,
	}
}

// sources assembles the inputs of one composition: provider data, feed
// templates and the personal store as it is right now.
func (s *Server) sources() timeline.Sources {
	d := s.current()
	personal := s.personal.List()
	personal = append(personal, d.feeds...)
	return timeline.Sources{
		Lessons:     d.lessons,
		Assessments: d.assessments,
		Personal:    personal,
	}
}

func (s *Server) options(filters timeline.CategoryConfig, hideCancelled bool) timeline.Options {
	return timeline.Options{
		Filters:                   filters,
		Location:                  s.loc,
		HideCancelled:             hideCancelled,
		MaxOccurrencesPerTemplate: s.cfg.MaxOccurrencesPerTemplate,
	}
}

// parseCategories reads a comma separated category list into a filter
// with exactly those categories enabled.
func parseCategories(v string) (timeline.CategoryConfig, error) {
	var cfg timeline.CategoryConfig
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := model.ParseCategory(part)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		cfg = cfg.With(c, true)
	}
	return cfg, nil
}
