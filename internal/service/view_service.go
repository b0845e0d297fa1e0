package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"learnlens/internal/enrich"
	"learnlens/internal/filter"
	"learnlens/internal/logger"
	"learnlens/internal/models"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrInvalidCommand   = errors.New("invalid filter command")
)

// ActivitySource loads a kid's raw activity history.
type ActivitySource interface {
	Activities(kidID int64) ([]models.Activity, error)
}

type viewKey struct {
	sessionID string
	kidID     int64
}

// viewEntry owns one engine. Every read and write of the engine holds mu.
type viewEntry struct {
	mu       sync.Mutex
	engine   *filter.Engine
	lastUsed time.Time
}

// ViewService keeps one filter engine per parent session and kid, so each
// open screen has its own selection over the kid's enriched history.
type ViewService struct {
	source   ActivitySource
	enricher *enrich.Enricher
	cfg      filter.Config
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time

	mu    sync.Mutex
	views map[viewKey]*viewEntry
}

// NewViewService creates a view service. Views idle for longer than ttl
// are dropped by Sweep.
func NewViewService(source ActivitySource, enricher *enrich.Enricher, cfg filter.Config, ttl time.Duration, log *logger.Logger) *ViewService {
	return &ViewService{
		source:   source,
		enricher: enricher,
		cfg:      cfg,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
		views:    make(map[viewKey]*viewEntry),
	}
}

// Config returns the filter profile every view uses
func (s *ViewService) Config() filter.Config {
	return s.cfg
}

// Tables returns the enrichment tables in use
func (s *ViewService) Tables() *enrich.Tables {
	return s.enricher.Tables()
}

// entry returns the view for key, building it from the source on first use.
// The returned entry is locked; callers must unlock it.
func (s *ViewService) entry(key viewKey) (*viewEntry, error) {
	s.mu.Lock()
	e, ok := s.views[key]
	if !ok {
		e = &viewEntry{}
		s.views[key] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	if e.engine == nil {
		raw, err := s.source.Activities(key.kidID)
		if err != nil {
			e.mu.Unlock()
			s.drop(key, e)
			return nil, err
		}
		e.engine = filter.New(raw, filter.WithConfig(s.cfg), filter.WithEnricher(s.enricher))
		s.log.Debug("view opened", "kid_id", key.kidID, "activities", len(raw))
	}
	e.lastUsed = s.now()
	return e, nil
}

func (s *ViewService) drop(key viewKey, e *viewEntry) {
	s.mu.Lock()
	if s.views[key] == e {
		delete(s.views, key)
	}
	s.mu.Unlock()
}

func (s *ViewService) with(sessionID string, kidID int64, fn func(*filter.Engine) error) error {
	e, err := s.entry(viewKey{sessionID: sessionID, kidID: kidID})
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	return fn(e.engine)
}

// View returns the current filtered view
func (s *ViewService) View(sessionID string, kidID int64) (filter.View, error) {
	var v filter.View
	err := s.with(sessionID, kidID, func(engine *filter.Engine) error {
		v = engine.View()
		return nil
	})
	return v, err
}

// Dispatch applies one command and returns the resulting view
func (s *ViewService) Dispatch(sessionID string, kidID int64, cmd filter.Command) (filter.View, error) {
	return s.DispatchAll(sessionID, kidID, []filter.Command{cmd})
}

// DispatchAll applies commands in order. Every command is decoded first,
// so a bad one leaves the view untouched.
func (s *ViewService) DispatchAll(sessionID string, kidID int64, cmds []filter.Command) (filter.View, error) {
	actions, err := filter.Actions(cmds, s.cfg.Location)
	if err != nil {
		return filter.View{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	var v filter.View
	err = s.with(sessionID, kidID, func(engine *filter.Engine) error {
		for _, a := range actions {
			engine.Dispatch(a)
		}
		v = engine.View()
		return nil
	})
	return v, err
}

// Reset clears every filter of the view
func (s *ViewService) Reset(sessionID string, kidID int64) (filter.View, error) {
	var v filter.View
	err := s.with(sessionID, kidID, func(engine *filter.Engine) error {
		engine.Reset()
		v = engine.View()
		return nil
	})
	return v, err
}

// Lookup returns one enriched activity by its key
func (s *ViewService) Lookup(sessionID string, kidID int64, key string) (models.Activity, error) {
	var a models.Activity
	err := s.with(sessionID, kidID, func(engine *filter.Engine) error {
		found, ok := engine.Lookup(key)
		if !ok {
			return ErrActivityNotFound
		}
		a = found
		return nil
	})
	return a, err
}

// Filtered returns the activities currently matching the view
func (s *ViewService) Filtered(sessionID string, kidID int64) ([]models.Activity, filter.State, error) {
	var (
		out   []models.Activity
		state filter.State
	)
	err := s.with(sessionID, kidID, func(engine *filter.Engine) error {
		out = engine.Filtered()
		state = engine.State()
		return nil
	})
	return out, state, err
}

// Reload pushes a kid's new history into every open view of that kid.
// Selections that are no longer reachable are dropped by the engine.
func (s *ViewService) Reload(kidID int64, raw []models.Activity) {
	s.mu.Lock()
	var entries []*viewEntry
	for key, e := range s.views {
		if key.kidID == kidID {
			entries = append(entries, e)
		}
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.engine != nil {
			e.engine.SetActivities(raw)
		}
		e.mu.Unlock()
	}
}

// Forget drops every view of a session, on logout.
func (s *ViewService) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.views {
		if key.sessionID == sessionID {
			delete(s.views, key)
		}
	}
}

// Sweep drops views idle for longer than the ttl and reports how many
func (s *ViewService) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, e := range s.views {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			delete(s.views, key)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// Len reports how many views are open
func (s *ViewService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Run sweeps idle views every interval until ctx is done
func (s *ViewService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug("idle views dropped", "count", n)
			}
		}
	}
}
