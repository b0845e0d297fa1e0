package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"learnlens/internal/enrich"
	"learnlens/internal/filter"
	"learnlens/internal/logger"
	"learnlens/internal/models"
	"learnlens/internal/repository"
)

// Count is one row of a digest breakdown
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DigestLine is one activity listed in a digest
type DigestLine struct {
	Date  string `json:"date"`
	Title string `json:"title"`
	Score string `json:"score,omitempty"`
}

// Digest summarizes a set of enriched activities for a parent
type Digest struct {
	KidName      string       `json:"kid_name"`
	Total        int          `json:"total"`
	Scored       int          `json:"scored"`
	AverageScore float64      `json:"average_score"`
	BySubject    []Count      `json:"by_subject"`
	ByAssistant  []Count      `json:"by_assistant"`
	Lines        []DigestLine `json:"activities"`
}

// Summarize builds a digest of activities. Breakdowns are sorted by count
// and then name; activities without a subject are left out of BySubject.
func Summarize(kidName string, activities []models.Activity) Digest {
	d := Digest{
		KidName:     kidName,
		Total:       len(activities),
		BySubject:   []Count{},
		ByAssistant: []Count{},
		Lines:       make([]DigestLine, 0, len(activities)),
	}

	subjects := map[string]int{}
	assistants := map[string]int{}
	var sum float64
	for _, a := range activities {
		if a.ScoreDetails != nil {
			d.Scored++
			sum += a.ScoreDetails.Percentage
		}
		if a.Subject != "" {
			subjects[a.Subject]++
		}
		if a.Assistant != "" {
			assistants[a.Assistant]++
		}
		d.Lines = append(d.Lines, DigestLine{Date: a.Date, Title: a.Title, Score: a.Score})
	}
	if d.Scored > 0 {
		d.AverageScore = sum / float64(d.Scored)
	}
	d.BySubject = sortedCounts(subjects)
	d.ByAssistant = sortedCounts(assistants)
	return d
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DigestSender delivers a digest to a parent
type DigestSender interface {
	SendDigest(ctx context.Context, toEmail, toName string, d Digest) error
}

// DigestService sends learning digests, on demand for one view or
// periodically for every parent
type DigestService struct {
	userRepo *repository.UserRepository
	kidRepo  *repository.KidRepository
	source   ActivitySource
	enricher *enrich.Enricher
	cfg      filter.Config
	sender   DigestSender
	workers  int
	log      *logger.Logger
	now      func() time.Time
}

// NewDigestService creates a digest service sending through sender with at
// most workers parents in flight
func NewDigestService(userRepo *repository.UserRepository, kidRepo *repository.KidRepository, source ActivitySource, enricher *enrich.Enricher, cfg filter.Config, sender DigestSender, workers int, log *logger.Logger) *DigestService {
	if workers <= 0 {
		workers = 1
	}
	return &DigestService{
		userRepo: userRepo,
		kidRepo:  kidRepo,
		source:   source,
		enricher: enricher,
		cfg:      cfg,
		sender:   sender,
		workers:  workers,
		log:      log,
		now:      time.Now,
	}
}

// SendView emails the digest of an already filtered view to its parent
func (s *DigestService) SendView(ctx context.Context, user *models.User, kid *models.Kid, activities []models.Activity) (Digest, error) {
	d := Summarize(kid.Name, activities)
	if err := s.sender.SendDigest(ctx, user.Email, user.Name, d); err != nil {
		return d, fmt.Errorf("failed to send digest: %w", err)
	}
	return d, nil
}

// SendAll emails every parent one digest per child covering the activities
// dated within the last period. A failure for one parent does not stop the
// others; the first error is returned after all have run.
func (s *DigestService) SendAll(ctx context.Context, period time.Duration) error {
	users, err := s.userRepo.GetAllUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range users {
		user := users[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.sendUser(ctx, &user, period); err != nil {
				s.log.Error("digest failed", "user_id", user.ID, "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *DigestService) sendUser(ctx context.Context, user *models.User, period time.Duration) error {
	kids, err := s.kidRepo.GetUserKids(user.ID)
	if err != nil {
		return fmt.Errorf("failed to list kids: %w", err)
	}

	state := s.periodState(period)
	for _, kid := range kids {
		raw, err := s.source.Activities(kid.ID)
		if err != nil {
			return err
		}
		recent := filter.Apply(s.cfg, s.enricher.EnrichAll(raw), state)
		if len(recent) == 0 {
			continue
		}
		if err := s.sender.SendDigest(ctx, user.Email, user.Name, Summarize(kid.Name, recent)); err != nil {
			return fmt.Errorf("failed to send digest for kid %d: %w", kid.ID, err)
		}
	}
	return nil
}

// periodState selects the calendar days from now-period through today.
func (s *DigestService) periodState(period time.Duration) filter.State {
	now := s.now()
	start := now.Add(-period)
	return filter.Reduce(s.cfg, nil, filter.InitialState(), filter.SetDateRange{Start: &start, End: &now})
}

// Run sends all digests every interval until ctx is done
func (s *DigestService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SendAll(ctx, interval); err != nil {
				s.log.Warn("periodic digest incomplete", "error", err)
			} else {
				s.log.Info("periodic digest sent")
			}
		}
	}
}
