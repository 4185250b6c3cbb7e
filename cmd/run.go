package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/abhisek/lectern/internal/coach"
	"github.com/abhisek/lectern/internal/config"
	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/llm"
	"github.com/abhisek/lectern/internal/platform/logger"
	"github.com/abhisek/lectern/internal/session"
	"github.com/abhisek/lectern/internal/store"
)

// runtime is everything serve and play share.
type runtime struct {
	cfg     config.Config
	store   *store.Store
	service *session.Service
	log     *logger.Logger
	closers []func() error
}

// buildRuntime loads the curriculum, opens the journal and wires the session
// service. Warnings go to warn so the terminal client can print them before
// it takes over the screen.
func buildRuntime(ctx context.Context, cfg config.Config, log *logger.Logger, warn io.Writer) (*runtime, error) {
	res, err := lesson.Load(cfg.Curriculum)
	if err != nil {
		return nil, fmt.Errorf("load curriculum %q: %w", cfg.Curriculum, err)
	}
	for _, fe := range res.Errors {
		log.Warn("lesson rejected", "file", fe.File, "problems", fe.Errors)
		fmt.Fprintln(warn, "skipping invalid lesson:", fe.Error())
	}
	catalog := lesson.NewCatalog(res.Lessons)
	for _, id := range catalog.Duplicates() {
		fmt.Fprintln(warn, "duplicate lesson id ignored:", id)
	}
	log.Info("curriculum loaded", "lessons", catalog.Len(), "courses", len(catalog.Courses()))

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	opts := []session.Option{
		session.WithLogger(log),
		session.WithJournal(st.EventRepo()),
		session.WithSnapshots(st.SnapshotRepo()),
		session.WithPlaybackRate(cfg.PlaybackRate),
	}
	if cfg.Coach.Enabled {
		provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
		switch {
		case errors.Is(err, llm.ErrNotConfigured):
			fmt.Fprintln(warn, "LLM provider not configured; coach feedback unavailable.")
		case err != nil:
			fmt.Fprintln(warn, "LLM provider unavailable:", err)
		default:
			opts = append(opts, session.WithCoach(provider, coach.Config{
				MaxTokens:   cfg.Coach.MaxTokens,
				Temperature: cfg.Coach.Temperature,
			}))
		}
	}

	sessions := session.NewStore(opts...)
	rt := &runtime{
		cfg:     cfg,
		store:   st,
		service: session.NewService(catalog, sessions, log),
		log:     log,
	}
	rt.closers = append(rt.closers, sessions.Close, rt.prune, st.Close)
	return rt, nil
}

// prune trims old progress snapshots.
func (rt *runtime) prune() error {
	if rt.cfg.SnapshotKeep <= 0 {
		return nil
	}
	return rt.store.SnapshotRepo().Prune(context.Background(), rt.cfg.SnapshotKeep)
}

// Close releases sessions, then the journal.
func (rt *runtime) Close() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
