package cmd

import (
	"context"
	"fmt"

	"github.com/jsvoboda/facegate/internal/config"
	"github.com/jsvoboda/facegate/internal/database"
	"github.com/jsvoboda/facegate/internal/database/postgres"
	"github.com/jsvoboda/facegate/internal/face"
	"github.com/jsvoboda/facegate/internal/match"
	"github.com/jsvoboda/facegate/internal/pipeline"
)

// stack bundles the wired workflows shared by the commands.
type stack struct {
	cfg        *config.Config
	pool       *postgres.Pool
	store      *postgres.PersonRepository
	enroller   *pipeline.Enroller
	verifier   *pipeline.Verifier
	identifier *pipeline.Identifier
	index      *database.IdentifyIndex
}

// buildStack connects to PostgreSQL, runs migrations, and wires the
// workflows. With buildIndex set, all enrolled embeddings are loaded
// into an in-memory HNSW index and kept current on new enrollments.
func buildStack(buildIndex bool) (*stack, error) {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	store := postgres.NewPersonRepository(pool, cfg.Calibration.Model, cfg.Calibration.Dim)

	client := face.NewClient(cfg.FaceModel.URL)
	locator := face.NewLocator(client, cfg.FaceModel.MinDetScore)
	extractor := face.NewExtractor(client, cfg.Calibration.Model, cfg.Calibration.Dim)
	comparator := match.NewComparator(cfg.Calibration.VerifyThreshold)

	s := &stack{
		cfg:      cfg,
		pool:     pool,
		store:    store,
		enroller: pipeline.NewEnroller(locator, extractor, store, cfg.Calibration.Model, cfg.Calibration.Dim),
		verifier: pipeline.NewVerifier(locator, extractor, store, comparator),
	}

	if buildIndex {
		index := database.NewIdentifyIndex()
		persons, err := store.All(context.Background())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("loading enrolled embeddings: %w", err)
		}
		if err := index.Build(persons); err != nil {
			pool.Close()
			return nil, fmt.Errorf("building identify index: %w", err)
		}
		s.index = index
		s.enroller.OnEnrolled = index.Add
	}

	s.identifier = pipeline.NewIdentifier(locator, extractor, store, s.index)
	return s, nil
}

// Close releases the database pool.
func (s *stack) Close() {
	s.pool.Close()
}
