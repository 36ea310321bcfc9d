// Package store persists normalized datasets: local files, S3 objects,
// DynamoDB items and an Athena table over the uploaded artifacts.
package store

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

// Artifact is one dataset to persist. Name is the base file name without
// extension, e.g. "real-madrid_stats".
type Artifact struct {
	Name     string
	Team     string // empty for the combined artifact
	Combined bool
	Records  whoscored.Dataset
}

type Sink interface {
	Put(ctx context.Context, a Artifact) error
}

// Multi writes to every sink in order. All sinks are attempted; the errors
// are joined.
type Multi []Sink

func (m Multi) Put(ctx context.Context, a Artifact) error {
	var errs error
	for _, s := range m {
		if err := s.Put(ctx, a); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	return errs
}

// Memory keeps artifacts in order; used by tests and dry runs.
type Memory struct {
	mu        sync.Mutex
	Artifacts []Artifact
}

func (m *Memory) Put(_ context.Context, a Artifact) error {
	cp := a
	cp.Records = append(whoscored.Dataset(nil), a.Records...)
	m.mu.Lock()
	m.Artifacts = append(m.Artifacts, cp)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(name string) (Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}
