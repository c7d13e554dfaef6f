// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package points

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

// DefaultRefreshInterval is used when the configured interval is not positive.
const DefaultRefreshInterval = 30 * time.Second

// Lister loads every registered point.
type Lister interface {
	ListPoints(ctx context.Context) ([]models.Point, error)
}

// Registry is an in-memory snapshot of the registered points grouped by
// identity. Readers never block on the database.
type Registry struct {
	store    Lister
	interval time.Duration

	mu          sync.RWMutex
	byIdentity  map[string][]models.Point
	loaded      bool
	lastRefresh time.Time
	lastErr     error
}

// NewRegistry creates an empty registry. Call Refresh or RunWithContext to
// load it.
func NewRegistry(store Lister, interval time.Duration) *Registry {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Registry{
		store:      store,
		interval:   interval,
		byIdentity: make(map[string][]models.Point),
	}
}

// Refresh reloads the snapshot. On failure the previous snapshot stays in
// place and the error is returned.
func (r *Registry) Refresh(ctx context.Context) error {
	points, err := r.store.ListPoints(ctx)
	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
		return fmt.Errorf("refresh point registry: %w", err)
	}

	grouped := make(map[string][]models.Point)
	for _, p := range points {
		grouped[p.Identity] = append(grouped[p.Identity], p)
	}

	r.mu.Lock()
	r.byIdentity = grouped
	r.loaded = true
	r.lastRefresh = time.Now()
	r.lastErr = nil
	r.mu.Unlock()

	logging.Debug().Int("points", len(points)).Int("identities", len(grouped)).Msg("Point registry refreshed")
	return nil
}

// RunWithContext refreshes immediately and then every interval until ctx is
// canceled. Refresh failures are logged and retried on the next tick.
func (r *Registry) RunWithContext(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		logging.Warn().Err(err).Msg("Initial point registry load failed")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
				logging.Warn().Err(err).Msg("Point registry refresh failed, keeping previous snapshot")
			}
		}
	}
}

// ByIdentity returns a copy of the points registered under identity.
func (r *Registry) ByIdentity(identity string) []models.Point {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pts := r.byIdentity[identity]
	if len(pts) == 0 {
		return nil
	}
	out := make([]models.Point, len(pts))
	copy(out, pts)
	return out
}

// Published reports whether any point with identity is published.
func (r *Registry) Published(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.byIdentity[identity] {
		if p.Published {
			return true
		}
	}
	return false
}

// Identities returns every registered identity, sorted.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.byIdentity))
	for id := range r.byIdentity {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// IDs returns the database IDs of every point registered under the given
// identities. Unknown identities are skipped.
func (r *Registry) IDs(identities []string) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []int64
	for _, identity := range identities {
		for _, p := range r.byIdentity[identity] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Status describes the registry for health checks.
type Status struct {
	Loaded      bool
	Identities  int
	LastRefresh time.Time
	LastError   error
}

// Status returns the current load state.
func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{
		Loaded:      r.loaded,
		Identities:  len(r.byIdentity),
		LastRefresh: r.lastRefresh,
		LastError:   r.lastErr,
	}
}
