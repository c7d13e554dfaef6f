// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package trial

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/twinpulse/internal/cache"
	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
	"github.com/tomtom215/twinpulse/internal/models"
)

// Default names for trials whose reading carried none.
const (
	UnknownNamePrefix  = "未知试验_"
	UnknownRunNoPrefix = "未知_"
)

// Store is the trial and reading persistence the service needs.
type Store interface {
	InsertTrial(ctx context.Context, t *models.Trial) error
	EndLastOpenTrial(ctx context.Context, endTimestamp int64) (*models.Trial, error)
	GetTrial(ctx context.Context, id int64) (*models.Trial, error)
	ListTrials(ctx context.Context, f models.TrialFilter) ([]models.Trial, int64, error)
	CountTrials(ctx context.Context) (int64, error)
	PointValues(ctx context.Context, pointKey string, from, to int64) ([]models.StoredValue, error)
}

// IdentitySource lists the registered point identities.
type IdentitySource interface {
	Identities() []string
}

// Notifier pushes frames to WebSocket subscribers.
type Notifier interface {
	Publish(topic string, payload any)
}

// Config tunes history loading and replay.
type Config struct {
	CacheTTL    time.Duration
	CacheSize   int
	LoadWorkers int
	// MaxRate caps the replay rate; 0 means no cap.
	MaxRate float64
}

// DefaultConfig returns the defaults used when the config file is silent.
func DefaultConfig() Config {
	return Config{
		CacheTTL:    30 * time.Minute,
		CacheSize:   1000,
		LoadWorkers: 8,
	}
}

// ConfigFrom maps the replay config section.
func ConfigFrom(c *config.ReplayConfig) Config {
	cfg := DefaultConfig()
	if c.CacheTTL > 0 {
		cfg.CacheTTL = c.CacheTTL
	}
	if c.CacheSize > 0 {
		cfg.CacheSize = c.CacheSize
	}
	if c.LoadWorkers > 0 {
		cfg.LoadWorkers = c.LoadWorkers
	}
	if c.MaxRate > 0 {
		cfg.MaxRate = c.MaxRate
	}
	return cfg
}

// Service owns trial bookkeeping, history building and replay sessions.
type Service struct {
	cfg      Config
	store    Store
	points   IdentitySource
	notifier Notifier
	history  *cache.LRU[int64, []models.HistoryData]
	now      func() time.Time

	// Replay sessions run under baseCtx so Close can stop them.
	baseCtx  context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	sessions map[string]*session
	wg       sync.WaitGroup
}

// NewService creates the trial service. Call Close on shutdown.
func NewService(cfg Config, store Store, points IdentitySource, notifier Notifier) *Service {
	def := DefaultConfig()
	if cfg.LoadWorkers <= 0 {
		cfg.LoadWorkers = def.LoadWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:      cfg,
		store:    store,
		points:   points,
		notifier: notifier,
		history:  cache.NewLRU[int64, []models.HistoryData](cfg.CacheSize, cfg.CacheTTL),
		now:      time.Now,
		baseCtx:  ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
}

// OnReading opens a trial when the reading carries TestStart=true and closes
// the last open one on TestStart=false. Readings without a boolean TestStart
// are ignored.
func (s *Service) OnReading(ctx context.Context, reading *models.SensorData) error {
	start, ok := reading.Points[models.PointTestStart].(bool)
	if !ok {
		return nil
	}
	ts := reading.RealTimestamp()

	if !start {
		t, err := s.store.EndLastOpenTrial(ctx, ts)
		if errors.Is(err, database.ErrTrialNotFound) {
			logging.Warn().Str("sensor_id", reading.ID).Msg("TestStart=false without an open trial")
			return nil
		}
		if err != nil {
			return fmt.Errorf("end trial: %w", err)
		}
		logging.Info().Int64("trial_id", t.ID).Int64("end", ts).Msg("Trial ended")
		return nil
	}

	t := &models.Trial{
		Name:           textPoint(reading, models.PointTestName, UnknownNamePrefix+reading.ID),
		RunNo:          textPoint(reading, models.PointTestRunNo, UnknownRunNoPrefix+reading.ID),
		Mode:           textPoint(reading, models.PointTestMode, ""),
		StartTimestamp: ts,
	}
	if err := s.store.InsertTrial(ctx, t); err != nil {
		return fmt.Errorf("create trial: %w", err)
	}
	logging.Info().Int64("trial_id", t.ID).Str("name", t.Name).Str("run_no", t.RunNo).Msg("Trial started")
	return nil
}

func textPoint(reading *models.SensorData, key, fallback string) string {
	v, ok := reading.Points[key]
	if !ok || v == nil {
		return fallback
	}
	if s := models.FormatValue(v); s != "" {
		return s
	}
	return fallback
}

// Get returns one trial.
func (s *Service) Get(ctx context.Context, id int64) (*models.Trial, error) {
	return s.store.GetTrial(ctx, id)
}

// List returns a page of trials.
func (s *Service) List(ctx context.Context, f models.TrialFilter) (*models.TrialListResponse, error) {
	trials, total, err := s.store.ListTrials(ctx, f)
	if err != nil {
		return nil, err
	}
	if trials == nil {
		trials = []models.Trial{}
	}
	return &models.TrialListResponse{TotalCount: total, Trials: trials}, nil
}

// Count counts every trial.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountTrials(ctx)
}

// History returns the merged history of a trial, oldest first. Results are
// cached per trial.
func (s *Service) History(ctx context.Context, id int64) ([]models.HistoryData, error) {
	t, err := s.store.GetTrial(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.historyOf(ctx, t)
}

func (s *Service) historyOf(ctx context.Context, t *models.Trial) ([]models.HistoryData, error) {
	if h, ok := s.history.Get(t.ID); ok {
		metrics.HistoryCacheHits.Inc()
		return h, nil
	}
	metrics.HistoryCacheMisses.Inc()

	end := s.now().UnixMilli()
	if t.EndTimestamp != nil {
		end = *t.EndTimestamp
	}

	var mu sync.Mutex
	merged := make(map[int64]map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.LoadWorkers)
	for _, identity := range s.points.Identities() {
		g.Go(func() error {
			values, err := s.store.PointValues(gctx, identity, t.StartTimestamp, end)
			if err != nil {
				return fmt.Errorf("load %s: %w", identity, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, v := range values {
				m, ok := merged[v.TS]
				if !ok {
					m = make(map[string]string)
					merged[v.TS] = m
				}
				m[identity] = v.Value
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build history of trial %d: %w", t.ID, err)
	}

	history := make([]models.HistoryData, 0, len(merged))
	for ts, points := range merged {
		history = append(history, models.HistoryData{Timestamp: ts, PointsData: points})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Timestamp < history[j].Timestamp })

	s.history.Add(t.ID, history)
	logging.Debug().Int64("trial_id", t.ID).Int("instants", len(history)).Msg("Trial history built")
	return history, nil
}
