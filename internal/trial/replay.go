// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package trial

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
	"github.com/tomtom215/twinpulse/internal/models"
	"github.com/tomtom215/twinpulse/internal/websocket"
)

// session is one running replay.
type session struct {
	id      string
	trialID int64

	mu   sync.Mutex
	rate float64
}

func (s *session) setRate(r float64) {
	s.mu.Lock()
	s.rate = r
	s.mu.Unlock()
}

func (s *session) currentRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// StartReplay builds the trial's history and pushes it to
// /topic/history_data in the background at rate 1. It returns the subscribe
// ID that tags every pushed item.
func (s *Service) StartReplay(ctx context.Context, trialID int64) (string, error) {
	t, err := s.store.GetTrial(ctx, trialID)
	if err != nil {
		return "", err
	}
	history, err := s.historyOf(ctx, t)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.baseCtx.Err() != nil {
		s.mu.Unlock()
		return "", ErrServiceClosed
	}
	ms := s.now().UnixMilli()
	id := subscribeID(ms, trialID)
	for s.sessions[id] != nil {
		ms++
		id = subscribeID(ms, trialID)
	}
	sess := &session{id: id, trialID: trialID, rate: 1}
	s.sessions[id] = sess
	s.wg.Add(1)
	s.mu.Unlock()

	metrics.ReplaySessionsActive.Inc()
	go func() {
		defer s.wg.Done()
		defer metrics.ReplaySessionsActive.Dec()
		defer func() {
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
		}()
		s.push(s.baseCtx, sess, history)
	}()

	logging.Info().Int64("trial_id", trialID).Str("subscribe_id", id).Int("items", len(history)).Msg("Trial replay started")
	return id, nil
}

func subscribeID(ms, trialID int64) string {
	return strconv.FormatInt(ms, 10) + "-" + strconv.FormatInt(trialID, 10)
}

// push sends every item, waiting (next.ts - cur.ts)/rate between items, then
// the completion marker. A canceled ctx stops it without the marker.
func (s *Service) push(ctx context.Context, sess *session, history []models.HistoryData) {
	for i, item := range history {
		s.publish(models.HistoryData{Timestamp: item.Timestamp, SubscribeID: sess.id, PointsData: item.PointsData})
		if i == len(history)-1 {
			break
		}
		interval := history[i+1].Timestamp - item.Timestamp
		if interval <= 0 {
			continue
		}
		wait := time.Duration(float64(interval) / sess.currentRate() * float64(time.Millisecond))
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logging.Info().Str("subscribe_id", sess.id).Msg("Trial replay canceled")
			return
		case <-timer.C:
		}
	}
	s.publish(models.HistoryData{Timestamp: models.HistoryCompleteMarker, SubscribeID: sess.id})
	logging.Info().Str("subscribe_id", sess.id).Msg("Trial replay finished")
}

func (s *Service) publish(item models.HistoryData) {
	if s.notifier != nil {
		s.notifier.Publish(websocket.TopicHistoryData, models.Success(item))
	}
}

// SetRate changes the playback rate of a running replay.
func (s *Service) SetRate(subscribeID string, rate float64) error {
	if rate <= 0 || (s.cfg.MaxRate > 0 && rate > s.cfg.MaxRate) {
		return fmt.Errorf("%w: %g", ErrInvalidRate, rate)
	}
	s.mu.Lock()
	sess := s.sessions[subscribeID]
	s.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("%w: %s", ErrReplayNotFound, subscribeID)
	}
	sess.setRate(rate)
	logging.Debug().Str("subscribe_id", subscribeID).Float64("rate", rate).Msg("Replay rate changed")
	return nil
}

// ActiveReplays returns the number of running replays.
func (s *Service) ActiveReplays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close cancels every running replay and waits for them to stop. Later
// StartReplay calls fail with ErrServiceClosed.
func (s *Service) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}
