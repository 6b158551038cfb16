package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/dataaggregator"
	"github.com/rs/zerolog/log"
)

// TrackerManager owns one tracker per train and run date, starting them when
// first asked for and stopping them once nobody has asked for a while.
type TrackerManager struct {
	Config      Config
	Aggregator  *dataaggregator.Aggregator
	Sinks       []SnapshotSink
	IdleTimeout time.Duration

	Now func() time.Time

	mutex    sync.Mutex
	ctx      context.Context
	trackers map[string]*managedTracker
}

type managedTracker struct {
	tracker    *TrainTracker
	cancel     context.CancelFunc
	lastAccess time.Time
}

func NewTrackerManager(config Config, aggregator *dataaggregator.Aggregator, idleTimeout time.Duration, sinks ...SnapshotSink) *TrackerManager {
	return &TrackerManager{
		Config:      config,
		Aggregator:  aggregator,
		Sinks:       sinks,
		IdleTimeout: idleTimeout,
		Now:         time.Now,
		trackers:    map[string]*managedTracker{},
	}
}

// Run evicts idle trackers until ctx is done, then stops every tracker
func (m *TrackerManager) Run(ctx context.Context) {
	m.mutex.Lock()
	m.ctx = ctx
	m.mutex.Unlock()

	log.Info().Dur("idletimeout", m.IdleTimeout).Msg("Starting tracker manager")

	ticker := time.NewTicker(m.evictionInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.stopAll()
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

// Tracker returns the running tracker for the train, starting one if needed
func (m *TrackerManager) Tracker(trainIdent string, runDate time.Time) *TrainTracker {
	key := trackerKey(trainIdent, runDate)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.trackers == nil {
		m.trackers = map[string]*managedTracker{}
	}

	if managed, exists := m.trackers[key]; exists {
		managed.lastAccess = m.now()
		return managed.tracker
	}

	baseCtx := m.ctx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	runCtx, cancel := context.WithCancel(baseCtx)

	trainTracker := NewTrainTracker(trainIdent, runDate, m.Config, m.Aggregator, m.Sinks...)
	trainTracker.Now = m.Now

	m.trackers[key] = &managedTracker{
		tracker:    trainTracker,
		cancel:     cancel,
		lastAccess: m.now(),
	}

	go trainTracker.Run(runCtx)

	return trainTracker
}

func (m *TrackerManager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return len(m.trackers)
}

// EvictIdle stops trackers that have not been asked for within IdleTimeout
func (m *TrackerManager) EvictIdle() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	var evicted []string

	for key, managed := range m.trackers {
		if now.Sub(managed.lastAccess) < m.IdleTimeout {
			continue
		}

		managed.cancel()
		delete(m.trackers, key)
		evicted = append(evicted, key)

		log.Info().Str("tracker", key).Msg("Evicted idle train tracker")
	}

	return evicted
}

func (m *TrackerManager) stopAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key, managed := range m.trackers {
		managed.cancel()
		delete(m.trackers, key)
	}
}

func (m *TrackerManager) evictionInterval() time.Duration {
	interval := m.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}

	return interval
}

func (m *TrackerManager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}

	return m.Now()
}

func trackerKey(trainIdent string, runDate time.Time) string {
	return fmt.Sprintf("%s/%s", runDate.Format(time.DateOnly), trainIdent)
}
