package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/query"
	"github.com/Cybercom1973/taglaget/pkg/realtime/trainroute"
	"github.com/Cybercom1973/taglaget/pkg/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

var ErrTrainNotFound = trainroute.ErrTrainNotFound

// ErrCycleSuperseded is returned by a refresh cycle whose result was thrown
// away because a newer cycle had started.
var ErrCycleSuperseded = errors.New("refresh cycle superseded")

type Config struct {
	RefreshRate time.Duration
	Classifier  trainroute.ClassifierConfig
}

// Cycle is what a sink gets after every refresh cycle that produced a snapshot
type Cycle struct {
	Previous *ctdf.TrainSnapshot
	Current  *ctdf.TrainSnapshot
	Duration time.Duration
}

type SnapshotSink interface {
	Publish(ctx context.Context, cycle Cycle) error
}

// TrainTracker rebuilds the route of one train on one run date. Every cycle
// produces a new immutable snapshot which replaces the previous one as a whole.
type TrainTracker struct {
	TrainIdent string
	RunDate    time.Time

	Config     Config
	Aggregator *dataaggregator.Aggregator
	Sinks      []SnapshotSink

	Now func() time.Time

	snapshot   atomic.Pointer[ctdf.TrainSnapshot]
	generation atomic.Uint64

	cycleMutex  sync.Mutex
	cancelCycle context.CancelFunc
	publishing  sync.Mutex

	lastError atomic.Pointer[cycleError]

	readyOnce sync.Once
	ready     chan struct{}
}

type cycleError struct {
	err error
}

func NewTrainTracker(trainIdent string, runDate time.Time, config Config, aggregator *dataaggregator.Aggregator, sinks ...SnapshotSink) *TrainTracker {
	return &TrainTracker{
		TrainIdent: trainIdent,
		RunDate:    runDate,
		Config:     config,
		Aggregator: aggregator,
		Sinks:      sinks,
		Now:        time.Now,
		ready:      make(chan struct{}),
	}
}

// Snapshot is the latest published snapshot, nil until a cycle succeeded
func (t *TrainTracker) Snapshot() *ctdf.TrainSnapshot {
	return t.snapshot.Load()
}

// LastError is the error of the most recent cycle, nil when it succeeded
func (t *TrainTracker) LastError() error {
	if stored := t.lastError.Load(); stored != nil {
		return stored.err
	}

	return nil
}

// WaitForSnapshot blocks until the first cycle that was not superseded has
// finished, successfully or not.
func (t *TrainTracker) WaitForSnapshot(ctx context.Context) (*ctdf.TrainSnapshot, error) {
	select {
	case <-t.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	snapshot := t.Snapshot()
	if snapshot == nil {
		return nil, t.LastError()
	}

	return snapshot, nil
}

func (t *TrainTracker) Run(ctx context.Context) {
	log.Info().
		Str("train", t.TrainIdent).
		Str("rundate", t.RunDate.Format(time.DateOnly)).
		Dur("refresh", t.Config.RefreshRate).
		Msg("Starting train tracker")

	for {
		startTime := time.Now()

		t.Refresh(ctx)

		executionDuration := time.Since(startTime)
		waitTime := t.Config.RefreshRate - executionDuration

		if waitTime <= 0 {
			waitTime = time.Second
		}

		select {
		case <-ctx.Done():
			log.Info().Str("train", t.TrainIdent).Msg("Stopping train tracker")
			return
		case <-time.After(waitTime):
		}
	}
}

// Refresh runs one full cycle. Starting a cycle cancels the one in flight,
// and a cycle only publishes if no newer cycle has started in the meantime.
func (t *TrainTracker) Refresh(ctx context.Context) (*ctdf.TrainSnapshot, error) {
	startTime := time.Now()

	cycleCtx, generation := t.startCycle(ctx)
	defer t.finishCycle(generation)

	logger := log.With().
		Str("train", t.TrainIdent).
		Uint64("generation", generation).
		Logger()

	snapshot, err := t.buildSnapshot(cycleCtx, generation)
	if errors.Is(err, ErrTrainNotFound) {
		snapshot = t.notFoundSnapshot(generation)
	} else if err != nil {
		if t.generation.Load() != generation {
			err = ErrCycleSuperseded
		}

		logger.Error().Err(err).Dur("duration", time.Since(startTime)).Msg("Refresh cycle failed")
		t.recordError(generation, err)

		return nil, err
	}

	previous, published := t.publish(generation, snapshot)
	if !published {
		logger.Debug().Msg("Discarding result of superseded refresh cycle")
		return nil, ErrCycleSuperseded
	}
	t.recordError(generation, err)

	cycle := Cycle{
		Previous: previous,
		Current:  snapshot,
		Duration: time.Since(startTime),
	}

	for _, sink := range t.Sinks {
		if sinkErr := sink.Publish(ctx, cycle); sinkErr != nil {
			logger.Warn().Err(sinkErr).Msg("Snapshot sink failed")
		}
	}

	logger.Info().
		Str("status", string(snapshot.Status)).
		Int("nodes", len(snapshot.Route.Nodes)).
		Str("current", snapshot.CurrentSignature()).
		Int("warnings", len(snapshot.Warnings)).
		Dur("duration", cycle.Duration).
		Msg("Refresh cycle complete")

	return snapshot, err
}

func (t *TrainTracker) startCycle(ctx context.Context) (context.Context, uint64) {
	t.cycleMutex.Lock()
	defer t.cycleMutex.Unlock()

	if t.cancelCycle != nil {
		t.cancelCycle()
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	t.cancelCycle = cancel

	return cycleCtx, t.generation.Add(1)
}

func (t *TrainTracker) finishCycle(generation uint64) {
	t.cycleMutex.Lock()
	defer t.cycleMutex.Unlock()

	if t.generation.Load() != generation {
		return
	}

	if t.cancelCycle != nil {
		t.cancelCycle()
		t.cancelCycle = nil
	}

	t.readyOnce.Do(func() {
		close(t.ready)
	})
}

func (t *TrainTracker) recordError(generation uint64, err error) {
	if t.generation.Load() != generation {
		return
	}

	t.lastError.Store(&cycleError{err: err})
}

// publish swaps in the snapshot unless a newer cycle has started or already
// published.
func (t *TrainTracker) publish(generation uint64, snapshot *ctdf.TrainSnapshot) (*ctdf.TrainSnapshot, bool) {
	t.publishing.Lock()
	defer t.publishing.Unlock()

	if t.generation.Load() != generation {
		return nil, false
	}

	previous := t.snapshot.Load()
	if previous != nil && previous.Generation > generation {
		return nil, false
	}

	if previous != nil {
		snapshot.CreationDateTime = previous.CreationDateTime
	}

	t.snapshot.Store(snapshot)

	return previous, true
}

func (t *TrainTracker) buildSnapshot(ctx context.Context, generation uint64) (*ctdf.TrainSnapshot, error) {
	now := t.now()

	announcements, err := dataaggregator.LookupFrom[[]*ctdf.Announcement](ctx, t.Aggregator, query.TrainAnnouncements{
		TrainIdent: t.TrainIdent,
		RunDate:    t.RunDate,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching announcements: %w", err)
	}

	route, err := trainroute.BuildRoute(trainroute.Normalize(announcements))
	if err != nil {
		return nil, err
	}

	route, _ = trainroute.ResolvePosition(route)

	enrichment := t.enrich(ctx, route)

	classifier := trainroute.OtherTrainsClassifier{
		Config:        t.Config.Classifier,
		Route:         route,
		TrainIdent:    t.TrainIdent,
		LivePositions: enrichment.otherPositions,
	}
	stationTrains := classifier.Classify(enrichment.otherTrains, now)

	enrichment.addObservationNames(ctx, t, stationTrains)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &ctdf.TrainSnapshot{
		PrimaryIdentifier: ctdf.TrainSnapshotIdentifier(t.TrainIdent, t.RunDate),
		CycleIdentifier:   uuid.NewString(),

		TrainIdent: t.TrainIdent,
		RunDate:    t.RunDate,

		Status:     ctdf.TrainSnapshotStatusOK,
		Generation: generation,

		Route:         route,
		StationNames:  enrichment.stationNames,
		StationTrains: stationTrains,
		Delays:        ctdf.RouteDelays(route),
		Position:      enrichment.position,

		Warnings: enrichment.warnings,

		CreationDateTime:     now,
		ModificationDateTime: now,

		DataSource: t.dataSource(now),
	}, nil
}

func (t *TrainTracker) notFoundSnapshot(generation uint64) *ctdf.TrainSnapshot {
	now := t.now()

	return &ctdf.TrainSnapshot{
		PrimaryIdentifier: ctdf.TrainSnapshotIdentifier(t.TrainIdent, t.RunDate),
		CycleIdentifier:   uuid.NewString(),

		TrainIdent: t.TrainIdent,
		RunDate:    t.RunDate,

		Status:     ctdf.TrainSnapshotStatusNotFound,
		Generation: generation,

		Route:         ctdf.Route{CurrentIndex: -1},
		StationNames:  map[string]string{},
		StationTrains: map[string]*ctdf.StationTrains{},
		Delays:        map[string]ctdf.Delay{},

		CreationDateTime:     now,
		ModificationDateTime: now,

		DataSource: t.dataSource(now),
	}
}

func (t *TrainTracker) dataSource(now time.Time) *ctdf.DataSource {
	return &ctdf.DataSource{
		OriginalFormat: "trafikverket-xml",
		Provider:       "SE-Trafikverket",
		DatasetID:      fmt.Sprintf("se-trafikverket-train/%s/%s", t.RunDate.Format(time.DateOnly), t.TrainIdent),
		Timestamp:      fmt.Sprint(now.Unix()),
	}
}

func (t *TrainTracker) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}

	return t.Now()
}

type enrichment struct {
	mutex sync.Mutex

	stationNames   map[string]string
	otherTrains    []*ctdf.Announcement
	position       *ctdf.TrainPosition
	otherPositions map[string]*ctdf.TrainPosition

	warnings []string
}

func (e *enrichment) warn(trainIdent string, what string, err error) {
	log.Warn().Err(err).Str("train", trainIdent).Str("lookup", what).Msg("Optional lookup failed")

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.warnings = append(e.warnings, fmt.Sprintf("%s unavailable", what))
}

// enrich runs the optional lookups. None of them can fail the cycle; a failed
// lookup leaves an empty value and a warning behind.
func (t *TrainTracker) enrich(ctx context.Context, route ctdf.Route) *enrichment {
	result := &enrichment{
		stationNames:   map[string]string{},
		otherPositions: map[string]*ctdf.TrainPosition{},
	}

	signatures := route.Signatures()

	p := pool.New()

	p.Go(func() {
		names, err := dataaggregator.LookupFrom[map[string]string](ctx, t.Aggregator, query.StationNames{Signatures: signatures})
		if err != nil {
			result.warn(t.TrainIdent, "station names", err)
			return
		}

		result.mutex.Lock()
		for signature, name := range names {
			result.stationNames[signature] = name
		}
		result.mutex.Unlock()
	})

	p.Go(func() {
		position, err := dataaggregator.LookupFrom[*ctdf.TrainPosition](ctx, t.Aggregator, query.TrainPosition{TrainIdent: t.TrainIdent})
		if err != nil {
			result.warn(t.TrainIdent, "live position", err)
			return
		}

		result.position = position
	})

	p.Go(func() {
		otherTrains, err := dataaggregator.LookupFrom[[]*ctdf.Announcement](ctx, t.Aggregator, query.TrainsAtLocations{
			Signatures: signatures,
			RunDate:    t.RunDate,
		})
		if err != nil {
			result.warn(t.TrainIdent, "other trains", err)
			return
		}

		result.otherTrains = otherTrains

		var idents []string
		for _, announcement := range otherTrains {
			if announcement.TrainIdent != t.TrainIdent {
				idents = append(idents, announcement.TrainIdent)
			}
		}
		idents = util.RemoveDuplicateStrings(idents, nil)
		if len(idents) == 0 {
			return
		}

		positions, err := dataaggregator.LookupFrom[[]*ctdf.TrainPosition](ctx, t.Aggregator, query.TrainPositions{TrainIdents: idents})
		if err != nil {
			result.warn(t.TrainIdent, "other train positions", err)
			return
		}

		for _, position := range positions {
			existing := result.otherPositions[position.TrainIdent]
			if existing == nil || position.Timestamp.After(existing.Timestamp) {
				result.otherPositions[position.TrainIdent] = position
			}
		}
	})

	p.Wait()

	return result
}

// addObservationNames looks up the names of origin and destination stations of
// other trains that are not on the route itself.
func (e *enrichment) addObservationNames(ctx context.Context, t *TrainTracker, stationTrains map[string]*ctdf.StationTrains) {
	var missing []string
	for _, trains := range stationTrains {
		for _, observation := range trains.All() {
			for _, signature := range []string{observation.OriginSignature, observation.DestinationSignature} {
				if _, known := e.stationNames[signature]; !known {
					missing = append(missing, signature)
				}
			}
		}
	}

	missing = util.RemoveDuplicateStrings(missing, nil)
	if len(missing) == 0 {
		return
	}

	names, err := dataaggregator.LookupFrom[map[string]string](ctx, t.Aggregator, query.StationNames{Signatures: missing})
	if err != nil {
		e.warn(t.TrainIdent, "destination names", err)
		return
	}

	for signature, name := range names {
		e.stationNames[signature] = name
	}
}
