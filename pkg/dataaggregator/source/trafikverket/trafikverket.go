package trafikverket

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/query"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/source"
	"github.com/rs/zerolog/log"
)

const DefaultEndpoint = "https://api.trafikinfo.trafikverket.se/v2/data.xml"

// StationNameCache remembers station names between lookups. A cached empty
// name means the station is known not to exist.
type StationNameCache interface {
	Get(ctx context.Context, signature string) (string, bool)
	Set(ctx context.Context, signature string, name string)
}

type Source struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration

	HTTPClient   *http.Client
	StationCache StationNameCache
}

func (s Source) GetName() string {
	return "Trafikverket Open API"
}

func (s Source) Supports() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf([]*ctdf.Announcement{}),
		reflect.TypeOf(map[string]string{}),
		reflect.TypeOf([]*ctdf.Station{}),
		reflect.TypeOf(ctdf.TrainPosition{}),
		reflect.TypeOf([]*ctdf.TrainPosition{}),
	}
}

func (s Source) Lookup(ctx context.Context, q any) (interface{}, error) {
	switch q := q.(type) {
	case query.TrainAnnouncements:
		return s.trainAnnouncements(ctx, q)
	case query.TrainsAtLocations:
		return s.trainsAtLocations(ctx, q)
	case query.StationNames:
		return s.stationNames(ctx, q)
	case query.Stations:
		return s.stations(ctx, q.Signatures)
	case query.TrainPosition:
		return s.trainPosition(ctx, q)
	case query.TrainPositions:
		return s.trainPositions(ctx, q)
	}

	return nil, source.UnsupportedSourceError
}

func (s Source) trainAnnouncements(ctx context.Context, q query.TrainAnnouncements) ([]*ctdf.Announcement, error) {
	result, err := s.do(ctx, trainAnnouncementsQuery(q.TrainIdent, q.RunDate.Format(time.DateOnly)))
	if err != nil {
		return nil, err
	}

	return convertAnnouncements(result.TrainAnnouncements)
}

func (s Source) trainsAtLocations(ctx context.Context, q query.TrainsAtLocations) ([]*ctdf.Announcement, error) {
	if len(q.Signatures) == 0 {
		return []*ctdf.Announcement{}, nil
	}

	result, err := s.do(ctx, trainsAtLocationsQuery(q.Signatures, q.RunDate.Format(time.DateOnly)))
	if err != nil {
		return nil, err
	}

	return convertAnnouncements(result.TrainAnnouncements)
}

func (s Source) stations(ctx context.Context, signatures []string) ([]*ctdf.Station, error) {
	result, err := s.do(ctx, trainStationsQuery(signatures))
	if err != nil {
		return nil, err
	}

	stations := make([]*ctdf.Station, 0, len(result.TrainStations))
	for i := range result.TrainStations {
		stations = append(stations, result.TrainStations[i].toCTDF())
	}

	return stations, nil
}

// stationNames answers from the cache where it can and only asks upstream for
// the signatures it has never seen.
func (s Source) stationNames(ctx context.Context, q query.StationNames) (map[string]string, error) {
	names := map[string]string{}

	var missing []string
	for _, signature := range q.Signatures {
		if s.StationCache != nil {
			if name, cached := s.StationCache.Get(ctx, signature); cached {
				if name != "" {
					names[signature] = name
				}
				continue
			}
		}

		missing = append(missing, signature)
	}

	if len(missing) == 0 {
		return names, nil
	}

	stations, err := s.stations(ctx, missing)
	if err != nil {
		return nil, err
	}

	for _, station := range stations {
		names[station.Signature] = station.Name
	}

	if s.StationCache != nil {
		for _, signature := range missing {
			s.StationCache.Set(ctx, signature, names[signature])
		}
	}

	return names, nil
}

func (s Source) trainPosition(ctx context.Context, q query.TrainPosition) (*ctdf.TrainPosition, error) {
	positions, err := s.trainPositions(ctx, query.TrainPositions{TrainIdents: []string{q.TrainIdent}})
	if err != nil {
		return nil, err
	}

	var latest *ctdf.TrainPosition
	for _, position := range positions {
		if latest == nil || position.Timestamp.After(latest.Timestamp) {
			latest = position
		}
	}

	return latest, nil
}

func (s Source) trainPositions(ctx context.Context, q query.TrainPositions) ([]*ctdf.TrainPosition, error) {
	if len(q.TrainIdents) == 0 {
		return []*ctdf.TrainPosition{}, nil
	}

	result, err := s.do(ctx, trainPositionsQuery(q.TrainIdents))
	if err != nil {
		return nil, err
	}

	positions := make([]*ctdf.TrainPosition, 0, len(result.TrainPositions))
	for i := range result.TrainPositions {
		positions = append(positions, result.TrainPositions[i].toCTDF())
	}

	return positions, nil
}

func (s Source) do(ctx context.Context, q requestQuery) (*responseResult, error) {
	body, err := xml.Marshal(request{
		Login:   requestLogin{AuthenticationKey: s.APIKey},
		Queries: []requestQuery{q},
	})
	if err != nil {
		return nil, err
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	startTime := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	log.Debug().
		Str("objecttype", q.ObjectType).
		Int("status", resp.StatusCode).
		Str("latency", time.Since(startTime).String()).
		Msg("Trafikverket request")

	if resp.StatusCode >= http.StatusBadRequest {
		// Upstream puts the reason in an ERROR element when it can
		if _, decodeErr := decodeResponse(resp.Body); decodeErr != nil {
			return nil, fmt.Errorf("trafikverket returned %s: %w", resp.Status, decodeErr)
		}

		return nil, fmt.Errorf("trafikverket returned %s", resp.Status)
	}

	return decodeResponse(io.LimitReader(resp.Body, 32<<20))
}

func convertAnnouncements(announcements []trainAnnouncement) ([]*ctdf.Announcement, error) {
	converted := make([]*ctdf.Announcement, 0, len(announcements))

	for i := range announcements {
		announcement, err := announcements[i].toCTDF()
		if err != nil {
			return nil, err
		}

		converted = append(converted, announcement)
	}

	return converted, nil
}
