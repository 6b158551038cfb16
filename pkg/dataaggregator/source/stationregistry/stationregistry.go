package stationregistry

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"reflect"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/query"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/source"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

// Source answers station lookups from a local signature,name CSV file
type Source struct {
	stations map[string]*ctdf.Station
}

func (s *Source) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return s.Read(file)
}

func (s *Source) Read(reader io.Reader) error {
	var rows []*ctdf.Station

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return err
	}

	s.stations = map[string]*ctdf.Station{}
	for _, row := range rows {
		if row.Signature == "" {
			continue
		}

		s.stations[row.Signature] = row
	}

	log.Info().Int("stations", len(s.stations)).Msg("Loaded station registry")

	return nil
}

func (s *Source) GetName() string {
	return "Station Registry"
}

func (s *Source) Supports() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf(map[string]string{}),
		reflect.TypeOf([]*ctdf.Station{}),
	}
}

func (s *Source) Lookup(_ context.Context, q any) (interface{}, error) {
	switch q := q.(type) {
	case query.StationNames:
		names := map[string]string{}
		for _, station := range s.find(q.Signatures) {
			names[station.Signature] = station.Name
		}

		return names, nil
	case query.Stations:
		return s.find(q.Signatures), nil
	}

	return nil, source.UnsupportedSourceError
}

func (s *Source) find(signatures []string) []*ctdf.Station {
	stations := []*ctdf.Station{}

	if len(signatures) == 0 {
		for _, station := range s.stations {
			stations = append(stations, station)
		}

		return stations
	}

	for _, signature := range signatures {
		if station, exists := s.stations[signature]; exists {
			stations = append(stations, station)
		}
	}

	return stations
}
