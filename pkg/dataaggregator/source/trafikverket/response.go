package trafikverket

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/source"
	"golang.org/x/net/html/charset"
)

type response struct {
	XMLName xml.Name         `xml:"RESPONSE"`
	Results []responseResult `xml:"RESULT"`
}

type responseResult struct {
	TrainAnnouncements []trainAnnouncement `xml:"TrainAnnouncement"`
	TrainStations      []trainStation      `xml:"TrainStation"`
	TrainPositions     []trainPosition     `xml:"TrainPosition"`

	Error *responseError `xml:"ERROR"`
}

type responseError struct {
	Source  string `xml:"SOURCE"`
	Message string `xml:"MESSAGE"`
}

type locationReference struct {
	LocationName string
	Priority     int
	Order        int
}

type trainAnnouncement struct {
	ActivityType             string
	AdvertisedTimeAtLocation string
	AdvertisedTrainIdent     string
	LocationSignature        string
	Canceled                 bool

	EstimatedTimeAtLocation   string
	TimeAtLocation            string
	TimeAtLocationWithSeconds string
	TrackAtLocation           string

	FromLocation    []locationReference
	ToLocation      []locationReference
	ViaFromLocation []locationReference
	ViaToLocation   []locationReference
}

type trainStation struct {
	LocationSignature      string
	AdvertisedLocationName string
	Geometry               struct {
		WGS84 string
	}
}

type trainPosition struct {
	Train struct {
		AdvertisedTrainNumber string
	}
	Position struct {
		WGS84 string
	}
	Speed     string
	Bearing   string
	TimeStamp string
}

// decodeResponse reads a RESPONSE document. A missing RESULT or an ERROR
// element is reported as source.ErrMalformedResponse.
func decodeResponse(reader io.Reader) (*responseResult, error) {
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	var decoded response
	if err := d.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %s", source.ErrMalformedResponse, err)
	}

	if len(decoded.Results) == 0 {
		return nil, fmt.Errorf("%w: no RESULT element", source.ErrMalformedResponse)
	}

	result := decoded.Results[0]
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s %s", source.ErrMalformedResponse, result.Error.Source, result.Error.Message)
	}

	return &result, nil
}

func (t *trainAnnouncement) toCTDF() (*ctdf.Announcement, error) {
	advertisedTime, err := time.Parse(time.RFC3339, t.AdvertisedTimeAtLocation)
	if err != nil {
		return nil, fmt.Errorf("%w: AdvertisedTimeAtLocation %q", source.ErrMalformedResponse, t.AdvertisedTimeAtLocation)
	}

	actualTime := parseOptionalTime(t.TimeAtLocationWithSeconds)
	if actualTime == nil {
		actualTime = parseOptionalTime(t.TimeAtLocation)
	}

	return &ctdf.Announcement{
		TrainIdent:        t.AdvertisedTrainIdent,
		LocationSignature: t.LocationSignature,
		ActivityType:      ctdf.AnnouncementActivityType(t.ActivityType),

		AdvertisedTime: advertisedTime,
		EstimatedTime:  parseOptionalTime(t.EstimatedTimeAtLocation),
		ActualTime:     actualTime,

		Track:    t.TrackAtLocation,
		Canceled: t.Canceled,

		FromLocations: locationNames(t.FromLocation),
		ToLocations:   locationNames(t.ToLocation),

		ViaFromLocations: viaLocations(t.ViaFromLocation),
		ViaToLocations:   viaLocations(t.ViaToLocation),
	}, nil
}

func (t *trainStation) toCTDF() *ctdf.Station {
	station := &ctdf.Station{
		Signature: t.LocationSignature,
		Name:      t.AdvertisedLocationName,
	}

	if location, err := ctdf.ParseWKTPoint(t.Geometry.WGS84); err == nil {
		station.Location = &location
	}

	return station
}

func (t *trainPosition) toCTDF() *ctdf.TrainPosition {
	position := &ctdf.TrainPosition{
		TrainIdent: t.Train.AdvertisedTrainNumber,
		Speed:      parseOptionalFloat(t.Speed),
		Bearing:    parseOptionalFloat(t.Bearing),
	}

	if location, err := ctdf.ParseWKTPoint(t.Position.WGS84); err == nil {
		position.Location = location
	}

	if timestamp := parseOptionalTime(t.TimeStamp); timestamp != nil {
		position.Timestamp = *timestamp
	}

	return position
}

func parseOptionalTime(value string) *time.Time {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}

	return &parsed
}

func parseOptionalFloat(value string) *float64 {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}

	return &parsed
}

func locationNames(references []locationReference) []string {
	var names []string
	for _, reference := range references {
		if reference.LocationName != "" {
			names = append(names, reference.LocationName)
		}
	}

	return names
}

func viaLocations(references []locationReference) []ctdf.ViaLocation {
	var locations []ctdf.ViaLocation
	for _, reference := range references {
		if reference.LocationName == "" {
			continue
		}

		locations = append(locations, ctdf.ViaLocation{
			Signature: reference.LocationName,
			Order:     reference.Order,
		})
	}

	return locations
}
