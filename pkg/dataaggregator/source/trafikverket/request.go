package trafikverket

import "encoding/xml"

type request struct {
	XMLName xml.Name       `xml:"REQUEST"`
	Login   requestLogin   `xml:"LOGIN"`
	Queries []requestQuery `xml:"QUERY"`
}

type requestLogin struct {
	AuthenticationKey string `xml:"authenticationkey,attr"`
}

type requestQuery struct {
	ObjectType    string `xml:"objecttype,attr"`
	SchemaVersion string `xml:"schemaversion,attr"`
	Namespace     string `xml:"namespace,attr,omitempty"`
	OrderBy       string `xml:"orderby,attr,omitempty"`

	Filter  *requestFilter `xml:"FILTER,omitempty"`
	Include []string       `xml:"INCLUDE"`
}

type requestFilter struct {
	And *filterGroup      `xml:"AND,omitempty"`
	Or  *filterGroup      `xml:"OR,omitempty"`
	Eq  []filterCondition `xml:"EQ"`
}

type filterGroup struct {
	Or     []filterGroup     `xml:"OR"`
	Eq     []filterCondition `xml:"EQ"`
	Exists []filterCondition `xml:"EXISTS"`
}

type filterCondition struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func eq(name string, value string) filterCondition {
	return filterCondition{Name: name, Value: value}
}

func anyOf(name string, values []string) filterGroup {
	group := filterGroup{}
	for _, value := range values {
		group.Eq = append(group.Eq, eq(name, value))
	}

	return group
}

var announcementIncludes = []string{
	"ActivityType",
	"AdvertisedTimeAtLocation",
	"AdvertisedTrainIdent",
	"LocationSignature",
	"ToLocation",
	"FromLocation",
	"ViaFromLocation",
	"ViaToLocation",
	"TimeAtLocation",
	"TimeAtLocationWithSeconds",
	"TrackAtLocation",
	"Canceled",
	"EstimatedTimeAtLocation",
}

func trainAnnouncementsQuery(trainIdent string, runDate string) requestQuery {
	return requestQuery{
		ObjectType:    "TrainAnnouncement",
		SchemaVersion: "1.6",
		OrderBy:       "AdvertisedTimeAtLocation",
		Filter: &requestFilter{
			And: &filterGroup{
				Eq: []filterCondition{
					eq("AdvertisedTrainIdent", trainIdent),
					eq("ScheduledDepartureDateTime", runDate),
				},
			},
		},
		Include: announcementIncludes,
	}
}

func trainsAtLocationsQuery(signatures []string, runDate string) requestQuery {
	return requestQuery{
		ObjectType:    "TrainAnnouncement",
		SchemaVersion: "1.6",
		OrderBy:       "AdvertisedTimeAtLocation",
		Filter: &requestFilter{
			And: &filterGroup{
				Or: []filterGroup{anyOf("LocationSignature", signatures)},
				Eq: []filterCondition{
					eq("ScheduledDepartureDateTime", runDate),
				},
				Exists: []filterCondition{
					eq("TimeAtLocation", "true"),
				},
			},
		},
		Include: announcementIncludes,
	}
}

func trainStationsQuery(signatures []string) requestQuery {
	query := requestQuery{
		ObjectType:    "TrainStation",
		SchemaVersion: "1.4",
		Namespace:     "rail.infrastructure",
		Include: []string{
			"LocationSignature",
			"AdvertisedLocationName",
			"Geometry",
		},
	}

	if len(signatures) > 0 {
		group := anyOf("LocationSignature", signatures)
		query.Filter = &requestFilter{Or: &group}
	}

	return query
}

func trainPositionsQuery(trainIdents []string) requestQuery {
	group := anyOf("Train.AdvertisedTrainNumber", trainIdents)

	return requestQuery{
		ObjectType:    "TrainPosition",
		SchemaVersion: "1.1",
		Namespace:     "järnväg.trafikinfo",
		Filter:        &requestFilter{Or: &group},
		Include: []string{
			"Train.AdvertisedTrainNumber",
			"Position.WGS84",
			"Speed",
			"Bearing",
			"TimeStamp",
		},
	}
}
