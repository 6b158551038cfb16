package trafikverket

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/query"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const announcementsResponse = `<?xml version="1.0" encoding="utf-8"?>
<RESPONSE>
  <RESULT>
    <TrainAnnouncement>
      <ActivityType>Avgang</ActivityType>
      <AdvertisedTimeAtLocation>2024-05-02T10:00:00.000+02:00</AdvertisedTimeAtLocation>
      <AdvertisedTrainIdent>8715</AdvertisedTrainIdent>
      <LocationSignature>Cst</LocationSignature>
      <Canceled>false</Canceled>
      <TimeAtLocation>2024-05-02T10:01:00.000+02:00</TimeAtLocation>
      <TimeAtLocationWithSeconds>2024-05-02T10:01:12.000+02:00</TimeAtLocationWithSeconds>
      <TrackAtLocation>13</TrackAtLocation>
      <FromLocation><LocationName>Cst</LocationName><Priority>1</Priority><Order>0</Order></FromLocation>
      <ToLocation><LocationName>Söc</LocationName><Priority>1</Priority><Order>0</Order></ToLocation>
      <ViaToLocation><LocationName>Flb</LocationName><Priority>1</Priority><Order>0</Order></ViaToLocation>
      <ViaToLocation><LocationName>Tu</LocationName><Priority>1</Priority><Order>1</Order></ViaToLocation>
    </TrainAnnouncement>
    <TrainAnnouncement>
      <ActivityType>Ankomst</ActivityType>
      <AdvertisedTimeAtLocation>2024-05-02T10:40:00.000+02:00</AdvertisedTimeAtLocation>
      <AdvertisedTrainIdent>8715</AdvertisedTrainIdent>
      <LocationSignature>Söc</LocationSignature>
      <Canceled>false</Canceled>
      <EstimatedTimeAtLocation>2024-05-02T10:42:00.000+02:00</EstimatedTimeAtLocation>
    </TrainAnnouncement>
  </RESULT>
</RESPONSE>`

type capturedRequest struct {
	body string
}

func testServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestBody, _ := io.ReadAll(r.Body)
		captured.body = string(requestBody)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "text/xml", r.Header.Get("Content-Type"))

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, captured
}

func testSource(server *httptest.Server) Source {
	return Source{
		Endpoint:   server.URL,
		APIKey:     "secret",
		Timeout:    5 * time.Second,
		HTTPClient: server.Client(),
	}
}

func TestTrainAnnouncements(t *testing.T) {
	server, captured := testServer(t, http.StatusOK, announcementsResponse)

	result, err := testSource(server).Lookup(context.Background(), query.TrainAnnouncements{
		TrainIdent: "8715",
		RunDate:    time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	announcements := result.([]*ctdf.Announcement)
	require.Len(t, announcements, 2)

	departure := announcements[0]
	assert.Equal(t, "8715", departure.TrainIdent)
	assert.Equal(t, "Cst", departure.LocationSignature)
	assert.True(t, departure.IsDeparture())
	assert.Equal(t, "13", departure.Track)
	require.NotNil(t, departure.ActualTime)
	assert.Equal(t, 12, departure.ActualTime.Second())
	assert.Equal(t, "Cst", departure.Origin())
	assert.Equal(t, "Söc", departure.Destination())
	assert.Equal(t, []ctdf.ViaLocation{{Signature: "Flb", Order: 0}, {Signature: "Tu", Order: 1}}, departure.ViaToLocations)

	arrival := announcements[1]
	assert.True(t, arrival.IsArrival())
	assert.Nil(t, arrival.ActualTime)
	require.NotNil(t, arrival.EstimatedTime)

	assert.Contains(t, captured.body, `authenticationkey="secret"`)
	assert.Contains(t, captured.body, `objecttype="TrainAnnouncement"`)
	assert.Contains(t, captured.body, `<EQ name="AdvertisedTrainIdent" value="8715"></EQ>`)
	assert.Contains(t, captured.body, `<EQ name="ScheduledDepartureDateTime" value="2024-05-02"></EQ>`)
}

func TestTrainsAtLocationsRequest(t *testing.T) {
	server, captured := testServer(t, http.StatusOK, `<RESPONSE><RESULT></RESULT></RESPONSE>`)

	result, err := testSource(server).Lookup(context.Background(), query.TrainsAtLocations{
		Signatures: []string{"Cst", `A"&<B`},
		RunDate:    time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, result)

	assert.Contains(t, captured.body, `<EXISTS name="TimeAtLocation" value="true"></EXISTS>`)
	assert.Contains(t, captured.body, `<EQ name="LocationSignature" value="Cst"></EQ>`)
	assert.Contains(t, captured.body, `value="A&#34;&amp;&lt;B"`)
}

func TestTrainsAtLocationsWithoutSignatures(t *testing.T) {
	result, err := Source{Endpoint: "http://127.0.0.1:0"}.Lookup(context.Background(), query.TrainsAtLocations{})

	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestMalformedResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{
			name:   "error element",
			status: http.StatusOK,
			body:   `<RESPONSE><RESULT><ERROR><SOURCE>Request</SOURCE><MESSAGE>Invalid query</MESSAGE></ERROR></RESULT></RESPONSE>`,
		},
		{
			name:   "missing result",
			status: http.StatusOK,
			body:   `<RESPONSE></RESPONSE>`,
		},
		{
			name:   "not xml",
			status: http.StatusOK,
			body:   `{"hello": "world"}`,
		},
		{
			name:   "unauthorized with error element",
			status: http.StatusUnauthorized,
			body:   `<RESPONSE><RESULT><ERROR><SOURCE>Authentication</SOURCE><MESSAGE>Invalid key</MESSAGE></ERROR></RESULT></RESPONSE>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := testServer(t, tt.status, tt.body)

			_, err := testSource(server).Lookup(context.Background(), query.TrainAnnouncements{TrainIdent: "1"})

			assert.ErrorIs(t, err, source.ErrMalformedResponse)
		})
	}
}

func TestServerErrorWithoutBody(t *testing.T) {
	server, _ := testServer(t, http.StatusBadGateway, `<RESPONSE><RESULT></RESULT></RESPONSE>`)

	_, err := testSource(server).Lookup(context.Background(), query.TrainAnnouncements{TrainIdent: "1"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, source.ErrMalformedResponse)
	assert.True(t, strings.Contains(err.Error(), "502"))
}

type memoryStationCache map[string]string

func (m memoryStationCache) Get(_ context.Context, signature string) (string, bool) {
	name, exists := m[signature]
	return name, exists
}

func (m memoryStationCache) Set(_ context.Context, signature string, name string) {
	m[signature] = name
}

func TestStationNames(t *testing.T) {
	server, captured := testServer(t, http.StatusOK, `<RESPONSE><RESULT>
		<TrainStation>
			<LocationSignature>Söc</LocationSignature>
			<AdvertisedLocationName>Södertälje centrum</AdvertisedLocationName>
			<Geometry><WGS84>POINT (17.62 59.19)</WGS84></Geometry>
		</TrainStation>
	</RESULT></RESPONSE>`)

	cache := memoryStationCache{"Cst": "Stockholm C", "Gone": ""}
	trafikverket := testSource(server)
	trafikverket.StationCache = cache

	result, err := trafikverket.Lookup(context.Background(), query.StationNames{
		Signatures: []string{"Cst", "Söc", "Gone", "Xyz"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Cst": "Stockholm C",
		"Söc": "Södertälje centrum",
	}, result)

	assert.NotContains(t, captured.body, `value="Cst"`)
	assert.NotContains(t, captured.body, `value="Gone"`)
	assert.Contains(t, captured.body, `namespace="rail.infrastructure"`)

	assert.Equal(t, "Södertälje centrum", cache["Söc"])
	name, known := cache.Get(context.Background(), "Xyz")
	assert.True(t, known)
	assert.Empty(t, name)
}

func TestTrainPosition(t *testing.T) {
	t.Run("latest position wins", func(t *testing.T) {
		server, _ := testServer(t, http.StatusOK, `<RESPONSE><RESULT>
			<TrainPosition>
				<Train><AdvertisedTrainNumber>8715</AdvertisedTrainNumber></Train>
				<Position><WGS84>POINT (18.05 59.33)</WGS84></Position>
				<Speed>80</Speed>
				<TimeStamp>2024-05-02T10:05:00.000+02:00</TimeStamp>
			</TrainPosition>
			<TrainPosition>
				<Train><AdvertisedTrainNumber>8715</AdvertisedTrainNumber></Train>
				<Position><WGS84>POINT (18.01 59.30)</WGS84></Position>
				<Speed>95</Speed>
				<Bearing>190</Bearing>
				<TimeStamp>2024-05-02T10:06:00.000+02:00</TimeStamp>
			</TrainPosition>
		</RESULT></RESPONSE>`)

		result, err := testSource(server).Lookup(context.Background(), query.TrainPosition{TrainIdent: "8715"})
		require.NoError(t, err)

		position := result.(*ctdf.TrainPosition)
		require.NotNil(t, position)
		require.NotNil(t, position.Speed)
		assert.Equal(t, 95.0, *position.Speed)
		require.NotNil(t, position.Bearing)
		assert.Equal(t, 6, position.Timestamp.Minute())
		assert.Equal(t, []float64{18.01, 59.30}, position.Location.Coordinates)
	})

	t.Run("no position", func(t *testing.T) {
		server, captured := testServer(t, http.StatusOK, `<RESPONSE><RESULT></RESULT></RESPONSE>`)

		result, err := testSource(server).Lookup(context.Background(), query.TrainPosition{TrainIdent: "8715"})
		require.NoError(t, err)

		assert.Nil(t, result.(*ctdf.TrainPosition))
		assert.Contains(t, captured.body, `namespace="järnväg.trafikinfo"`)
	})
}

func TestUnsupportedQuery(t *testing.T) {
	_, err := Source{}.Lookup(context.Background(), "not a query")

	assert.ErrorIs(t, err, source.UnsupportedSourceError)
}
