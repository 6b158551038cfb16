package stationregistry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/query"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryCSV = `signature,name
Cst, Stockholm C
Söc,Södertälje centrum
,Nowhere
`

func TestLookupStationNames(t *testing.T) {
	registry := &Source{}
	require.NoError(t, registry.Read(strings.NewReader(registryCSV)))

	names, err := registry.Lookup(context.Background(), query.StationNames{Signatures: []string{"Cst", "Söc", "Xyz"}})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Cst": "Stockholm C",
		"Söc": "Södertälje centrum",
	}, names)
}

func TestLookupAllStations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.csv")
	require.NoError(t, os.WriteFile(path, []byte(registryCSV), 0o600))

	registry := &Source{}
	require.NoError(t, registry.Load(path))

	stations, err := registry.Lookup(context.Background(), query.Stations{})
	require.NoError(t, err)

	assert.Len(t, stations.([]*ctdf.Station), 2)
}

func TestLookupUnsupported(t *testing.T) {
	registry := &Source{}

	_, err := registry.Lookup(context.Background(), query.TrainPosition{TrainIdent: "1"})

	assert.ErrorIs(t, err, source.UnsupportedSourceError)
}
