package dataaggregator

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/query"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name   string
	result any
	err    error
	calls  *int
}

func (f fakeSource) GetName() string {
	return f.name
}

func (f fakeSource) Supports() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf(map[string]string{}),
		reflect.TypeOf(ctdf.TrainPosition{}),
	}
}

func (f fakeSource) Lookup(_ context.Context, _ any) (interface{}, error) {
	if f.calls != nil {
		*f.calls++
	}

	return f.result, f.err
}

func TestLookupFromFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		sources  []DataSource
		expected map[string]string
		err      bool
	}{
		{
			name: "first source answers",
			sources: []DataSource{
				fakeSource{name: "a", result: map[string]string{"Cst": "Stockholm C"}},
				fakeSource{name: "b", result: map[string]string{"Cst": "wrong"}},
			},
			expected: map[string]string{"Cst": "Stockholm C"},
		},
		{
			name: "unsupported moves on",
			sources: []DataSource{
				fakeSource{name: "a", err: source.UnsupportedSourceError},
				fakeSource{name: "b", result: map[string]string{"Cst": "Stockholm C"}},
			},
			expected: map[string]string{"Cst": "Stockholm C"},
		},
		{
			name: "failure moves on",
			sources: []DataSource{
				fakeSource{name: "a", err: errors.New("timeout")},
				fakeSource{name: "b", result: map[string]string{"Cst": "Stockholm C"}},
			},
			expected: map[string]string{"Cst": "Stockholm C"},
		},
		{
			name: "every source fails",
			sources: []DataSource{
				fakeSource{name: "a", err: errors.New("timeout")},
			},
			err: true,
		},
		{
			name:    "no sources",
			sources: []DataSource{},
			err:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregator := &Aggregator{}
			for _, dataSource := range tt.sources {
				aggregator.RegisterSource(dataSource)
			}

			names, err := LookupFrom[map[string]string](context.Background(), aggregator, query.StationNames{})

			if tt.err {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestLookupFromKeepsUnderlyingError(t *testing.T) {
	aggregator := &Aggregator{}
	aggregator.RegisterSource(fakeSource{name: "a", err: source.ErrMalformedResponse})

	_, err := LookupFrom[map[string]string](context.Background(), aggregator, query.StationNames{})

	assert.ErrorIs(t, err, source.ErrMalformedResponse)
}

func TestLookupFromPointerResult(t *testing.T) {
	aggregator := &Aggregator{}
	aggregator.RegisterSource(fakeSource{name: "a", result: (*ctdf.TrainPosition)(nil)})

	position, err := LookupFrom[*ctdf.TrainPosition](context.Background(), aggregator, query.TrainPosition{TrainIdent: "1"})

	require.NoError(t, err)
	assert.Nil(t, position)
}

func TestLookupFromStopsWhenCancelled(t *testing.T) {
	calls := 0
	aggregator := &Aggregator{}
	aggregator.RegisterSource(fakeSource{name: "a", err: context.Canceled, calls: &calls})
	aggregator.RegisterSource(fakeSource{name: "b", result: map[string]string{}, calls: &calls})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LookupFrom[map[string]string](ctx, aggregator, query.StationNames{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
