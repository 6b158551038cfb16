package dataaggregator

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/source"
	"github.com/rs/zerolog/log"
)

type Aggregator struct {
	Sources []DataSource
}

var GlobalAggregator Aggregator

func (a *Aggregator) RegisterSource(source DataSource) {
	a.Sources = append(a.Sources, source)

	log.Debug().Str("name", source.GetName()).Msg("Registering new Data Source")
}

func Lookup[T any](ctx context.Context, query any) (T, error) {
	return LookupFrom[T](ctx, &GlobalAggregator, query)
}

// LookupFrom asks every source that can return a T, in registration order,
// until one answers. Sources that reject the query or fail are skipped and
// the last failure is returned if nobody could answer.
func LookupFrom[T any](ctx context.Context, aggregator *Aggregator, query any) (T, error) {
	var empty T

	lookupType := reflect.TypeOf(*new(T))
	if lookupType.Kind() == reflect.Pointer {
		lookupType = lookupType.Elem()
	}

	var lastError error

	for _, dataSource := range aggregator.Sources {
		matches := false

		for _, supportedType := range dataSource.Supports() {
			if lookupType == supportedType {
				matches = true
				break
			}
		}

		if !matches {
			continue
		}

		returnValue, err := dataSource.Lookup(ctx, query)

		if errors.Is(err, source.UnsupportedSourceError) {
			continue
		} else if err != nil {
			log.Debug().Err(err).Str("source", dataSource.GetName()).Msg("Data Source lookup failed")
			lastError = fmt.Errorf("%s: %w", dataSource.GetName(), err)

			if ctx.Err() != nil {
				return empty, lastError
			}
			continue
		}

		if returnValue == nil {
			return empty, nil
		}

		return returnValue.(T), nil
	}

	if lastError != nil {
		return empty, lastError
	}

	return empty, errors.New("Failed to find a matching Data Source for type")
}
