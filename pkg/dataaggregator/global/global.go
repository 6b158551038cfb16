package global

import (
	"github.com/Cybercom1973/taglaget/pkg/config"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/source/stationregistry"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/source/trafikverket"
	"github.com/Cybercom1973/taglaget/pkg/realtime/railutils"
	"github.com/Cybercom1973/taglaget/pkg/redis_client"
	"github.com/rs/zerolog/log"
)

func Setup(cfg config.Config) {
	dataaggregator.GlobalAggregator = dataaggregator.Aggregator{}

	trafikverketSource := trafikverket.Source{
		Endpoint: cfg.Trafikverket.Endpoint,
		APIKey:   cfg.Trafikverket.APIKey,
		Timeout:  cfg.Trafikverket.Timeout,
	}

	if redis_client.Client != nil {
		stationCache := &railutils.StationCache{}
		stationCache.Setup()
		trafikverketSource.StationCache = stationCache
	}

	dataaggregator.GlobalAggregator.RegisterSource(trafikverketSource)

	if cfg.StationRegistryFile != "" {
		registry := &stationregistry.Source{}
		if err := registry.Load(cfg.StationRegistryFile); err != nil {
			log.Error().Err(err).Str("file", cfg.StationRegistryFile).Msg("Failed to load station registry")
		} else {
			dataaggregator.GlobalAggregator.RegisterSource(registry)
		}
	}
}
