package main

import (
	"os"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/api"
	"github.com/Cybercom1973/taglaget/pkg/events"
	"github.com/Cybercom1973/taglaget/pkg/realtime"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("TAGLAGET_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TAGLAGET_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "taglaget",
		Description: "Rebuilds train routes from Trafikverket announcements and tracks where the train is",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			realtime.RegisterCLI(),
			events.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
