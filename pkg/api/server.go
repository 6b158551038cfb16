package api

import (
	"github.com/Cybercom1973/taglaget/pkg/api/routes"
	"github.com/Cybercom1973/taglaget/pkg/config"
	"github.com/Cybercom1973/taglaget/pkg/realtime/tracker"
	"github.com/gofiber/fiber/v2"
)

func NewApp(manager *tracker.TrackerManager, cfg config.Config) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)

	routes.TrainsRouter(group.Group("/trains"), manager, cfg)

	return webApp
}

func SetupServer(listen string, manager *tracker.TrackerManager, cfg config.Config) error {
	return NewApp(manager, cfg).Listen(listen)
}
