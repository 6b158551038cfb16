package routes

import (
	"context"
	"errors"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/config"
	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/realtime/tracker"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
)

// SnapshotWaitTimeout bounds how long a request waits for a newly started
// tracker to finish its first cycle
var SnapshotWaitTimeout = 30 * time.Second

var validate = validator.New()

type trainsHandler struct {
	manager *tracker.TrackerManager
	config  config.Config
}

func TrainsRouter(router fiber.Router, manager *tracker.TrackerManager, cfg config.Config) {
	handler := &trainsHandler{
		manager: manager,
		config:  cfg,
	}

	router.Get("/:identifier", handler.getTrain)
	router.Post("/:identifier/refresh", handler.refreshTrain)
	router.Get("/:identifier/stations/:signature", handler.getTrainStation)
}

func (h *trainsHandler) getTrain(c *fiber.Ctx) error {
	trainTracker, err := h.trackerFor(c)
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	snapshot := h.waitForSnapshot(c, trainTracker)
	if snapshot == nil {
		c.SendStatus(fiber.StatusBadGateway)
		return c.JSON(fiber.Map{
			"error": "Could not load Train from upstream",
		})
	}

	return sendSnapshot(c, snapshot)
}

func (h *trainsHandler) refreshTrain(c *fiber.Ctx) error {
	trainTracker, err := h.trackerFor(c)
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	snapshot, err := trainTracker.Refresh(c.UserContext())
	if errors.Is(err, tracker.ErrCycleSuperseded) {
		// A newer cycle took over, answer with what is published now. A tracker
		// created by this request has its own first cycle racing this one.
		snapshot, err = trainTracker.Snapshot(), nil
		if snapshot == nil {
			snapshot = h.waitForSnapshot(c, trainTracker)
			if snapshot == nil {
				err = trainTracker.LastError()
			}
		}
	}

	if errors.Is(err, tracker.ErrTrainNotFound) {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Train matching Identifier",
		})
	} else if err != nil || snapshot == nil {
		log.Error().Err(err).Str("train", trainTracker.TrainIdent).Msg("Refresh failed")

		c.SendStatus(fiber.StatusBadGateway)
		return c.JSON(fiber.Map{
			"error": "Could not refresh Train",
		})
	}

	return sendSnapshot(c, snapshot)
}

func (h *trainsHandler) getTrainStation(c *fiber.Ctx) error {
	signature := c.Params("signature")

	trainTracker, err := h.trackerFor(c)
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	snapshot := h.waitForSnapshot(c, trainTracker)
	if snapshot == nil {
		c.SendStatus(fiber.StatusBadGateway)
		return c.JSON(fiber.Map{
			"error": "Could not load Train from upstream",
		})
	}
	if snapshot.Status == ctdf.TrainSnapshotStatusNotFound {
		return sendSnapshot(c, snapshot)
	}

	if snapshot.Route.IndexOf(signature) == -1 {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Station is not on the route of this Train",
		})
	}

	stationTrains := snapshot.StationTrains[signature]
	if stationTrains == nil {
		stationTrains = &ctdf.StationTrains{}
	}

	response := struct {
		Signature string              `groups:"basic"`
		Name      string              `groups:"basic"`
		Trains    *ctdf.StationTrains `groups:"basic"`
	}{
		Signature: signature,
		Name:      snapshot.StationName(signature),
		Trains:    stationTrains,
	}

	reducedResponse, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, response)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce StationTrains",
		})
	}

	return c.JSON(reducedResponse)
}

func (h *trainsHandler) trackerFor(c *fiber.Ctx) (*tracker.TrainTracker, error) {
	identifier := c.Params("identifier")

	if err := validate.Var(identifier, "required,alphanum,max=10"); err != nil {
		return nil, errors.New("invalid train identifier")
	}

	runDate, err := tracker.ParseRunDate(c.Query("date"), h.config)
	if err != nil {
		return nil, err
	}

	return h.manager.Tracker(identifier, runDate), nil
}

// waitForSnapshot returns nil when no cycle has produced a snapshot yet
func (h *trainsHandler) waitForSnapshot(c *fiber.Ctx, trainTracker *tracker.TrainTracker) *ctdf.TrainSnapshot {
	ctx, cancel := context.WithTimeout(c.UserContext(), SnapshotWaitTimeout)
	defer cancel()

	snapshot, err := trainTracker.WaitForSnapshot(ctx)
	if snapshot == nil {
		log.Error().Err(err).Str("train", trainTracker.TrainIdent).Msg("No snapshot available")
	}

	return snapshot
}

func sendSnapshot(c *fiber.Ctx, snapshot *ctdf.TrainSnapshot) error {
	if snapshot.Status == ctdf.TrainSnapshotStatusNotFound {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Train matching Identifier",
		})
	}

	groups := []string{"basic"}
	if c.Query("detail") == "full" {
		groups = append(groups, "detailed")
	}

	reducedSnapshot, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, snapshot)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce TrainSnapshot",
		})
	}

	return c.JSON(reducedSnapshot)
}
