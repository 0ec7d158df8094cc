package netbox

import (
	"errors"
	"strconv"

	"netbox-sync/core/logger"
	"netbox-sync/core/reconcile"
	"netbox-sync/feature/netbox/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for netbox reconciliation.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the netbox routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/netbox")
	group.Get("/snapshot", h.HandleSnapshot)
	group.Post("/run", h.HandleRun)
	group.Get("/:netboxid", h.HandleGetNetbox)
	group.Post("/:netboxid", h.HandleIntake)
}

// HandleSnapshot reports the snapshot load state.
// @Summary Snapshot Stats
// @Description Loads the snapshot if needed and returns its state and table sizes.
// @Tags netbox
// @Produce json
// @Success 200 {object} SnapshotStats
// @Failure 503 {object} map[string]string "Snapshot incomplete"
// @Router /netbox/snapshot [get]
func (h *Handler) HandleSnapshot(c *fiber.Ctx) error {
	snap := h.service.Snapshot()
	if err := snap.Initialize(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
			"stats": snap.Stats(),
		})
	}
	return c.JSON(snap.Stats())
}

// HandleGetNetbox returns the cached prior record of a netbox.
// @Summary Get Cached Netbox
// @Description Returns the last known record for a netbox from the snapshot.
// @Tags netbox
// @Produce json
// @Param netboxid path int true "Netbox ID"
// @Success 200 {object} models.Record
// @Failure 400 {object} map[string]string "Invalid netbox id"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /netbox/{netboxid} [get]
func (h *Handler) HandleGetNetbox(c *fiber.Ctx) error {
	netboxID, err := parseNetboxID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	_ = h.service.Snapshot().Initialize(c.Context())
	rec, ok := h.service.Snapshot().Netbox(netboxID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": ErrUnknownNetbox.Error()})
	}
	return c.JSON(rec)
}

// HandleIntake reconciles one observation.
// @Summary Reconcile Netbox
// @Description Applies an observed device record to the netbox. Observations with "committed": false are skipped.
// @Tags netbox
// @Accept json
// @Produce json
// @Param netboxid path int true "Netbox ID"
// @Param observation body models.Observation true "Observation"
// @Success 200 {object} reconcile.Result "Updated or unchanged"
// @Success 202 {object} reconcile.Result "Skipped"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} reconcile.Result "Unknown netbox"
// @Failure 500 {object} reconcile.Result "Rolled back"
// @Router /netbox/{netboxid} [post]
func (h *Handler) HandleIntake(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	netboxID, err := parseNetboxID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var obs models.Observation
	if err := c.BodyParser(&obs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid observation body"})
	}
	obs.NetboxID = netboxID

	res, err := h.service.Intake(c.Context(), obs)
	switch {
	case errors.Is(err, ErrUnknownNetbox):
		l.Warn("Observation for unknown netbox", zap.Int("netboxid", netboxID))
		return c.Status(fiber.StatusNotFound).JSON(res)
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(res)
	case res.Outcome == reconcile.OutcomeSkipped:
		return c.Status(fiber.StatusAccepted).JSON(res)
	}

	l.Debug("Reconciled netbox", zap.Int("netboxid", netboxID), zap.String("outcome", string(res.Outcome)))
	return c.JSON(res)
}

// HandleRun reconciles every observation batch stored under the observation prefix.
// @Summary Run From Storage
// @Description Reconciles all stored observation batches. Optionally uploads the run report.
// @Tags netbox
// @Produce json
// @Param report query boolean false "Upload the run report"
// @Success 200 {object} reconcile.Report
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /netbox/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	publish := c.Query("report") == "true"

	report, name, err := h.service.RunFromStorage(c.Context(), publish)
	if err != nil {
		l.Error("Storage run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if name != "" {
		c.Set("X-Report-Object", name)
	}
	return c.JSON(report)
}

func parseNetboxID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("netboxid"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid netbox id")
	}
	return id, nil
}
