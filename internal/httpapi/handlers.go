// Package httpapi is a thin Fiber wrapper over internal/planner: one
// handler per endpoint, translating query parameters into a Plan call
// and planner errors into HTTP status codes.
package httpapi

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/passbi/journeyplanner/internal/analysis"
	"github.com/passbi/journeyplanner/internal/planner"
)

// Server wires a *planner.Planner to a set of Fiber route handlers.
type Server struct {
	planner *planner.Planner
}

// NewServer builds a Server around an already-loaded planner.
func NewServer(p *planner.Planner) *Server {
	return &Server{planner: p}
}

// Register attaches every route to app.
func (s *Server) Register(app *fiber.App) {
	app.Get("/health", s.Health)
	app.Get("/plan", s.Plan)
	app.Get("/stops/search", s.StopsSearch)
	app.Get("/analysis/fastest-per-hour", s.FastestPerHour)
	app.Get("/analysis/top-stops", s.TopStops)
	app.Get("/analysis/overnight", s.Overnight)
}

// Health handles GET /health.
func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

// Plan handles GET /plan?from=&to=&date=&time=&k=.
func (s *Server) Plan(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	date := c.Query("date")
	clock := c.Query("time")
	k, _ := strconv.Atoi(c.Query("k", strconv.Itoa(planner.DefaultK)))

	if from == "" || to == "" || date == "" || clock == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing required parameters: from, to, date, time",
		})
	}

	itineraries, err := s.planner.Plan(c.Context(), from, to, date, clock, k)
	if err != nil {
		return planErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"request_id":  uuid.New().String(),
		"itineraries": itineraries,
	})
}

// StopsSearch handles GET /stops/search?q=&limit=.
func (s *Server) StopsSearch(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing required parameter: q"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	return c.JSON(fiber.Map{"matches": s.planner.MatchSubstring(q, limit)})
}

// FastestPerHour handles GET /analysis/fastest-per-hour.
func (s *Server) FastestPerHour(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"hours": analysis.FastestDirectConnectionPerHour(s.planner.Trips(), s.planner.StopTimes())})
}

// TopStops handles GET /analysis/top-stops?limit=.
func (s *Server) TopStops(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	return c.JSON(fiber.Map{"stops": analysis.TopFrequentedStops(s.planner.StopTimes(), s.planner.Stops(), limit)})
}

// Overnight handles GET /analysis/overnight?limit=.
func (s *Server) Overnight(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	return c.JSON(fiber.Map{
		"connections": analysis.OvernightConnections(s.planner.StopTimes(), s.planner.Trips(), s.planner.Stops(), limit),
	})
}

func planErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, planner.ErrStopNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, planner.ErrBadDate), errors.Is(err, planner.ErrBadTime), errors.Is(err, planner.ErrSameEndpoints):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, planner.ErrNoRoute):
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"itineraries": []string{}})
	case errors.Is(err, planner.ErrCancelled):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
