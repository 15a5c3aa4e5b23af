package audit

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the audit trail query API. The trail exists for
// compliance officers and administrators; ordinary users never see it.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/audit-logs", auth.RequireRole("admin", "compliance"))
	g.GET("", h.Search)
	g.GET("/:id", h.Get)

	api.GET("/medical-records/:id/access-log", h.RecordAccesses, auth.RequireRole("admin", "compliance"))
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)

	f := SearchFilter{
		TenantID:     c.QueryParam("tenant_id"),
		ActorID:      c.QueryParam("actor_id"),
		Action:       c.QueryParam("action"),
		EntityType:   c.QueryParam("entity_type"),
		Outcome:      c.QueryParam("outcome"),
		Severity:     c.QueryParam("severity"),
		DataCategory: c.QueryParam("data_category"),
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
		f.From = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
		f.To = t
	}

	items, total, err := h.svc.Search(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "audit log search failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "audit record not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) RecordAccesses(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.RecordAccesses(c.Request().Context(), c.Param("id"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "access log query failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
