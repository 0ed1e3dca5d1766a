package auditevent

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes exposes the trail to compliance reviewers only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/audit-events")
	g.Use(auth.RequireRole("admin", "compliance"))
	g.GET("", h.Search)
	g.GET("/:id", h.Get)
}

func (h *Handler) Search(c echo.Context) error {
	params := map[string]string{}
	for _, key := range []string{"kind", "user_id", "action", "resource"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	page := pagination.FromContext(c)
	items, total, err := h.service.Search(c.Request().Context(), params, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search audit events")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid audit event id")
	}
	e, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "audit event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load audit event")
	}
	return c.JSON(http.StatusOK, e)
}
