package scheduling

import (
	"context"
	"errors"
	"net/http"
	"time"

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	appts := api.Group("/appointments")
	appts.Use(auth.RequireRole("admin", "physician", "nurse", "scheduler", "registrar"))
	appts.POST("", h.Book)
	appts.GET("", h.Search)
	appts.GET("/:id", h.Get)
	appts.PUT("/:id/reschedule", h.Reschedule)
	appts.PUT("/:id/check-in", h.CheckIn)
	appts.PUT("/:id/complete", h.Complete)
	appts.PUT("/:id/cancel", h.Cancel)
	appts.PUT("/:id/no-show", h.MarkNoShow)

	wl := api.Group("/waitlist")
	wl.Use(auth.RequireRole("admin", "nurse", "scheduler", "registrar"))
	wl.POST("", h.JoinWaitlist)
	wl.GET("", h.ListWaitlist)
	wl.POST("/call-next", h.CallNext)
	wl.PUT("/:id/complete", h.CompleteWaitlistEntry)
	wl.PUT("/:id/cancel", h.CancelWaitlistEntry)
}

func (h *Handler) Book(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	booked, err := h.service.Book(c.Request().Context(), &a)
	if err != nil {
		if errors.Is(err, ErrProviderBusy) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, booked)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	a, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Search(c echo.Context) error {
	params := map[string]string{}
	for _, key := range []string{"status", "patient_id", "provider_id", "date"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	page := pagination.FromContext(c)
	items, total, err := h.service.Search(c.Request().Context(), params, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search appointments")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

type rescheduleRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.service.Reschedule(c.Request().Context(), id, req.StartTime, req.EndTime)
	if err != nil {
		return h.statusError(err, "failed to reschedule appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CheckIn(c echo.Context) error {
	return h.doTransition(c, h.service.CheckIn)
}

func (h *Handler) Complete(c echo.Context) error {
	return h.doTransition(c, h.service.Complete)
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	return h.doTransition(c, h.service.MarkNoShow)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.service.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return h.statusError(err, "failed to cancel appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) doTransition(c echo.Context, fn func(ctx context.Context, id uuid.UUID) (*Appointment, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	a, err := fn(c.Request().Context(), id)
	if err != nil {
		return h.statusError(err, "failed to update appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) JoinWaitlist(c echo.Context) error {
	var w Waitlist
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	entry, err := h.service.JoinWaitlist(c.Request().Context(), &w)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) ListWaitlist(c echo.Context) error {
	department := c.QueryParam("department")
	if department == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "department is required")
	}
	page := pagination.FromContext(c)
	items, total, err := h.service.ListWaitlist(c.Request().Context(), department, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list waitlist")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

type callNextRequest struct {
	Department string `json:"department"`
}

func (h *Handler) CallNext(c echo.Context) error {
	var req callNextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	entry, err := h.service.CallNext(c.Request().Context(), req.Department)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no patients waiting")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to call next patient")
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) CompleteWaitlistEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid waitlist id")
	}
	entry, err := h.service.CompleteWaitlistEntry(c.Request().Context(), id)
	if err != nil {
		return h.statusError(err, "failed to complete waitlist entry")
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) CancelWaitlistEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid waitlist id")
	}
	entry, err := h.service.CancelWaitlistEntry(c.Request().Context(), id)
	if err != nil {
		return h.statusError(err, "failed to cancel waitlist entry")
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) statusError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrProviderBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
