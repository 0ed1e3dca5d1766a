package priorauth

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/prior-auths")
	g.Use(auth.RequireRole("admin", "physician", "billing"))
	g.POST("", h.Submit)
	g.GET("", h.Search)
	g.GET("/:id", h.Get)
	g.PUT("/:id/approve", h.Approve)
	g.PUT("/:id/deny", h.Deny)
}

func requesterID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
}

func (h *Handler) Submit(c echo.Context) error {
	var r Request
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if uid, err := requesterID(c); err == nil {
		r.RequestedBy = uid
	}
	created, err := h.service.Submit(c.Request().Context(), &r)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	r, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prior auth request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load request")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Search(c echo.Context) error {
	params := map[string]string{}
	for _, key := range []string{"status", "patient_id", "payer"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	page := pagination.FromContext(c)
	items, total, err := h.service.Search(c.Request().Context(), params, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search requests")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

type approveRequest struct {
	AuthNumber string `json:"auth_number"`
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	uid, err := requesterID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	r, err := h.service.Approve(c.Request().Context(), id, uid, req.AuthNumber)
	if err != nil {
		return h.statusError(err)
	}
	return c.JSON(http.StatusOK, r)
}

type denyRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Deny(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	uid, err := requesterID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	var req denyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	r, err := h.service.Deny(c.Request().Context(), id, uid, req.Reason)
	if err != nil {
		return h.statusError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) statusError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "prior auth request not found")
	case errors.Is(err, ErrAlreadyDecided):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
