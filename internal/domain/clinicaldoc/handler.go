package clinicaldoc

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
	g := api.Group("/documents")
	g.Use(auth.RequireRole("admin", "physician", "nurse"))
	g.POST("", h.CreateDraft)
	g.GET("", h.ListByPatient)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.UpdateDraft)
	g.PUT("/:id/finalize", h.Finalize)
	g.POST("/:id/amendments", h.Amend)
	g.GET("/:id/amendments", h.ListAmendments)
	g.DELETE("/:id", h.DiscardDraft)
}

// editorID pulls the authenticated user out of the request context; draft
// ownership checks key off it.
func editorID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
}

func (h *Handler) CreateDraft(c echo.Context) error {
	var n Note
	if err := c.Bind(&n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if uid, err := editorID(c); err == nil {
		n.AuthorID = uid
	}
	created, err := h.service.CreateDraft(c.Request().Context(), &n)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid note id")
	}
	n, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "note not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load note")
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	page := pagination.FromContext(c)
	items, total, err := h.service.ListByPatient(c.Request().Context(), patientID, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notes")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

type draftUpdateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *Handler) UpdateDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid note id")
	}
	uid, err := editorID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown editor")
	}
	var req draftUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	n, err := h.service.UpdateDraft(c.Request().Context(), id, uid, req.Title, req.Body)
	if err != nil {
		return h.statusError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid note id")
	}
	uid, err := editorID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown editor")
	}
	n, err := h.service.Finalize(c.Request().Context(), id, uid)
	if err != nil {
		return h.statusError(err)
	}
	return c.JSON(http.StatusOK, n)
}

type amendRequest struct {
	Body string `json:"body"`
}

func (h *Handler) Amend(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid note id")
	}
	uid, err := editorID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown editor")
	}
	var req amendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.service.Amend(c.Request().Context(), id, uid, req.Body)
	if err != nil {
		return h.statusError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAmendments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid note id")
	}
	items, err := h.service.ListAmendments(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list amendments")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DiscardDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid note id")
	}
	uid, err := editorID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown editor")
	}
	if err := h.service.DiscardDraft(c.Request().Context(), id, uid); err != nil {
		return h.statusError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) statusError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	case errors.Is(err, ErrNotAuthor):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotDraft), errors.Is(err, ErrNotFinalized):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
