package note

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/apurv-2025/notes-api/internal/platform/blobstore"
	"github.com/apurv-2025/notes-api/pkg/pagination"
)

type Handler struct {
	svc   *Service
	coord *BulkCoordinator
	store blobstore.ArtifactStore
}

func NewHandler(svc *Service, coord *BulkCoordinator, store blobstore.ArtifactStore) *Handler {
	return &Handler{svc: svc, coord: coord, store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/notes", h.CreateNote)
	api.GET("/notes", h.ListNotes)
	api.GET("/notes/:id", h.GetNote)
	api.PUT("/notes/:id", h.UpdateNote)
	api.DELETE("/notes/:id", h.DeleteNote)
	api.POST("/notes/:id/sign", h.SignNote)
	api.POST("/notes/:id/archive", h.ArchiveNote)
	api.POST("/notes/bulk", h.BulkRun)
	api.GET("/exports/:id", h.DownloadExport)
}

// httpError maps domain errors onto HTTP statuses. Validation failures keep
// their full message list; lifecycle conflicts are 409s.
func httpError(err error) error {
	if ve := AsValidationError(err); ve != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "note validation failed",
			"errors":  ve.Errors,
		})
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	case errors.Is(err, ErrNoteLocked), errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

type createNoteRequest struct {
	PatientID   uuid.UUID         `json:"patient_id"`
	ClinicianID uuid.UUID         `json:"clinician_id"`
	Type        Type              `json:"note_type"`
	SessionDate time.Time         `json:"session_date"`
	Content     map[string]string `json:"content"`
}

func (h *Handler) CreateNote(c echo.Context) error {
	var req createNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n := &Note{
		PatientID:   req.PatientID,
		ClinicianID: req.ClinicianID,
		Type:        req.Type,
		SessionDate: req.SessionDate,
		Content:     req.Content,
	}
	created, err := h.svc.CreateNote(c.Request().Context(), n)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.GetNote(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) ListNotes(c echo.Context) error {
	pg := pagination.FromContext(c)
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListNotesByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	params := map[string]string{}
	for _, key := range []string{"clinician", "status", "type", "archived"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	items, total, err := h.svc.SearchNotes(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Patch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.UpdateNote(c.Request().Context(), id, p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

type signNoteRequest struct {
	ClinicianID uuid.UUID `json:"clinician_id"`
}

func (h *Handler) SignNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req signNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ClinicianID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "clinician_id is required")
	}
	n, err := h.svc.SignNote(c.Request().Context(), id, req.ClinicianID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) DeleteNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteNote(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ArchiveNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.ArchiveNote(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

type bulkRequest struct {
	Action BulkAction `json:"action"`
	IDs    []string   `json:"ids"`
}

func (h *Handler) BulkRun(c echo.Context) error {
	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !req.Action.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "action must be one of archive, export, delete")
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids must not be empty")
	}
	res, err := h.coord.Run(c.Request().Context(), req.Action, req.IDs)
	if err != nil {
		if res != nil {
			// Per-item outcomes are known; only the artifact failed.
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"message": err.Error(),
				"result":  res,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) DownloadExport(c echo.Context) error {
	id := c.Param("id")
	content, meta, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, blobstore.ErrArtifactNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "export not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer content.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+meta.FileName+`"`)
	return c.Stream(http.StatusOK, meta.ContentType, content)
}
