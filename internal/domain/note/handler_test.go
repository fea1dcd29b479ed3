package note

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/apurv-2025/notes-api/internal/platform/blobstore"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _ := newTestService()
	store := blobstore.NewInMemoryStore()
	coord := NewBulkCoordinator(svc, store, 4, zerolog.Nop())
	h := NewHandler(svc, coord, store)
	e := echo.New()
	return h, e
}

func createNoteBody() string {
	body := map[string]interface{}{
		"patient_id":   uuid.New().String(),
		"clinician_id": uuid.New().String(),
		"note_type":    "SOAP",
		"session_date": "2026-03-14T10:00:00Z",
		"content": map[string]string{
			"subjective": "Patient reports improved sleep.",
			"objective":  "Calm and engaged.",
			"assessment": "Symptoms trending down.",
			"plan":       "Continue weekly sessions.",
		},
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func postJSON(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateNote(t *testing.T) {
	h, e := newTestHandler()
	c, rec := postJSON(e, createNoteBody())
	if err := h.CreateNote(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if out["is_draft"] != true {
		t.Error("created note must serialize is_draft=true")
	}
}

func TestHandler_CreateNote_ValidationFailure(t *testing.T) {
	h, e := newTestHandler()
	body := `{"patient_id":"` + uuid.New().String() + `","clinician_id":"` + uuid.New().String() + `","note_type":"SOAP","session_date":"2026-03-14T10:00:00Z","content":{"subjective":"s"}}`
	c, _ := postJSON(e, body)
	err := h.CreateNote(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", httpErr.Code)
	}
	msg, ok := httpErr.Message.(map[string]interface{})
	if !ok {
		t.Fatalf("expected structured message, got %T", httpErr.Message)
	}
	errList, ok := msg["errors"].([]string)
	if !ok || len(errList) == 0 {
		t.Error("expected validation message list")
	}
}

func TestHandler_GetNote(t *testing.T) {
	h, e := newTestHandler()
	n, _ := h.svc.CreateNote(context.Background(), draftSOAP())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())
	if err := h.GetNote(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetNote_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	err := h.GetNote(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_GetNote_InvalidID(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	err := h.GetNote(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_UpdateNote_LockedConflict(t *testing.T) {
	h, e := newTestHandler()
	n, _ := h.svc.CreateNote(context.Background(), draftSOAP())
	h.svc.SignNote(context.Background(), n.ID, uuid.New())

	c, _ := postJSON(e, `{"content":{"plan":"sneaky edit"}}`)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())
	err := h.UpdateNote(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_UpdateNote_WithUnlockReason(t *testing.T) {
	h, e := newTestHandler()
	n, _ := h.svc.CreateNote(context.Background(), draftSOAP())
	h.svc.SignNote(context.Background(), n.ID, uuid.New())

	c, rec := postJSON(e, `{"content":{"plan":"amended"},"unlock_reason":"transcription error"}`)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())
	if err := h.UpdateNote(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var out map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out["status"] != string(StatusSignedUnlocked) || out["is_signed"] != true {
		t.Errorf("unexpected body: status=%v is_signed=%v", out["status"], out["is_signed"])
	}
}

func TestHandler_SignNote(t *testing.T) {
	h, e := newTestHandler()
	n, _ := h.svc.CreateNote(context.Background(), draftSOAP())
	c, rec := postJSON(e, `{"clinician_id":"`+uuid.New().String()+`"}`)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())
	if err := h.SignNote(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_SignNote_AlreadySigned(t *testing.T) {
	h, e := newTestHandler()
	n, _ := h.svc.CreateNote(context.Background(), draftSOAP())
	h.svc.SignNote(context.Background(), n.ID, uuid.New())

	c, _ := postJSON(e, `{"clinician_id":"`+uuid.New().String()+`"}`)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())
	err := h.SignNote(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_SignNote_MissingClinician(t *testing.T) {
	h, e := newTestHandler()
	n, _ := h.svc.CreateNote(context.Background(), draftSOAP())
	c, _ := postJSON(e, `{}`)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())
	err := h.SignNote(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_DeleteNote(t *testing.T) {
	h, e := newTestHandler()
	n, _ := h.svc.CreateNote(context.Background(), draftSOAP())
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())
	if err := h.DeleteNote(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_BulkRun(t *testing.T) {
	h, e := newTestHandler()
	a, _ := h.svc.CreateNote(context.Background(), draftSOAP())
	b := uuid.New().String()
	body := `{"action":"delete","ids":["` + a.ID.String() + `","` + b + `"]}`
	c, rec := postJSON(e, body)
	if err := h.BulkRun(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var res BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(res.Succeeded) != 1 || len(res.Failed) != 1 {
		t.Errorf("succeeded=%v failed=%v", res.Succeeded, res.Failed)
	}
}

func TestHandler_BulkRun_InvalidAction(t *testing.T) {
	h, e := newTestHandler()
	c, _ := postJSON(e, `{"action":"shred","ids":["`+uuid.New().String()+`"]}`)
	err := h.BulkRun(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_BulkRun_EmptyIDs(t *testing.T) {
	h, e := newTestHandler()
	c, _ := postJSON(e, `{"action":"archive","ids":[]}`)
	err := h.BulkRun(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_DownloadExport(t *testing.T) {
	h, e := newTestHandler()
	n, _ := h.svc.CreateNote(context.Background(), draftSOAP())
	res, err := h.coord.Run(context.Background(), BulkExport, []string{n.ID.String()})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(res.ArtifactID)
	if err := h.DownloadExport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(got, "application/x-ndjson") {
		t.Errorf("content type = %s", got)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected artifact content")
	}
}

func TestHandler_DownloadExport_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	err := h.DownloadExport(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_ListNotes_ByPatient(t *testing.T) {
	h, e := newTestHandler()
	patientID := uuid.New()
	n := draftSOAP()
	n.PatientID = patientID
	h.svc.CreateNote(context.Background(), n)
	h.svc.CreateNote(context.Background(), draftSOAP())

	req := httptest.NewRequest(http.MethodGet, "/?patient_id="+patientID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListNotes(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if out.Total != 1 {
		t.Errorf("total = %d, want 1", out.Total)
	}
}
