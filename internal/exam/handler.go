package exam

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"qbank/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc examService
}

type examService interface {
	CreateExam(ctx context.Context, in CreateExamInput) (*Exam, error)
	GetExam(ctx context.Context, examID int64) (*Exam, error)
	ListExams(ctx context.Context, limit, offset int) ([]Exam, error)
	UpdateExam(ctx context.Context, in UpdateExamInput) (*Exam, error)
	DeleteExam(ctx context.Context, examID int64) error
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type examRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateExam(w http.ResponseWriter, r *http.Request) {
	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}
	item, err := h.svc.CreateExam(r.Context(), CreateExamInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: item})
}

func (h *Handler) GetExam(w http.ResponseWriter, r *http.Request) {
	examID, err := idParam(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "exam id must be a positive integer"})
		return
	}
	item, err := h.svc.GetExam(r.Context(), examID)
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) ListExams(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	items, err := h.svc.ListExams(r.Context(), limit, offset)
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) UpdateExam(w http.ResponseWriter, r *http.Request) {
	examID, err := idParam(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "exam id must be a positive integer"})
		return
	}
	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}
	item, err := h.svc.UpdateExam(r.Context(), UpdateExamInput{
		ID:          examID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) DeleteExam(w http.ResponseWriter, r *http.Request) {
	examID, err := idParam(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "exam id must be a positive integer"})
		return
	}
	if err := h.svc.DeleteExam(r.Context(), examID); err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]int64{"deleted": examID}})
}

func idParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "examID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidInput
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeExamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrExamNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload apiResponse) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
