package report

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"qbank/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc reportService
}

type reportService interface {
	SummaryByExam(ctx context.Context, examID int64) (*ExamSummary, error)
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "examID")
	examID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || examID <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "exam id must be a positive integer")
		return
	}

	summary, err := h.svc.SummaryByExam(r.Context(), examID)
	if err != nil {
		if errors.Is(err, ErrExamNotFound) {
			apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, summary)
}
