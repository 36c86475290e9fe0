package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"qbank/internal/app/apiresp"
	"qbank/internal/docparse"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc uploadService
}

type uploadService interface {
	ProcessUpload(ctx context.Context, in ProcessInput) (*Report, error)
	SaveQuestions(ctx context.Context, in SaveInput) (*SaveReport, error)
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// saveRequest accepts both confirmation shapes: the full one echoing the
// upload report's valid lists, and the legacy one with bare question
// arrays.
type saveRequest struct {
	ValidMCQ          []docparse.QuestionDraft    `json:"valid_mcq"`
	ValidTheory       []docparse.QuestionDraft    `json:"valid_theory"`
	ValidInstructions []docparse.InstructionBlock `json:"valid_instructions"`

	MCQQuestions    []docparse.QuestionDraft `json:"mcq_questions"`
	TheoryQuestions []docparse.QuestionDraft `json:"theory_questions"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Upload handles the multipart document upload and returns the parse
// report without persisting anything.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	examID, err := examIDParam(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "exam id must be a positive integer"})
		return
	}

	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: ErrNoFile.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "could not read uploaded file"})
		return
	}

	report, err := h.svc.ProcessUpload(r.Context(), ProcessInput{
		ExamID:         examID,
		Filename:       header.Filename,
		Data:           data,
		QuestionType:   strings.TrimSpace(r.FormValue("question_type")),
		ValidationMode: strings.TrimSpace(r.FormValue("validation_mode")),
		Strategy:       docparse.Strategy(strings.TrimSpace(r.FormValue("strategy"))),
	})
	if err != nil {
		writeUploadError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: report})
}

// Confirm persists a previously validated batch echoed back by the
// client.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	examID, err := examIDParam(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "exam id must be a positive integer"})
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	in := SaveInput{
		ExamID:       examID,
		MCQ:          req.ValidMCQ,
		Theory:       req.ValidTheory,
		Instructions: req.ValidInstructions,
	}
	if len(in.MCQ) == 0 && len(in.Theory) == 0 {
		in.MCQ = req.MCQQuestions
		in.Theory = req.TheoryQuestions
	}

	report, err := h.svc.SaveQuestions(r.Context(), in)
	if err != nil {
		writeUploadError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: report})
}

type formatInfo struct {
	Extension string `json:"extension"`
	Name      string `json:"name"`
	Images    bool   `json:"images"`
	Rich      bool   `json:"rich_formatting"`
}

// Formats lists the supported document formats and their capabilities.
func (h *Handler) Formats(w http.ResponseWriter, r *http.Request) {
	formats := []formatInfo{
		{Extension: ".docx", Name: "Word document", Images: true, Rich: true},
		{Extension: ".doc", Name: "Legacy Word document", Images: false, Rich: false},
		{Extension: ".pdf", Name: "PDF document", Images: false, Rich: false},
		{Extension: ".html", Name: "HTML document", Images: true, Rich: true},
		{Extension: ".htm", Name: "HTML document", Images: true, Rich: true},
		{Extension: ".xlsx", Name: "Excel workbook", Images: false, Rich: false},
		{Extension: ".xls", Name: "Legacy Excel workbook", Images: false, Rich: false},
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]interface{}{
		"formats":          formats,
		"max_file_size":    MaxFileSize,
		"question_types":   []string{docparse.TypeMCQ, docparse.TypeTheory, docparse.TypeAuto},
		"validation_modes": []string{docparse.ModeStrict, docparse.ModeLenient},
	}})
}

// Template streams a fillable .xlsx upload template for the requested
// question type.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	buf, err := BuildTemplate(kind)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind+`_upload_template.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func examIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "examID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidInput
	}
	return id, nil
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrExamNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrFileTooLarge):
		writeJSON(w, r, http.StatusRequestEntityTooLarge, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrNoFile),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNothingToSave),
		errors.Is(err, docparse.ErrUnsupportedFormat),
		errors.Is(err, docparse.ErrEmptyDocument),
		errors.Is(err, docparse.ErrDecode):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
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
