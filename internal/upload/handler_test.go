package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"qbank/internal/docparse"

	"github.com/go-chi/chi/v5"
)

type mockUploadService struct {
	processFn func(ctx context.Context, in ProcessInput) (*Report, error)
	saveFn    func(ctx context.Context, in SaveInput) (*SaveReport, error)
}

func (m *mockUploadService) ProcessUpload(ctx context.Context, in ProcessInput) (*Report, error) {
	if m.processFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.processFn(ctx, in)
}

func (m *mockUploadService) SaveQuestions(ctx context.Context, in SaveInput) (*SaveReport, error) {
	if m.saveFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.saveFn(ctx, in)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadOK(t *testing.T) {
	h := &Handler{svc: &mockUploadService{
		processFn: func(ctx context.Context, in ProcessInput) (*Report, error) {
			if in.ExamID != 7 {
				t.Fatalf("unexpected exam id: %d", in.ExamID)
			}
			if in.Filename != "questions.html" || in.QuestionType != "mcq" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &Report{
				ExamID:     in.ExamID,
				Filename:   in.Filename,
				Statistics: Statistics{TotalParsed: 2, MCQParsed: 2, MCQValid: 2},
			}, nil
		},
	}}

	body, contentType := multipartBody(t, "questions.html",
		[]byte("<p>1. Capital?</p><p>a) London</p><p>b) Paris*</p>"),
		map[string]string{"question_type": "mcq", "validation_mode": "strict"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/7/bulk-upload", body)
	req.Header.Set("Content-Type", contentType)
	req = withURLParam(req, "examID", "7")
	w := httptest.NewRecorder()

	h.Upload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		OK   bool   `json:"ok"`
		Data Report `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Data.Statistics.MCQValid != 2 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
}

func TestUploadBadExamID(t *testing.T) {
	h := &Handler{svc: &mockUploadService{}}
	body, contentType := multipartBody(t, "q.html", []byte("x"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/abc/bulk-upload", body)
	req.Header.Set("Content-Type", contentType)
	req = withURLParam(req, "examID", "abc")
	w := httptest.NewRecorder()

	h.Upload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadExamNotFound(t *testing.T) {
	h := &Handler{svc: &mockUploadService{
		processFn: func(ctx context.Context, in ProcessInput) (*Report, error) {
			return nil, ErrExamNotFound
		},
	}}
	body, contentType := multipartBody(t, "q.html", []byte("x"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/7/bulk-upload", body)
	req.Header.Set("Content-Type", contentType)
	req = withURLParam(req, "examID", "7")
	w := httptest.NewRecorder()

	h.Upload(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUploadUnsupportedFormat(t *testing.T) {
	h := &Handler{svc: &mockUploadService{
		processFn: func(ctx context.Context, in ProcessInput) (*Report, error) {
			return nil, docparse.ErrUnsupportedFormat
		},
	}}
	body, contentType := multipartBody(t, "q.txt", []byte("x"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/7/bulk-upload", body)
	req.Header.Set("Content-Type", contentType)
	req = withURLParam(req, "examID", "7")
	w := httptest.NewRecorder()

	h.Upload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestConfirmFullShape(t *testing.T) {
	h := &Handler{svc: &mockUploadService{
		saveFn: func(ctx context.Context, in SaveInput) (*SaveReport, error) {
			if in.ExamID != 7 || len(in.MCQ) != 1 || len(in.Instructions) != 1 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &SaveReport{ExamID: 7, MCQSaved: 1, InstructionsSaved: 1, MCQPoolCount: 1}, nil
		},
	}}

	payload := []byte(`{
		"valid_mcq": [{"question_type":"mcq","question_text":"Capital?","options":["London","Paris"],"correct_option":1,"marks":2}],
		"valid_instructions": [{"id":"abc","type":"general","title":"Instructions","applies_to":"following_questions"}]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/7/bulk-upload/confirm", bytes.NewReader(payload))
	req = withURLParam(req, "examID", "7")
	w := httptest.NewRecorder()

	h.Confirm(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestConfirmLegacyShape(t *testing.T) {
	h := &Handler{svc: &mockUploadService{
		saveFn: func(ctx context.Context, in SaveInput) (*SaveReport, error) {
			if len(in.MCQ) != 1 || len(in.Theory) != 1 {
				t.Fatalf("legacy arrays not mapped: %+v", in)
			}
			return &SaveReport{ExamID: 7, MCQSaved: 1, TheorySaved: 1}, nil
		},
	}}

	payload := []byte(`{
		"mcq_questions": [{"question_type":"mcq","question_text":"Capital?","options":["London","Paris"],"correct_option":1,"marks":2}],
		"theory_questions": [{"question_type":"theory","sub_questions":[{"sub_number":"a","sub_text":"Explain","sub_marks":5}],"marks":5}]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/7/bulk-upload/confirm", bytes.NewReader(payload))
	req = withURLParam(req, "examID", "7")
	w := httptest.NewRecorder()

	h.Confirm(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFormats(t *testing.T) {
	h := &Handler{svc: &mockUploadService{}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk-upload/formats", nil)
	w := httptest.NewRecorder()

	h.Formats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res struct {
		Data struct {
			Formats []formatInfo `json:"formats"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Data.Formats) != 7 {
		t.Fatalf("got %d formats, want 7", len(res.Data.Formats))
	}
}

func TestTemplateDownload(t *testing.T) {
	h := &Handler{svc: &mockUploadService{}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk-upload/template/mcq", nil)
	req = withURLParam(req, "kind", "mcq")
	w := httptest.NewRecorder()

	h.Template(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type = %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Fatal("empty workbook")
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	h := &Handler{svc: &mockUploadService{}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk-upload/template/other", nil)
	req = withURLParam(req, "kind", "other")
	w := httptest.NewRecorder()

	h.Template(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
