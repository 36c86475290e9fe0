package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouterPublicRoutes(t *testing.T) {
	router := NewRouter(Config{
		CSRFEnforced:          false,
		UploadRateLimitPerMin: 60,
	}, nil)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{name: "healthz", method: http.MethodGet, target: "/healthz", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusOK},
		{name: "formats", method: http.MethodGet, target: "/api/v1/bulk-upload/formats", wantStatus: http.StatusOK},
		{name: "template_mcq", method: http.MethodGet, target: "/api/v1/bulk-upload/template/mcq", wantStatus: http.StatusOK},
		{name: "template_unknown", method: http.MethodGet, target: "/api/v1/bulk-upload/template/essay2", wantStatus: http.StatusBadRequest},
		{name: "upload_bad_id", method: http.MethodPost, target: "/api/v1/exams/abc/bulk-upload", wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("%s %s status = %d, want %d", tc.method, tc.target, rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestRouterMetricsExposesRequestCounters(t *testing.T) {
	router := NewRouter(Config{UploadRateLimitPerMin: 60}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "qbank_http_requests_total") {
		t.Fatalf("metrics body missing request counter:\n%s", rec.Body.String())
	}
}
