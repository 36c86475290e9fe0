package observability

import "testing"

func TestNormalizedPath(t *testing.T) {
	got := normalizedPath("/api/v1/exams/123/bulk-upload")
	want := "/api/v1/exams/{id}/bulk-upload"
	if got != want {
		t.Fatalf("normalizedPath mismatch got=%s want=%s", got, want)
	}
}

func TestExtractExamID(t *testing.T) {
	if id := extractExamID("/api/v1/exams/456/bulk-upload/confirm"); id != 456 {
		t.Fatalf("expected 456, got %d", id)
	}
	if id := extractExamID("/api/v1/bulk-upload/formats"); id != 0 {
		t.Fatalf("expected 0 for non-exam path, got %d", id)
	}
}
