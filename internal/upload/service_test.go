package upload

import (
	"testing"

	"qbank/internal/docparse"
)

func TestEqualizedMarks(t *testing.T) {
	cases := []struct {
		count int
		want  int
	}{
		{1, 30},
		{3, 10},
		{4, 7},
		{7, 4},
		{30, 1},
		{45, 1},
		{0, 0},
	}
	for _, c := range cases {
		if got := EqualizedMarks(c.count); got != c.want {
			t.Errorf("EqualizedMarks(%d) = %d, want %d", c.count, got, c.want)
		}
	}
}

func TestHeadBoundsPreview(t *testing.T) {
	items := []docparse.QuestionDraft{{}, {}, {}, {}, {}}
	if got := head(items, 3); len(got) != 3 {
		t.Errorf("got %d items, want 3", len(got))
	}
	if got := head(items[:2], 3); len(got) != 2 {
		t.Errorf("got %d items, want 2", len(got))
	}
}
