package pagination

import (
	"net/url"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedAt: at, ID: 42})

	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if got.ID != 42 || !got.CreatedAt.Equal(at) {
		t.Fatalf("unexpected cursor %+v", got)
	}
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("expected nil cursor for blank input, got %+v %v", c, err)
	}
	if _, err := ParseCursor("%%%"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, 1000: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParamsQuery(t *testing.T) {
	q := Params{Limit: 500, Cursor: "abc"}.Query()
	if q.Get("limit") != "100" || q.Get("cursor") != "abc" {
		t.Fatalf("unexpected query %v", q)
	}
	if len(Params{}.Query()) != 0 {
		t.Fatal("zero params should add nothing")
	}

	p := ParamsFromQuery(url.Values{"limit": {"x"}, "cursor": {" c "}})
	if p.Limit != DefaultLimit || p.Cursor != "c" {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestCursorAfter(t *testing.T) {
	at := time.Now()
	c := Cursor{CreatedAt: at, ID: 10}
	if !c.After(at, 9) || c.After(at, 10) || c.After(at, 11) {
		t.Fatal("same-timestamp ordering falls back to id")
	}
	if !c.After(at.Add(-time.Second), 99) || c.After(at.Add(time.Second), 1) {
		t.Fatal("older rows sort after the cursor")
	}
}
