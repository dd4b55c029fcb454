package util

import (
	"reflect"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Invoice Chasing Fix", "invoice-chasing-fix"},
		{"  lots   of--spaces  ", "lots-of-spaces"},
		{"Already-Slugged", "already-slugged"},
		{"$49/mo offer!", "49-mo-offer"},
		{"", ""},
		{"---", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Truncate("exactly ten", 11); got != "exactly ten" {
		t.Fatalf("unexpected %q", got)
	}
	got := Truncate("this headline is far too long", 12)
	if len([]rune(got)) > 12 {
		t.Fatalf("too long: %q", got)
	}
	if got[len(got)-len("…"):] != "…" {
		t.Fatalf("missing ellipsis: %q", got)
	}
}

func TestWords(t *testing.T) {
	got := Words("Chasing, late INVOICES (again)!")
	want := []string{"chasing", "late", "invoices", "again"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Words = %v, want %v", got, want)
	}
	if len(Words("")) != 0 {
		t.Fatalf("expected no words")
	}
}
