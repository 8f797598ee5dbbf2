package services

import (
	"testing"
	"time"
)

func TestSanitizeOptionsTrimsAndDropsEmpty(t *testing.T) {
	got := SanitizeOptions([]string{"  Sí ", "", "   ", "No"})
	if len(got) != 2 || got[0] != "Sí" || got[1] != "No" {
		t.Fatalf("unexpected options: %#v", got)
	}
}

func TestDuplicateOptionDetectsNormalizedRepeats(t *testing.T) {
	composed := "Café"
	decomposed := "Café"
	if _, dup := DuplicateOption([]string{composed, "Té", decomposed}); !dup {
		t.Fatalf("expected NFC duplicate to be detected")
	}
	if _, dup := DuplicateOption([]string{"A", "B"}); dup {
		t.Fatalf("expected no duplicate")
	}
}

func TestMatchOptionReturnsStoredLabel(t *testing.T) {
	option, ok := MatchOption([]string{"Café", "Té"}, " Café ")
	if !ok || option != "Café" {
		t.Fatalf("expected stored label, got %q %v", option, ok)
	}
	if _, ok := MatchOption([]string{"A", "B"}, "C"); ok {
		t.Fatalf("expected unknown option to be rejected")
	}
}

func TestParseClosingAt(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{raw: "2026-11-30", want: time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)},
		{raw: "2026-11-30T18:30:00Z", want: time.Date(2026, 11, 30, 18, 30, 0, 0, time.UTC)},
		{raw: "2026-11-30T18:30:00+02:00", want: time.Date(2026, 11, 30, 16, 30, 0, 0, time.UTC)},
		{raw: "2026-11-30T18:30:00", want: time.Date(2026, 11, 30, 18, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseClosingAt(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parse %q: expected %s, got %s", tc.raw, tc.want, got)
		}
	}

	for _, raw := range []string{"", "tomorrow", "30/11/2026"} {
		if _, err := ParseClosingAt(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
