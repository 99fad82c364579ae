package ui

import (
	"testing"
	"time"

	"github.com/skillfinite/skillfinite/internal/notify"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Dracula" || names[1] != "Nightfox" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Dracula Nightfox Slate]", names)
	}
	names[0] = "changed"
	if ThemeNames()[0] != "Dracula" {
		t.Fatalf("ThemeNames should return a copy")
	}
}

func TestNextTheme(t *testing.T) {
	cases := map[string]string{
		"Dracula":  "Nightfox",
		"Nightfox": "Slate",
		"Slate":    "Dracula",
		"Unknown":  "Dracula",
	}
	for in, want := range cases {
		if got := NextTheme(in); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %s", in, got, want)
		}
	}
}

func TestGetTheme(t *testing.T) {
	for _, name := range ThemeNames() {
		if got := GetTheme(name).Name; got != name {
			t.Fatalf("GetTheme(%s).Name = %q", name, got)
		}
	}
	if got := GetTheme("Unknown").Name; got != "Dracula" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Dracula (fallback)", got)
	}
}

func TestTypeColor(t *testing.T) {
	th := defaultTheme()
	if got := th.TypeColor(notify.TypeError); got != th.TypeColors[notify.TypeError] {
		t.Fatalf("TypeColor(error) = %q, want %q", got, th.TypeColors[notify.TypeError])
	}
	if got := th.TypeColor(notify.Type("unknown")); got != th.Muted {
		t.Fatalf("TypeColor(unknown) = %q, want %q", got, th.Muted)
	}
	for _, typ := range []notify.Type{
		notify.TypeSuccess, notify.TypeError, notify.TypeInfo, notify.TypeWarning,
		notify.TypeCourse, notify.TypePayment, notify.TypeAchievement, notify.TypeSystem,
	} {
		for _, name := range ThemeNames() {
			if GetTheme(name).TypeColors[typ] == "" {
				t.Fatalf("theme %s has no color for %s", name, typ)
			}
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  hello  ", 10); got != "hello" {
		t.Fatalf("truncate trims = %q", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q, want abc...", got)
	}
	if got := truncate("abcd", 2); got != "ab" {
		t.Fatalf("truncate limit<=3 = %q, want ab", got)
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	got := truncateMiddle("/home/amy/.local/share/skillfinite/skillfinite.log", 20)
	if len([]rune(got)) != 20 {
		t.Fatalf("got %q (%d runes), want 20", got, len([]rune(got)))
	}
	if got[len(got)-4:] != ".log" {
		t.Fatalf("truncateMiddle should keep the file name, got %q", got)
	}
}

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"negative", -5 * time.Second, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12 * time.Second, "12s"},
		{"minutes", 61 * time.Second, "1m"},
		{"hours", 2*time.Hour + 10*time.Minute, "2h"},
		{"days", 50 * time.Hour, "2d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := humanizeDuration(tc.in); got != tc.want {
				t.Fatalf("humanizeDuration(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[string]string{
		"":       "Free",
		"free":   "Free",
		" $20 ":  "$20",
		"$19.99": "$19.99",
	}
	for in, want := range cases {
		if got := formatPrice(in); got != want {
			t.Fatalf("formatPrice(%q) = %q, want %q", in, got, want)
		}
	}
	if got := formatAmount(125); got != "$125" {
		t.Fatalf("formatAmount = %q", got)
	}
}
