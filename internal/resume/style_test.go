package resume

import "testing"

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func f64Ptr(f float64) *float64 { return &f }

func TestResolveStyle_Defaults(t *testing.T) {
	got := ResolveStyle(nil, nil)
	want := DefaultStyle()
	if got != want {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestResolveStyle_Priority(t *testing.T) {
	template := &StylePatch{
		PrimaryColor: strPtr("#000000"),
		AccentColor:  strPtr("#0d9488"),
		FontSizePt:   intPtr(11),
	}
	override := &StylePatch{
		AccentColor: strPtr("#dc2626"),
		LineHeight:  f64Ptr(1.3),
	}

	got := ResolveStyle(template, override)

	if got.PrimaryColor != "#000000" {
		t.Errorf("primary color: template patch should win over default, got %q", got.PrimaryColor)
	}
	if got.AccentColor != "#dc2626" {
		t.Errorf("accent color: override should win over template, got %q", got.AccentColor)
	}
	if got.FontSizePt != 11 {
		t.Errorf("font size: template patch should apply, got %d", got.FontSizePt)
	}
	if got.LineHeight != 1.3 {
		t.Errorf("line height: override should apply, got %v", got.LineHeight)
	}
	if got.FontFamily != DefaultStyle().FontFamily {
		t.Errorf("font family: untouched field should keep default, got %q", got.FontFamily)
	}
}

func TestResolveStyle_MarginsPerSide(t *testing.T) {
	override := &StylePatch{
		Margins: &MarginPatch{
			Top:  f64Ptr(25),
			Left: f64Ptr(20),
		},
	}

	got := ResolveStyle(nil, override)

	if got.Margins.Top != 25 {
		t.Errorf("top margin not overridden: %v", got.Margins.Top)
	}
	if got.Margins.Left != 20 {
		t.Errorf("left margin not overridden: %v", got.Margins.Left)
	}
	if got.Margins.Right != 15 || got.Margins.Bottom != 15 {
		t.Errorf("unpatched margins should stay at default, got %+v", got.Margins)
	}
}

func TestResolveStyle_Idempotent(t *testing.T) {
	patch := &StylePatch{
		PrimaryColor: strPtr("#222222"),
		Margins:      &MarginPatch{Top: f64Ptr(10)},
	}

	once := ResolveStyle(patch)
	twice := ResolveStyle(patch, patch)

	if once != twice {
		t.Fatalf("applying the same patch twice changed the result: %+v vs %+v", once, twice)
	}
}

func TestFormatDateRange(t *testing.T) {
	cases := []struct {
		start, end string
		current    bool
		want       string
	}{
		{"2020-01", "2022-06", false, "2020-01 – 2022-06"},
		{"2020-01", "", true, "2020-01 – Present"},
		{"2020-01", "2022-06", true, "2020-01 – Present"},
		{"2020-01", "", false, "2020-01"},
		{"", "2022-06", false, "2022-06"},
		{"", "", false, ""},
	}
	for _, tc := range cases {
		if got := FormatDateRange(tc.start, tc.end, tc.current); got != tc.want {
			t.Errorf("FormatDateRange(%q, %q, %v) = %q, want %q", tc.start, tc.end, tc.current, got, tc.want)
		}
	}
}
