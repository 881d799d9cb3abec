package wildcard

import "testing"

func TestCompileSemantics(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*Raiden*", "RaidenShogunSkin.zip", true},
		{"*Raiden*", "raiden.7z", true}, // case-insensitive
		{"*Raiden*", "Rai_den.zip", false},
		{"Raiden", "RaidenShogun", false}, // anchored
		{"Raiden", "Raiden", true},
		{"?aiden", "Raiden", true},
		{"?aiden", "Raaiden", false}, // ? is exactly one
		{"*.zip", "mod.zip", true},
		{"*.zip", "mod.zip.bak", false},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "acb", false},
	}
	for _, tc := range cases {
		re, err := Compile(tc.pattern)
		if err != nil {
			t.Fatalf("Compile(%q) failed: %v", tc.pattern, err)
		}
		if got := re.MatchString(tc.name); got != tc.want {
			t.Errorf("pattern %q against %q: expected %v, got %v", tc.pattern, tc.name, tc.want, got)
		}
	}
}

func TestCompileQuotesRegexpMeta(t *testing.T) {
	re, err := Compile("mod(v2)+.zip")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !re.MatchString("mod(v2)+.zip") {
		t.Error("literal metacharacters must match themselves")
	}
	if re.MatchString("modv2v2X.zip") {
		t.Error("metacharacters must not keep regexp meaning")
	}
}

func TestCompileRejectsEmptyPattern(t *testing.T) {
	if _, err := Compile("   "); err == nil {
		t.Error("expected error for blank pattern")
	}
}
