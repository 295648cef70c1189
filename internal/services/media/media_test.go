package media

import (
	"regexp"
	"strings"
	"testing"
)

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9/_-]+/[a-zA-Z0-9-]+-\d{13}-[a-f0-9]{8}(\.[a-zA-Z0-9]+)?$`)

func TestBuildKeySanitizesFilename(t *testing.T) {
	tests := []struct {
		filename string
		wantBase string
		wantExt  string
	}{
		{"Morning Aarti (final).mp4", "Morning-Aarti-final", ".mp4"},
		{"शिव आरती.mp4", "file", ".mp4"},
		{"..//..//etc/passwd", "passwd", ""},
		{"plain.mp4", "plain", ".mp4"},
		{"___.mp4", "file", ".mp4"},
	}

	for _, tt := range tests {
		key := BuildKey("god-idols", tt.filename)

		if !strings.HasPrefix(key, "god-idols/") {
			t.Errorf("BuildKey(%q) = %q, missing prefix", tt.filename, key)
		}
		if !strings.HasSuffix(key, tt.wantExt) {
			t.Errorf("BuildKey(%q) = %q, want extension %q", tt.filename, key, tt.wantExt)
		}
		if !keyPattern.MatchString(key) {
			t.Errorf("BuildKey(%q) = %q does not match the key shape", tt.filename, key)
		}
		rest := strings.TrimPrefix(key, "god-idols/")
		if !strings.HasPrefix(rest, tt.wantBase+"-") {
			t.Errorf("BuildKey(%q) = %q, want basename %q", tt.filename, key, tt.wantBase)
		}
	}
}

func TestBuildKeyIsCollisionSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := BuildKey("splash", "intro.mp4")
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestBuildKeyTrimsTrailingSlashOnPrefix(t *testing.T) {
	key := BuildKey("animations/lighting_lamp/", "diya.mp4")
	if strings.Contains(key, "//") {
		t.Errorf("key contains a double slash: %s", key)
	}
}

func TestBuildSetPrefixIsCollisionSafe(t *testing.T) {
	a := BuildSetPrefix("animations/flower_showers")
	b := BuildSetPrefix("animations/flower_showers")
	if a == b {
		t.Errorf("set prefixes must not collide: %s", a)
	}
	if !strings.HasPrefix(a, "animations/flower_showers/") {
		t.Errorf("unexpected set prefix %s", a)
	}
}
