package textclean_test

import (
	"testing"

	"github.com/teslashibe/go-sahayak/pkg/textclean"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Move to higher ground.", "Move to higher ground."},
		{"bullets", "• Stay calm\n* Call 112", "Stay calm\n Call 112"},
		{"arrows and dashes", "Go → exit – now — fast ▶", "Go  exit  now  fast"},
		{"emoji", "🚨 Flood warning 🔥✅", "Flood warning"},
		{"variation selector", "🎙️ Speak", "Speak"},
		{"zwj sequence", "👨‍👩‍👧 family", "family"},
		{"dingbat", "✔ done ☎", "done"},
		{"hyphen", "well-being", "wellbeing"},
		{"plus", "1+1", "11"},
		{"hindi untouched", "  सुरक्षित रहें 📢 ", "सुरक्षित रहें"},
		{"tamil untouched", "பாதுகாப்பாக இருங்கள்", "பாதுகாப்பாக இருங்கள்"},
		{"only symbols", " • → 🚨 ", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textclean.Clean(tt.in)
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if textclean.Contains(got) {
				t.Errorf("Clean(%q) still contains decorative symbols: %q", tt.in, got)
			}
			if again := textclean.Clean(got); again != got {
				t.Errorf("Clean not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSymbolsAreDecorative(t *testing.T) {
	for _, r := range textclean.Symbols {
		if !textclean.IsDecorative(r) {
			t.Errorf("%U not reported as decorative", r)
		}
	}
}

func TestContains(t *testing.T) {
	if textclean.Contains("hello") {
		t.Error("plain text should not contain symbols")
	}
	if !textclean.Contains("hello 💡") {
		t.Error("expected symbol to be detected")
	}
}
