package language_test

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-sahayak/pkg/language"
)

func TestDefault(t *testing.T) {
	c := language.Default()

	names := c.Names()
	if len(names) != len(language.Builtin) {
		t.Errorf("Names() has %d entries, want %d", len(names), len(language.Builtin))
	}
	if names["en"] != "English" {
		t.Errorf("names[en] = %q, want English", names["en"])
	}
	if names["hi"] != "Hindi" {
		t.Errorf("names[hi] = %q, want Hindi", names["hi"])
	}
}

func TestCatalog_Resolve(t *testing.T) {
	c := language.Default()

	tests := []struct {
		code       string
		wantCode   string
		wantLocale string
		wantVoice  string
	}{
		{"hi", "hi", "hi-IN", "hi-IN-SwaraNeural"},
		{" TA ", "ta", "ta-IN", "ta-IN-PallaviNeural"},
		{"en", "en", "en-IN", "en-IN-NeerjaNeural"},
		{"xx", "en", "en-IN", "en-IN-NeerjaNeural"},
		{"", "en", "en-IN", "en-IN-NeerjaNeural"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			l := c.Resolve(tt.code)
			if l.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", l.Code, tt.wantCode)
			}
			if l.Locale != tt.wantLocale {
				t.Errorf("Locale = %q, want %q", l.Locale, tt.wantLocale)
			}
			if l.Voice != tt.wantVoice {
				t.Errorf("Voice = %q, want %q", l.Voice, tt.wantVoice)
			}
		})
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := language.Default()
	if _, ok := c.Lookup("kn"); !ok {
		t.Error("kn should be in the catalog")
	}
	if _, ok := c.Lookup("fr"); ok {
		t.Error("fr should not be in the catalog")
	}
}

func TestCatalog_Codes(t *testing.T) {
	c := language.Default()
	codes := c.Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}

	// Mutating the returned slice must not leak into the catalog.
	codes[0] = "zz"
	if c.Codes()[0] == "zz" {
		t.Error("Codes() returned internal slice")
	}
}

func TestNew(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, err := language.New(nil, ""); !errors.Is(err, language.ErrEmptyCatalog) {
			t.Errorf("err = %v, want ErrEmptyCatalog", err)
		}
	})

	t.Run("missing default", func(t *testing.T) {
		_, err := language.New([]language.Language{{Code: "hi", Name: "Hindi"}}, "en")
		if !errors.Is(err, language.ErrMissingDefault) {
			t.Errorf("err = %v, want ErrMissingDefault", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := language.New([]language.Language{{Code: "en"}, {Code: "EN"}}, "en")
		if err == nil {
			t.Error("expected duplicate code error")
		}
	})

	t.Run("fills locale", func(t *testing.T) {
		c, err := language.New([]language.Language{{Code: "gu", Name: "Gujarati"}, {Code: "en", Locale: "en-US"}}, "en")
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if got := c.Resolve("gu").Locale; got != "gu-IN" {
			t.Errorf("gu locale = %q, want gu-IN", got)
		}
		if got := c.Resolve("en").Locale; got != "en-US" {
			t.Errorf("en locale = %q, want en-US", got)
		}
	})
}
