// Package language holds the closed catalog of languages the assistant
// speaks. A catalog is built once at startup and never mutated.
package language

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultCode is the fallback language for unknown or empty codes.
const DefaultCode = "en"

// Errors returned by New.
var (
	ErrEmptyCatalog   = errors.New("language: catalog is empty")
	ErrMissingDefault = errors.New("language: catalog has no default language")
)

// Language describes one supported language.
type Language struct {
	// Code is the short ISO 639-1 code, e.g. "hi".
	Code string `yaml:"code" json:"code"`

	// Name is the display name shown to users.
	Name string `yaml:"name" json:"name"`

	// Locale is the regional tag used by speech services, e.g. "hi-IN".
	Locale string `yaml:"locale" json:"locale"`

	// Voice is the neural voice used by the streaming synthesizer.
	Voice string `yaml:"voice" json:"voice"`
}

// Builtin is the stock set of Indian languages plus English.
var Builtin = []Language{
	{Code: "hi", Name: "Hindi", Voice: "hi-IN-SwaraNeural"},
	{Code: "te", Name: "Telugu", Voice: "te-IN-ShrutiNeural"},
	{Code: "ta", Name: "Tamil", Voice: "ta-IN-PallaviNeural"},
	{Code: "bn", Name: "Bengali", Voice: "bn-IN-TanishaaNeural"},
	{Code: "mr", Name: "Marathi", Voice: "mr-IN-AarohiNeural"},
	{Code: "ml", Name: "Malayalam", Voice: "ml-IN-SobhanaNeural"},
	{Code: "kn", Name: "Kannada", Voice: "kn-IN-SapnaNeural"},
	{Code: "en", Name: "English", Voice: "en-IN-NeerjaNeural"},
}

// Catalog maps language codes to languages.
type Catalog struct {
	byCode      map[string]Language
	codes       []string
	defaultCode string
}

// New builds a catalog from entries. Codes are lower-cased, a missing
// locale becomes "<code>-IN", and the entry for defaultCode must exist.
func New(entries []Language, defaultCode string) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}
	if defaultCode == "" {
		defaultCode = DefaultCode
	}

	c := &Catalog{
		byCode:      make(map[string]Language, len(entries)),
		defaultCode: defaultCode,
	}
	for _, l := range entries {
		l.Code = normalize(l.Code)
		if l.Code == "" {
			return nil, fmt.Errorf("language: entry %q has no code", l.Name)
		}
		if _, dup := c.byCode[l.Code]; dup {
			return nil, fmt.Errorf("language: duplicate code %q", l.Code)
		}
		if l.Name == "" {
			l.Name = l.Code
		}
		if l.Locale == "" {
			l.Locale = l.Code + "-IN"
		}
		c.byCode[l.Code] = l
		c.codes = append(c.codes, l.Code)
	}
	if _, ok := c.byCode[defaultCode]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingDefault, defaultCode)
	}
	sort.Strings(c.codes)
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(Builtin, DefaultCode)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the language for code and whether it is in the catalog.
func (c *Catalog) Lookup(code string) (Language, bool) {
	l, ok := c.byCode[normalize(code)]
	return l, ok
}

// Resolve returns the language for code, or the default language when the
// code is unknown or empty.
func (c *Catalog) Resolve(code string) Language {
	if l, ok := c.Lookup(code); ok {
		return l
	}
	return c.byCode[c.defaultCode]
}

// DefaultLanguage returns the fallback language.
func (c *Catalog) DefaultLanguage() Language {
	return c.byCode[c.defaultCode]
}

// Names returns a fresh code -> display name map.
func (c *Catalog) Names() map[string]string {
	names := make(map[string]string, len(c.byCode))
	for code, l := range c.byCode {
		names[code] = l.Name
	}
	return names
}

// Codes returns the sorted language codes.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Languages returns all entries sorted by code.
func (c *Catalog) Languages() []Language {
	out := make([]Language, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.byCode[code])
	}
	return out
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
