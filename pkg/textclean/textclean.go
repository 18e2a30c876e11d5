// Package textclean strips decorative symbols from model output before it is
// handed to a speech synthesizer.
package textclean

import (
	"strings"
	"unicode"
)

// Symbols is the explicit set of decorative characters removed from text:
// list bullets, arrows, dashes and the emoji models like to sprinkle into
// emergency advice.
var Symbols = []rune{
	'•', '*', '+', '→', '-', '–', '—', '▶',
	'\uFE0F', // variation selector-16
	'\u200D', // zero width joiner
	'🌐', '🎙', '📍', '🚨', '🔈', '💡', '❗', '✅', '🔍', '📝', '📢', '🔥',
}

// pictographs are removed wholesale.
var pictographs = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2600, Hi: 0x27BF, Stride: 1}, // misc symbols, dingbats
	},
	R32: []unicode.Range32{
		{Lo: 0x1F300, Hi: 0x1FAFF, Stride: 1}, // pictographs, emoticons, transport, supplemental
	},
}

var symbolSet = func() map[rune]struct{} {
	m := make(map[rune]struct{}, len(Symbols))
	for _, r := range Symbols {
		m[r] = struct{}{}
	}
	return m
}()

// IsDecorative reports whether r is removed by Clean.
func IsDecorative(r rune) bool {
	if _, ok := symbolSet[r]; ok {
		return true
	}
	return unicode.Is(pictographs, r)
}

// Clean removes every decorative symbol and trims surrounding whitespace.
// Clean(Clean(s)) == Clean(s) for every s.
func Clean(text string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if IsDecorative(r) {
			return -1
		}
		return r
	}, text))
}

// Contains reports whether text holds any decorative symbol.
func Contains(text string) bool {
	return strings.IndexFunc(text, IsDecorative) >= 0
}
