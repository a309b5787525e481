// Package grid turns month bars into something to look at: a hue per color
// key and a plain or colored terminal rendering of the year.
package grid

import (
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	barSaturation = 0.8
	barLightness  = 0.55
)

// Hue maps a color key to a hue in [0, 360). The hash runs over UTF-16 code
// units with 32-bit wraparound, so it agrees with browser code computing
// the same thing over a JavaScript string.
func Hue(key string) int {
	var h uint32
	for _, cu := range utf16.Encode([]rune(key)) {
		h = h*31 + uint32(cu)
	}
	return int(h % 360)
}

// Color returns the bar color for key as a "#rrggbb" string.
func Color(key string) string {
	return colorful.Hsl(float64(Hue(key)), barSaturation, barLightness).Hex()
}
