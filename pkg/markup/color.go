package markup

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// namedColors are the color names accepted by [c=name] and [color=name].
//
//nolint:gochecknoglobals // Read-only lookup table.
var namedColors = map[string]string{
	"black":     "#000000",
	"white":     "#ffffff",
	"red":       "#ff0000",
	"green":     "#008000",
	"blue":      "#0000ff",
	"yellow":    "#ffff00",
	"cyan":      "#00ffff",
	"aqua":      "#00ffff",
	"magenta":   "#ff00ff",
	"fuchsia":   "#ff00ff",
	"gray":      "#808080",
	"grey":      "#808080",
	"darkgray":  "#444444",
	"lightgray": "#cccccc",
	"orange":    "#ffa500",
	"purple":    "#800080",
	"pink":      "#ffc0cb",
	"brown":     "#a52a2a",
	"navy":      "#000080",
	"teal":      "#008080",
	"olive":     "#808000",
	"maroon":    "#800000",
	"lime":      "#00ff00",
	"silver":    "#c0c0c0",
	"gold":      "#ffd700",
	"skyblue":   "#87ceeb",
	"royalblue": "#4169e1",
	"crimson":   "#dc143c",
}

// ParseColor parses a color name or a #rgb / #rrggbb / #aarrggbb hex value.
// The alpha channel of the 8-digit form is ignored.
func ParseColor(value string) (RGB, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return RGB{}, false
	}

	if hex, ok := namedColors[value]; ok {
		value = hex
	}

	if !strings.HasPrefix(value, "#") {
		return RGB{}, false
	}
	if len(value) == len("#aarrggbb") {
		value = "#" + value[3:]
	}

	c, err := colorful.Hex(value)
	if err != nil {
		return RGB{}, false
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, true
}
