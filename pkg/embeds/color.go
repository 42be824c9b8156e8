package embeds

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	rgbPattern   = regexp.MustCompile(`(?i)^rgb\((\d{1,3}),\s*(\d{1,3}),\s*(\d{1,3})\)$`)
	tuplePattern = regexp.MustCompile(`^\(?\s*(\d{1,3}),\s*(\d{1,3}),\s*(\d{1,3})\s*\)?$`)
)

var namedColors = map[string]int{
	"default":    0x000000,
	"teal":       0x1abc9c,
	"dark_teal":  0x11806a,
	"green":      0x2ecc71,
	"dark_green": 0x1f8b4c,
	"blue":       0x3498db,
	"dark_blue":  0x206694,
	"purple":     0x9b59b6,
	"magenta":    0xe91e63,
	"gold":       0xf1c40f,
	"orange":     0xe67e22,
	"red":        0xe74c3c,
	"dark_red":   0x992d22,
	"grey":       0x95a5a6,
	"gray":       0x95a5a6,
	"dark_grey":  0x607d8b,
	"dark_gray":  0x607d8b,
	"blurple":    0x5865f2,
	"og_blurple": 0x7289da,
	"greyple":    0x99aab5,
	"yellow":     0xfee75c,
	"fuchsia":    0xeb459e,
	"pink":       0xeb459f,
	"white":      0xffffff,
	"black":      0x000000,
}

// ParseColor accepts #rrggbb, 0xrrggbb, rgb(r, g, b), (r, g, b), a decimal
// value or a color name.
func ParseColor(value string) (int, error) {
	v := strings.TrimSpace(value)
	invalid := NewValidationError("color", fmt.Sprintf("Invalid color format: `%s`", value))

	switch {
	case v == "":
		return 0, invalid
	case strings.HasPrefix(v, "#"):
		return parseHexColor(v[1:], invalid)
	case strings.HasPrefix(strings.ToLower(v), "0x"):
		return parseHexColor(v[2:], invalid)
	}

	for _, re := range []*regexp.Regexp{rgbPattern, tuplePattern} {
		if m := re.FindStringSubmatch(v); m != nil {
			return rgbColor(m[1:], invalid)
		}
	}

	if n, err := strconv.ParseUint(v, 10, 32); err == nil {
		if n > 0xffffff {
			return 0, invalid
		}
		return int(n), nil
	}

	if c, ok := namedColors[strings.ReplaceAll(strings.ToLower(v), " ", "_")]; ok {
		return c, nil
	}
	return 0, invalid
}

func parseHexColor(s string, invalid error) (int, error) {
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil || n > 0xffffff {
		return 0, invalid
	}
	return int(n), nil
}

func rgbColor(parts []string, invalid error) (int, error) {
	c := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return 0, invalid
		}
		c = c<<8 | n
	}
	return c, nil
}

// FormatColor renders a color as #rrggbb.
func FormatColor(c int) string {
	return fmt.Sprintf("#%06x", c&0xffffff)
}
