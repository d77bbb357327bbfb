package style

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Modifier names understood in style strings
const (
	Bold          = "bold"
	Italics       = "italics"
	Underline     = "underline"
	Blink         = "blink"
	Strikethrough = "strikethrough"
	Standout      = "standout"
)

var modifierAliases = map[string]string{
	Bold:          Bold,
	Italics:       Italics,
	"italic":      Italics,
	Underline:     Underline,
	Blink:         Blink,
	Strikethrough: Strikethrough,
	Standout:      Standout,
	"reverse":     Standout,
}

// Link carries hyperlink metadata alongside a style
type Link struct {
	URL   string
	Title string
}

// Spec is an immutable foreground/background pair. Each side is a comma
// separated list of one color and any number of modifiers, e.g.
// "#f30,bold,italics".
type Spec struct {
	Foreground string
	Background string
	Link       *Link
}

// New creates a spec from foreground and background strings
func New(fg, bg string) Spec {
	return Spec{Foreground: fg, Background: bg}
}

// IsZero reports whether the Spec carries no style at all
func (s Spec) IsZero() bool {
	return s.Foreground == "" && s.Background == "" && s.Link == nil
}

// WithLink returns a copy of the Spec pointing at a link
func (s Spec) WithLink(url, title string) Spec {
	s.Link = &Link{URL: url, Title: title}
	return s
}

// Split separates a style string into its color and sorted modifiers
func Split(value string) (string, []string) {
	color := ""
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if mod, ok := modifierAliases[strings.ToLower(part)]; ok {
			seen[mod] = true
			continue
		}
		color = part
	}
	mods := make([]string, 0, len(seen))
	for mod := range seen {
		mods = append(mods, mod)
	}
	sort.Strings(mods)
	return color, mods
}

func join(color string, mods []string) string {
	parts := make([]string, 0, len(mods)+1)
	if color != "" {
		parts = append(parts, color)
	}
	parts = append(parts, mods...)
	return strings.Join(parts, ",")
}

// isDefault reports whether a color leaves the original color in place
func isDefault(color string) bool {
	return color == "" || color == "default"
}

func overwriteSide(orig, next string) string {
	origColor, origMods := Split(orig)
	nextColor, nextMods := Split(next)

	color := origColor
	if !isDefault(nextColor) {
		color = nextColor
	}

	union := make(map[string]bool, len(origMods)+len(nextMods))
	for _, m := range origMods {
		union[m] = true
	}
	for _, m := range nextMods {
		union[m] = true
	}
	mods := make([]string, 0, len(union))
	for m := range union {
		mods = append(mods, m)
	}
	sort.Strings(mods)
	return join(color, mods)
}

// Overwrite layers next on top of orig. Modifiers accumulate and a color
// only replaces the original when it is neither empty nor "default". Link
// metadata from next wins over orig.
func Overwrite(orig, next Spec) Spec {
	out := Spec{
		Foreground: overwriteSide(orig.Foreground, next.Foreground),
		Background: overwriteSide(orig.Background, next.Background),
		Link:       orig.Link,
	}
	if next.Link != nil {
		out.Link = next.Link
	}
	return out
}

// Fold overwrites each spec in order onto an empty spec
func Fold(specs ...Spec) Spec {
	var out Spec
	for _, s := range specs {
		out = Overwrite(out, s)
	}
	return out
}

// ============================================================================
// Terminal mapping
// ============================================================================

var namedColors = map[string]string{
	"black":         "0",
	"dark red":      "1",
	"red":           "1",
	"dark green":    "2",
	"green":         "2",
	"brown":         "3",
	"dark blue":     "4",
	"blue":          "4",
	"dark magenta":  "5",
	"magenta":       "5",
	"dark cyan":     "6",
	"cyan":          "6",
	"light gray":    "7",
	"light grey":    "7",
	"dark gray":     "8",
	"dark grey":     "8",
	"gray":          "8",
	"grey":          "8",
	"light red":     "9",
	"light green":   "10",
	"yellow":        "11",
	"light blue":    "12",
	"light magenta": "13",
	"light cyan":    "14",
	"white":         "15",
}

// terminalColor converts a color name into a lipgloss color. It accepts hex
// colors (#rgb and #rrggbb), 256 color indices with or without an "h"
// prefix and the basic 16 color names.
func terminalColor(c string) (lipgloss.Color, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	if isDefault(c) {
		return "", false
	}
	if strings.HasPrefix(c, "#") {
		hex := c[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return "", false
		}
		return lipgloss.Color("#" + hex), true
	}
	if strings.HasPrefix(c, "h") && isDigits(c[1:]) {
		return lipgloss.Color(c[1:]), true
	}
	if isDigits(c) {
		return lipgloss.Color(c), true
	}
	if code, ok := namedColors[c]; ok {
		return lipgloss.Color(code), true
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Lipgloss builds the terminal style for the Spec. Background modifiers are
// ignored since terminals only style the foreground.
func (s Spec) Lipgloss() lipgloss.Style {
	st := lipgloss.NewStyle()
	fg, mods := Split(s.Foreground)
	if c, ok := terminalColor(fg); ok {
		st = st.Foreground(c)
	}
	bg, _ := Split(s.Background)
	if c, ok := terminalColor(bg); ok {
		st = st.Background(c)
	}
	for _, m := range mods {
		switch m {
		case Bold:
			st = st.Bold(true)
		case Italics:
			st = st.Italic(true)
		case Underline:
			st = st.Underline(true)
		case Blink:
			st = st.Blink(true)
		case Strikethrough:
			st = st.Strikethrough(true)
		case Standout:
			st = st.Reverse(true)
		}
	}
	return st
}

// Render styles text with the Spec
func (s Spec) Render(text string) string {
	if s.Foreground == "" && s.Background == "" {
		return text
	}
	return s.Lipgloss().Render(text)
}
