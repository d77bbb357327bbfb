package config

import (
	"fmt"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// StyleDef is a foreground/background style pair, e.g. fg "#f30,bold"
type StyleDef struct {
	Fg string `yaml:"fg"`
	Bg string `yaml:"bg"`
}

// Spacing is used for margins and paddings
type Spacing struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// HeadingStyle styles one heading level
type HeadingStyle struct {
	Fg     string `yaml:"fg"`
	Bg     string `yaml:"bg"`
	Prefix string `yaml:"prefix"`
	Suffix string `yaml:"suffix"`
}

// TableStyle styles tables
type TableStyle struct {
	ColumnSpacing int      `yaml:"column_spacing"`
	HeaderDivider string   `yaml:"header_divider"`
	Style         StyleDef `yaml:"style"`
}

// QuoteStyle styles block quotes
type QuoteStyle struct {
	Style        StyleDef `yaml:"style"`
	Side         string   `yaml:"side"`
	TopCorner    string   `yaml:"top_corner"`
	BottomCorner string   `yaml:"bottom_corner"`
}

// HruleStyle styles horizontal rules
type HruleStyle struct {
	Char  string   `yaml:"char"`
	Style StyleDef `yaml:"style"`
}

// Styles is the complete set of presentation styles. It is built once per
// load from a theme and the front matter overrides.
type Styles struct {
	Style      string                  `yaml:"style"` // syntax highlighting style
	Title      StyleDef                `yaml:"title"`
	Author     StyleDef                `yaml:"author"`
	Date       StyleDef                `yaml:"date"`
	Slides     StyleDef                `yaml:"slides"`
	Margin     Spacing                 `yaml:"margin"`
	Padding    Spacing                 `yaml:"padding"`
	Headings   map[string]HeadingStyle `yaml:"headings"`
	Bullets    map[string]string       `yaml:"bullets"`
	Numbering  map[string]string       `yaml:"numbering"`
	Table      TableStyle              `yaml:"table"`
	Quote      QuoteStyle              `yaml:"quote"`
	Hrule      HruleStyle              `yaml:"hrule"`
	Link       StyleDef                `yaml:"link"`
	CodeInline StyleDef                `yaml:"code_inline"`
}

// Heading returns the style for a heading level, falling back to "default"
func (s Styles) Heading(level int) HeadingStyle {
	if h, ok := s.Headings[strconv.Itoa(level)]; ok {
		return h
	}
	return s.Headings["default"]
}

// Bullet returns the bullet character for a list nesting level
func (s Styles) Bullet(level int) string {
	if b, ok := s.Bullets[strconv.Itoa(level)]; ok {
		return b
	}
	if b, ok := s.Bullets["default"]; ok {
		return b
	}
	return "-"
}

// NumberingStyle returns numeric, alpha or roman for a list nesting level
func (s Styles) NumberingStyle(level int) string {
	if n, ok := s.Numbering[strconv.Itoa(level)]; ok {
		return n
	}
	if n, ok := s.Numbering["default"]; ok {
		return n
	}
	return "numeric"
}

// ============================================================================
// Themes
// ============================================================================

// DarkTheme returns the default styles
func DarkTheme() Styles {
	return Styles{
		Style:   "monokai",
		Title:   StyleDef{Fg: "#f30,bold,italics"},
		Author:  StyleDef{Fg: "#f30"},
		Date:    StyleDef{Fg: "#777"},
		Slides:  StyleDef{Fg: "#f30,bold"},
		Margin:  Spacing{Left: 2, Right: 2},
		Padding: Spacing{Left: 10, Right: 10},
		Headings: map[string]HeadingStyle{
			"1":       {Fg: "#9fc,bold", Prefix: "██ "},
			"2":       {Fg: "#1cc,bold", Prefix: "▓▓▓ "},
			"3":       {Fg: "#29c,bold", Prefix: "▒▒▒▒ "},
			"4":       {Fg: "#559,bold", Prefix: "░░░░░ "},
			"default": {Fg: "#346,bold", Prefix: "░░░░░ "},
		},
		Bullets: map[string]string{
			"1":       "•",
			"2":       "⁃",
			"3":       "◦",
			"default": "•",
		},
		Numbering: map[string]string{
			"1":       "numeric",
			"2":       "alpha",
			"3":       "roman",
			"default": "numeric",
		},
		Table: TableStyle{
			ColumnSpacing: 3,
			HeaderDivider: "─",
			Style:         StyleDef{Fg: "bold"},
		},
		Quote: QuoteStyle{
			Style:        StyleDef{Fg: "italics,#aaa"},
			Side:         "╎",
			TopCorner:    "┌",
			BottomCorner: "└",
		},
		Hrule:      HruleStyle{Char: "─", Style: StyleDef{Fg: "#777"}},
		Link:       StyleDef{Fg: "#33c,underline"},
		CodeInline: StyleDef{Fg: "#f92", Bg: "#222"},
	}
}

// LightTheme returns styles for light terminal backgrounds
func LightTheme() Styles {
	s := DarkTheme()
	s.Style = "friendly"
	s.Title = StyleDef{Fg: "#c20,bold,italics"}
	s.Author = StyleDef{Fg: "#c20"}
	s.Date = StyleDef{Fg: "#555"}
	s.Slides = StyleDef{Fg: "#c20,bold"}
	s.Headings = map[string]HeadingStyle{
		"1":       {Fg: "#063,bold", Prefix: "██ "},
		"2":       {Fg: "#066,bold", Prefix: "▓▓▓ "},
		"3":       {Fg: "#036,bold", Prefix: "▒▒▒▒ "},
		"4":       {Fg: "#335,bold", Prefix: "░░░░░ "},
		"default": {Fg: "#123,bold", Prefix: "░░░░░ "},
	}
	s.Quote.Style = StyleDef{Fg: "italics,#555"}
	s.Hrule.Style = StyleDef{Fg: "#999"}
	s.Link = StyleDef{Fg: "#22a,underline"}
	s.CodeInline = StyleDef{Fg: "#a40", Bg: "#eee"}
	return s
}

// Theme returns the named theme
func Theme(name string) (Styles, error) {
	switch name {
	case "", "dark":
		return DarkTheme(), nil
	case "light":
		return LightTheme(), nil
	}
	return Styles{}, fmt.Errorf("unknown theme %q", name)
}

// ============================================================================
// Overrides
// ============================================================================

// Merge deep-merges overrides, as found in front matter, into a copy of the
// styles. Nested keys only replace the values they name.
func (s Styles) Merge(overrides map[string]any) (Styles, error) {
	if len(overrides) == 0 {
		return s, nil
	}

	raw, err := yaml.Marshal(s)
	if err != nil {
		return s, fmt.Errorf("failed to encode styles: %w", err)
	}
	base := map[string]any{}
	if err := yaml.Unmarshal(raw, &base); err != nil {
		return s, fmt.Errorf("failed to decode styles: %w", err)
	}

	merged := deepUpdate(base, normalize(overrides).(map[string]any))

	var out Styles
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return s, err
	}
	if err := decoder.Decode(merged); err != nil {
		return s, fmt.Errorf("invalid style overrides: %w", err)
	}
	return out, nil
}

// deepUpdate merges src into dst recursively and returns dst
func deepUpdate(dst, src map[string]any) map[string]any {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[k] = deepUpdate(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
	return dst
}

// normalize converts YAML maps with non-string keys, such as heading
// levels written as bare integers, into string keyed maps
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
