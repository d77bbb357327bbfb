package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Meta holds the presentation front matter
type Meta struct {
	Title      string         `yaml:"title"`
	Author     string         `yaml:"author"`
	Date       string         `yaml:"date"`
	Styles     map[string]any `yaml:"styles"`
	Extensions []string       `yaml:"extensions"`
}

var metaMarker = regexp.MustCompile(`^---+$`)

// DefaultMeta returns front matter with every field defaulted
func DefaultMeta() Meta {
	return Meta{
		Date:   time.Now().Format("2006-01-02"),
		Styles: map[string]any{},
	}
}

// ParseMeta splits leading YAML front matter off the input. It returns the
// remaining body, the number of lines consumed before the body and the
// decoded meta. Input without a leading --- marker is returned untouched.
func ParseMeta(input string) (string, int, Meta, error) {
	meta := DefaultMeta()
	lines := strings.Split(input, "\n")

	first := -1
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if metaMarker.MatchString(stripped) {
			first = i
		}
		break
	}
	if first < 0 {
		return input, 0, meta, nil
	}

	end := -1
	for i := first + 1; i < len(lines); i++ {
		if metaMarker.MatchString(strings.TrimSpace(lines[i])) {
			end = i
			break
		}
	}
	if end < 0 {
		return input, 0, meta, nil
	}

	body := strings.Join(lines[end+1:], "\n")
	yamlData := strings.Join(lines[first+1:end], "\n")
	if strings.TrimSpace(yamlData) == "" {
		return body, end + 1, meta, nil
	}

	if err := yaml.Unmarshal([]byte(yamlData), &meta); err != nil {
		return "", 0, meta, fmt.Errorf("invalid front matter: %w", err)
	}
	if meta.Date == "" {
		meta.Date = time.Now().Format("2006-01-02")
	}
	if meta.Styles == nil {
		meta.Styles = map[string]any{}
	}
	return body, end + 1, meta, nil
}
