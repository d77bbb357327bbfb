// Package tutorial builds the built-in presentation that walks through what
// mdslides can do. Each topic is a markdown file named NN_group_name.md.
package tutorial

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/gubarz/mdslides/internal/config"
	"gopkg.in/yaml.v3"
)

//go:embed topics/*.md
var topicFS embed.FS

var tagRe = regexp.MustCompile(`(?s)<TUTOR:([A-Z_]+)>(.*?)</TUTOR:([A-Z_]+)>\n?`)

// Topic is one tutorial slide
type Topic struct {
	Group string
	Name  string
	body  string
}

// Topics returns every topic in presentation order
func Topics() ([]Topic, error) {
	files, err := fs.Glob(topicFS, "topics/*.md")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	topics := make([]Topic, 0, len(files))
	for _, file := range files {
		parts := strings.SplitN(strings.TrimSuffix(path.Base(file), ".md"), "_", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("bad topic file name %q", file)
		}
		data, err := topicFS.ReadFile(file)
		if err != nil {
			return nil, err
		}
		topics = append(topics, Topic{Group: parts[1], Name: parts[2], body: string(data)})
	}
	return topics, nil
}

// Select returns the topics matching any of filters. A filter naming a group
// selects the whole group, otherwise it selects the topics whose name it
// matches. Matching is case insensitive in both directions, so "tab" and
// "tables" both find the tables topic. No filters selects everything.
func Select(topics []Topic, filters []string) []Topic {
	if len(filters) == 0 {
		return topics
	}
	var out []Topic
	seen := map[string]bool{}
	add := func(t Topic) {
		if key := t.Group + "/" + t.Name; !seen[key] {
			seen[key] = true
			out = append(out, t)
		}
	}
	for _, f := range filters {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		var group bool
		for _, t := range topics {
			if closeMatch(t.Group, f) {
				group = true
				add(t)
			}
		}
		if group {
			continue
		}
		for _, t := range topics {
			if closeMatch(t.Name, f) {
				add(t)
			}
		}
	}
	return out
}

func closeMatch(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Markdown renders topics into one presentation. STYLE tags show the styles
// section they name as it is currently configured.
func Markdown(topics []Topic, styles config.Styles) (string, error) {
	if len(topics) == 0 {
		return "", fmt.Errorf("no tutorial topics selected")
	}
	sections, err := styleSections(styles)
	if err != nil {
		return "", err
	}

	slides := make([]string, 0, len(topics)+1)
	for _, t := range topics {
		body, err := expand(t.body, sections)
		if err != nil {
			return "", fmt.Errorf("topic %s/%s: %w", t.Group, t.Name, err)
		}
		slides = append(slides, fmt.Sprintf("# %s: %s\n\n%s", title(t.Group), title(t.Name), strings.TrimSpace(body)))
	}
	slides = append(slides, "# End")

	return "---\ntitle: mdslides Tutorial\nauthor: mdslides\n---\n" +
		strings.Join(slides, "\n\n---\n\n") + "\n", nil
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// styleSections returns the top level keys of the styles as YAML sees them
func styleSections(styles config.Styles) (map[string]any, error) {
	data, err := yaml.Marshal(styles)
	if err != nil {
		return nil, err
	}
	var sections map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func expand(body string, sections map[string]any) (string, error) {
	var expandErr error
	out := tagRe.ReplaceAllStringFunc(body, func(tag string) string {
		m := tagRe.FindStringSubmatch(tag)
		if m[1] != m[3] {
			expandErr = fmt.Errorf("TUTOR:%s closed by TUTOR:%s", m[1], m[3])
			return tag
		}
		switch m[1] {
		case "EXAMPLE":
			return showAndRender(m[2])
		case "STYLE":
			s, err := styleYAML(strings.TrimSpace(m[2]), sections)
			if err != nil {
				expandErr = err
			}
			return s
		}
		expandErr = fmt.Errorf("no handler for TUTOR:%s tags", m[1])
		return tag
	})
	return out, expandErr
}

// showAndRender quotes the markdown source of an example above the example
// itself
func showAndRender(example string) string {
	example = strings.TrimSpace(example)
	quoted := "~~~markdown\n" + example + "\n~~~"
	lines := strings.Split(quoted, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("> "+l, " ")
	}
	return "***Markdown***:\n\n" + strings.Join(lines, "\n") +
		"\n\n***Rendered***:\n\n" + example + "\n"
}

func styleYAML(name string, sections map[string]any) (string, error) {
	section, ok := sections[name]
	if !ok {
		return "", fmt.Errorf("unknown style section %q", name)
	}
	data, err := yaml.Marshal(map[string]any{"styles": map[string]any{name: section}})
	if err != nil {
		return "", err
	}
	return "```yaml\n---\n" + string(data) + "---\n```\n", nil
}
