package parser

import (
	"regexp"
)

// Slide is one screen of a presentation
type Slide struct {
	Tokens []*Token
	Number int
}

// Title returns the plain text of the first heading on the slide
func (s *Slide) Title() string {
	for i, t := range s.Tokens {
		if t.Type == HeadingOpen && i+1 < len(s.Tokens) && s.Tokens[i+1].Type == Inline {
			return s.Tokens[i+1].PlainText()
		}
	}
	return ""
}

// defaultSplitLevel is used when a document has no headings left after
// title promotion
const defaultSplitLevel = 10

var stopMarker = regexp.MustCompile(`^\s*<!--\s*stop\s*-->\s*$`)

// SplitInfo records how a document was divided into slides
type SplitInfo struct {
	Rules         int
	HeadingCounts map[int]int
	Title         string
	TitleLevel    int
	SplitLevel    int
}

// IsStopMarker reports whether a token is a progressive reveal marker
func IsStopMarker(t *Token) bool {
	if t.Type != HTMLBlock && t.Type != HTMLInline {
		return false
	}
	return stopMarker.MatchString(t.Content)
}

// headingScan is the result of scanning top-level tokens for split hints
type headingScan struct {
	rules      int
	counts     map[int]int
	first      *Token
	firstTitle string
}

// scanForSplitPolicy counts top-level rules and headings per level and
// remembers the first heading
func scanForSplitPolicy(tokens []*Token) headingScan {
	scan := headingScan{counts: make(map[int]int)}
	depth := 0
	for i, t := range tokens {
		if depth == 0 {
			switch t.Type {
			case HorizontalRule:
				scan.rules++
			case HeadingOpen:
				scan.counts[t.HeadingLevel()]++
				if scan.first == nil {
					scan.first = t
					if i+1 < len(tokens) && tokens[i+1].Type == Inline {
						scan.firstTitle = tokens[i+1].PlainText()
					}
				}
			}
		}
		depth += depthDelta(t)
	}
	return scan
}

// Split divides a document token stream into slides. In single slide mode
// every token lands on one slide. Otherwise documents with horizontal rules
// split on the rules and documents without split on their highest heading
// level below the title. Each resulting slide is then expanded into one
// slide per progressive reveal step.
func Split(tokens []*Token, singleSlide bool) ([]*Slide, SplitInfo) {
	tokens = CloneTokens(tokens)
	if singleSlide {
		return []*Slide{{Tokens: tokens, Number: 0}}, SplitInfo{}
	}

	scan := scanForSplitPolicy(tokens)
	info := SplitInfo{Rules: scan.rules, HeadingCounts: scan.counts}

	var groups [][]*Token
	if scan.rules > 0 {
		groups = splitOnRules(tokens)
	} else {
		counts := make(map[int]int, len(scan.counts))
		for lvl, n := range scan.counts {
			counts[lvl] = n
		}
		if scan.first != nil && counts[scan.first.HeadingLevel()] == 1 {
			info.Title = scan.firstTitle
			delete(counts, scan.first.HeadingLevel())
		}
		low := defaultSplitLevel
		for lvl := range counts {
			if lvl < low {
				low = lvl
			}
		}
		info.SplitLevel = low
		info.TitleLevel = low - 1
		groups = splitOnHeadings(tokens, low, info.TitleLevel)
		// the promoted title is shown in the header, not as a slide of its own
		if info.Title != "" && len(groups) > 1 && titleOnly(groups[0], scan.first) {
			groups = groups[1:]
		}
	}

	var slides []*Slide
	for _, group := range groups {
		for _, step := range splitProgressive(group) {
			slides = append(slides, &Slide{Tokens: step, Number: len(slides)})
		}
	}
	return slides, info
}

// titleOnly reports whether group holds nothing but the heading opened by
// title
func titleOnly(group []*Token, title *Token) bool {
	return len(group) == 3 &&
		group[0] == title &&
		group[1].Type == Inline &&
		group[2].Type == HeadingClose
}

func splitOnRules(tokens []*Token) [][]*Token {
	var groups [][]*Token
	curr := []*Token{}
	depth := 0
	for _, t := range tokens {
		if depth == 0 && t.Type == HorizontalRule {
			groups = append(groups, curr)
			curr = []*Token{}
			continue
		}
		depth += depthDelta(t)
		curr = append(curr, t)
	}
	return append(groups, curr)
}

func splitOnHeadings(tokens []*Token, splitLevel, titleLevel int) [][]*Token {
	var groups [][]*Token
	curr := []*Token{}
	depth := 0
	for _, t := range tokens {
		split := depth == 0 && t.Type == HeadingOpen && t.HeadingLevel() == splitLevel
		depth += depthDelta(t)
		if t.Type == HeadingOpen || t.Type == HeadingClose {
			t.SetHeadingLevel(max(t.HeadingLevel()-titleLevel, 1))
		}
		if split {
			// a split heading at the very top must not produce an empty slide
			if len(groups) > 0 || len(curr) > 0 {
				groups = append(groups, curr)
			}
			curr = []*Token{t}
			continue
		}
		curr = append(curr, t)
	}
	return append(groups, curr)
}

func depthDelta(t *Token) int {
	switch {
	case t.Type.IsOpen():
		return 1
	case t.Type.IsClose():
		return -1
	}
	return 0
}

// splitProgressive expands one slide's tokens into a slide per reveal step.
// Every stop marker emits a snapshot of everything seen so far, inline
// parents included with only the children that precede the marker. The
// remainder becomes a final slide unless it equals the last snapshot.
func splitProgressive(tokens []*Token) [][]*Token {
	var steps [][]*Token
	acc := []*Token{}

	for _, t := range tokens {
		if IsStopMarker(t) {
			steps = append(steps, CloneTokens(acc))
			continue
		}
		if len(t.Children) == 0 {
			acc = append(acc, t.Clone())
			continue
		}

		parent := t.ShallowClone()
		parent.Children = []*Token{}
		acc = append(acc, parent)
		for _, child := range t.Children {
			if IsStopMarker(child) {
				steps = append(steps, CloneTokens(acc))
				continue
			}
			parent.Children = append(parent.Children, child.Clone())
		}
	}

	if len(steps) == 0 || !TokensEqual(steps[len(steps)-1], acc) {
		steps = append(steps, acc)
	}
	return steps
}
