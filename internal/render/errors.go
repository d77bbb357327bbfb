package render

import (
	"fmt"
	"strings"

	"github.com/gubarz/mdslides/internal/parser"
	"github.com/pkg/errors"
)

var (
	ErrNoContainer    = errors.New("no container on the stack")
	ErrNoTokens       = errors.New("no token iterator on the stack")
	ErrStackUnderflow = errors.New("stack popped more often than pushed")
)

// StructuralError reports markdown the renderer cannot lay out, or render
// state left unbalanced at the end of a pass
type StructuralError struct {
	Msg   string
	Token *parser.Token

	// Excerpt is the source around the offending token
	Excerpt string
	// UnwoundExcerpt is the source around the token a synthesized close
	// token was generated for
	UnwoundExcerpt string
}

func (e *StructuralError) Error() string {
	return e.Msg
}

// Details returns the message together with any source excerpts
func (e *StructuralError) Details() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)
	if e.Excerpt != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Excerpt)
	}
	if e.UnwoundExcerpt != "" {
		sb.WriteString("\n\nwhile closing the token opened here:\n\n")
		sb.WriteString(e.UnwoundExcerpt)
	}
	return sb.String()
}

// structural creates a StructuralError carrying a stack trace
func structural(tok *parser.Token, format string, args ...any) error {
	return errors.WithStack(&StructuralError{
		Msg:   fmt.Sprintf(format, args...),
		Token: tok,
	})
}

// excerptMarker points at the offending line of an excerpt
const excerptMarker = "HERE→ "

// diagnosticLines is how much source surrounds an excerpt on each side
const diagnosticLines = 3

// formatExcerpt renders the source lines around r. lineOffset is added to
// the displayed line numbers.
func formatExcerpt(source []string, r *parser.LineRange, lineOffset int) string {
	if r == nil || len(source) == 0 {
		return ""
	}
	first := max(r.Start-diagnosticLines, 0)
	last := min(max(r.End, r.Start+1)+diagnosticLines, len(source))
	if first >= last {
		return ""
	}

	numWidth := len(fmt.Sprint(last + lineOffset))
	var sb strings.Builder
	for i := first; i < last; i++ {
		prefix := strings.Repeat(" ", len([]rune(excerptMarker)))
		if i >= r.Start && i < max(r.End, r.Start+1) {
			prefix = excerptMarker
		}
		fmt.Fprintf(&sb, "%s%*d | %s\n", prefix, numWidth, i+1+lineOffset, source[i])
	}
	return strings.TrimRight(sb.String(), "\n")
}
