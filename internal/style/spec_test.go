package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantColor string
		wantMods  []string
	}{
		{"empty", "", "", []string{}},
		{"color only", "#f30", "#f30", []string{}},
		{"color and modifiers", "#f30,bold,italics", "#f30", []string{Bold, Italics}},
		{"modifiers only", "underline, bold", "", []string{Bold, Underline}},
		{"aliases", "reverse,italic", "", []string{Italics, Standout}},
		{"default color", "default,blink", "default", []string{Blink}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color, mods := Split(tt.value)
			assert.Equal(t, tt.wantColor, color)
			assert.Equal(t, tt.wantMods, mods)
		})
	}
}

func TestOverwrite(t *testing.T) {
	tests := []struct {
		name string
		orig Spec
		next Spec
		want Spec
	}{
		{
			name: "modifiers are unioned",
			orig: New("#aaa,bold", ""),
			next: New("italics", ""),
			want: New("#aaa,bold,italics", ""),
		},
		{
			name: "new color replaces original",
			orig: New("#aaa,bold", "#000"),
			next: New("#fff", "#111"),
			want: New("#fff,bold", "#111"),
		},
		{
			name: "default color keeps original",
			orig: New("#aaa,underline", "#000"),
			next: New("default", "default"),
			want: New("#aaa,underline", "#000"),
		},
		{
			name: "empty next is a no-op",
			orig: New("#aaa,bold", "#123"),
			next: Spec{},
			want: New("#aaa,bold", "#123"),
		},
		{
			name: "sides are independent",
			orig: New("#aaa", "#000,bold"),
			next: New("", "#fff"),
			want: New("#aaa", "#fff,bold"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overwrite(tt.orig, tt.next))
		})
	}
}

func TestOverwriteModifierMonotonic(t *testing.T) {
	orig := New("#aaa,bold,underline", "")
	for _, next := range []Spec{
		New("#fff", ""),
		New("default,italics", ""),
		New("", "#000"),
		{},
	} {
		_, origMods := Split(orig.Foreground)
		_, gotMods := Split(Overwrite(orig, next).Foreground)
		for _, m := range origMods {
			assert.Contains(t, gotMods, m)
		}
	}
}

func TestOverwriteLink(t *testing.T) {
	linked := New("#33c", "").WithLink("http://a", "")
	plain := New("bold", "")

	got := Overwrite(linked, plain)
	if assert.NotNil(t, got.Link) {
		assert.Equal(t, "http://a", got.Link.URL)
	}

	got = Overwrite(plain, New("", "").WithLink("http://b", "t"))
	if assert.NotNil(t, got.Link) {
		assert.Equal(t, "http://b", got.Link.URL)
	}
}

func TestFold(t *testing.T) {
	got := Fold(New("#aaa", ""), New("bold", ""), New("#bbb,italics", "#000"))
	assert.Equal(t, New("#bbb,bold,italics", "#000"), got)
	assert.True(t, Fold().IsZero())
}

func TestTerminalColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#f30", "#ff3300", true},
		{"#AABBCC", "#aabbcc", true},
		{"h236", "236", true},
		{"42", "42", true},
		{"dark red", "1", true},
		{"default", "", false},
		{"", "", false},
		{"#12", "", false},
		{"nonsense", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := terminalColor(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
