package parser

import (
	"strings"
)

// ParseFenceInfo splits a fence info string of the form
//
//	lang {key=val other=val flag}
//
// into the language and its attributes. A bare key is stored as "true".
func ParseFenceInfo(info string) (string, map[string]string) {
	attrs := make(map[string]string)
	info = strings.TrimSpace(info)

	lang := info
	rest := ""
	if idx := strings.IndexAny(info, " \t{"); idx >= 0 {
		lang = info[:idx]
		rest = strings.TrimSpace(info[idx:])
	}

	if strings.HasPrefix(rest, "{") {
		rest = strings.TrimPrefix(rest, "{")
		if end := strings.LastIndex(rest, "}"); end >= 0 {
			rest = rest[:end]
		}
		for _, field := range strings.Fields(rest) {
			key, val, found := strings.Cut(field, "=")
			if !found {
				val = "true"
			}
			attrs[key] = val
		}
	}
	return lang, attrs
}

// AttrBool interprets a fence attribute value as a boolean
func AttrBool(val string) bool {
	switch strings.ToLower(val) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// FenceLang returns the language of a fence token
func FenceLang(t *Token) string {
	lang, _ := ParseFenceInfo(t.Info)
	return lang
}
