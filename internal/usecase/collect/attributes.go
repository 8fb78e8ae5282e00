package collect

import (
	"encoding/json"
	"regexp"
	"strings"

	"imgscout/internal/domain/dom"
	"imgscout/internal/usecase/parse"
)

// AttrURL is a URL read from a named attribute.
type AttrURL struct {
	Attr string
	URL  string
}

var (
	imageHintAttr = regexp.MustCompile(`(?i)src|img|image|photo|poster|thumb|bg|background|zoom|hi-?res|large|full|orig|lazy|media|picture|pic|cover|avatar|url`)
	urlToken      = regexp.MustCompile(`(?i)(?:https?:)?//[^\s"'<>()\\,]+|[^\s"'<>()\\,=:]+\.(?:jpe?g|jfif|png|gif|webp|avif)(?:\?[^\s"'<>()\\,]*)?`)
)

var skippedAttrs = map[string]bool{"src": true, "srcset": true, "href": true, "style": true, "class": true, "id": true}

// LazyAttrs are the attributes lazy-loading libraries park the real URL in.
var LazyAttrs = []string{
	"data-src", "data-lazy-src", "data-lazy", "data-original", "data-original-src",
	"data-srcset", "data-lazy-srcset", "data-original-set",
	"data-bg", "data-bg-src", "data-background", "data-background-image",
	"data-hi-res-src", "data-full-src", "data-zoom-src", "data-large-image",
	"data-echo", "data-ll-src", "lazy-src",
}

// AttributeURLs scans every attribute whose name hints at an image, except
// src, srcset and href which the per-tag rules own.
func AttributeURLs(el *dom.Element) []AttrURL {
	var out []AttrURL
	for _, a := range el.Attrs() {
		if skippedAttrs[a.Name] || !imageHintAttr.MatchString(a.Name) {
			continue
		}
		for _, u := range attributeValueURLs(a.Name, a.Value) {
			out = append(out, AttrURL{Attr: a.Name, URL: u})
		}
	}
	return out
}

// LazyAttributeURLs reads only the well-known lazy-loading attributes.
func LazyAttributeURLs(el *dom.Element) []AttrURL {
	var out []AttrURL
	for _, name := range LazyAttrs {
		v, ok := el.Attr(name)
		if !ok {
			continue
		}
		for _, u := range attributeValueURLs(name, v) {
			out = append(out, AttrURL{Attr: name, URL: u})
		}
	}
	return out
}

func attributeValueURLs(name, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	switch {
	case strings.Contains(strings.ToLower(value), "url("):
		return parse.CSSURLs(value)
	case value[0] == '{' || value[0] == '[':
		var v any
		if err := json.Unmarshal([]byte(value), &v); err == nil {
			return JSONURLs(v, "")
		}
	case strings.Contains(strings.ToLower(name), "srcset"):
		return parse.SrcsetURLs(value)
	}

	if tokens := urlToken.FindAllString(value, -1); len(tokens) > 0 {
		return dedupe(tokens)
	}
	if strings.ContainsAny(value, " \t\n") {
		return nil
	}
	return []string{value}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
