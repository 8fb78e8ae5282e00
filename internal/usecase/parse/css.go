package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// CSSCandidate is one image reference found in a CSS value.
type CSSCandidate struct {
	URL          string
	Density      float64
	FromImageSet bool
}

var (
	cssURLFallback = regexp.MustCompile(`(?i)(?:^|[^\w-])url\(\s*['"]?([^'")]+)['"]?\s*\)`)
	densityToken   = regexp.MustCompile(`(?i)^(\d*\.?\d+)(x|dppx)$`)
)

// ParseCSSValue extracts url() references and the best image-set() entry from a
// CSS value. Malformed input gives a partial result; if the tokenizer fails the
// value is re-read with a plain url() regex.
func ParseCSSValue(value string) (out []CSSCandidate) {
	if strings.TrimSpace(value) == "" || strings.EqualFold(strings.TrimSpace(value), "none") {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			out = fallbackCSSURLs(value)
		}
	}()

	for i := 0; i < len(value); {
		fn := identStart(value, i)
		switch {
		case fn && hasPrefixFold(value[i:], "-webkit-image-set("):
			i += len("-webkit-image-set(")
			body, next := readBalanced(value, i)
			if best, ok := bestImageSetEntry(body); ok {
				out = append(out, best)
			}
			i = next
		case fn && hasPrefixFold(value[i:], "image-set("):
			i += len("image-set(")
			body, next := readBalanced(value, i)
			if best, ok := bestImageSetEntry(body); ok {
				out = append(out, best)
			}
			i = next
		case fn && hasPrefixFold(value[i:], "url("):
			u, next := readURLFunction(value, i+len("url("))
			if u != "" {
				out = append(out, CSSCandidate{URL: u, Density: 1})
			}
			i = next
		case value[i] == '"' || value[i] == '\'':
			i = skipQuoted(value, i)
		default:
			i++
		}
	}
	return out
}

// identStart reports whether a function name may begin at i, so that
// myurl( or fooimage-set( are not read as url( or image-set(.
func identStart(value string, i int) bool {
	if i == 0 {
		return true
	}
	c := value[i-1]
	return !(c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80)
}

// CSSURLs is ParseCSSValue reduced to the URL strings.
func CSSURLs(value string) []string {
	cands := ParseCSSValue(value)
	urls := make([]string, 0, len(cands))
	for _, c := range cands {
		urls = append(urls, c.URL)
	}
	return urls
}

func fallbackCSSURLs(value string) []CSSCandidate {
	var out []CSSCandidate
	for _, m := range cssURLFallback.FindAllStringSubmatch(value, -1) {
		if u := strings.TrimSpace(m[1]); u != "" {
			out = append(out, CSSCandidate{URL: u, Density: 1})
		}
	}
	return out
}

func bestImageSetEntry(body string) (CSSCandidate, bool) {
	var (
		best  CSSCandidate
		found bool
	)
	for _, seg := range splitTopLevelCommas(body) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		var (
			u    string
			rest string
		)
		switch {
		case hasPrefixFold(seg, "url("):
			var next int
			u, next = readURLFunction(seg, len("url("))
			rest = seg[next:]
		case seg[0] == '"' || seg[0] == '\'':
			end := skipQuoted(seg, 0)
			u = unescapeCSS(strings.TrimSuffix(seg[1:end], string(seg[0])))
			rest = seg[end:]
		default:
			fields := strings.Fields(seg)
			u, rest = fields[0], strings.Join(fields[1:], " ")
		}
		if u == "" {
			continue
		}

		density := 1.0
		for _, tok := range strings.Fields(rest) {
			if m := densityToken.FindStringSubmatch(tok); m != nil {
				if d, err := strconv.ParseFloat(m[1], 64); err == nil {
					density = d
				}
			}
		}
		if !found || density > best.Density {
			best = CSSCandidate{URL: u, Density: density, FromImageSet: true}
			found = true
		}
	}
	return best, found
}

// readURLFunction reads the argument of url( starting at i and returns it with the
// index after the closing paren. A missing paren consumes the rest of the value.
func readURLFunction(s string, i int) (string, int) {
	for i < len(s) && isCSSSpace(s[i]) {
		i++
	}
	if i >= len(s) {
		return "", i
	}

	var sb strings.Builder
	if q := s[i]; q == '"' || q == '\'' {
		i++
		for i < len(s) && s[i] != q {
			if s[i] == '\\' && i+1 < len(s) {
				r, n := readEscape(s, i+1)
				sb.WriteString(r)
				i += 1 + n
				continue
			}
			sb.WriteByte(s[i])
			i++
		}
		if i < len(s) {
			i++
		}
		for i < len(s) && s[i] != ')' {
			i++
		}
		if i < len(s) {
			i++
		}
		return strings.TrimSpace(sb.String()), i
	}

	for i < len(s) && s[i] != ')' {
		if s[i] == '\\' && i+1 < len(s) {
			r, n := readEscape(s, i+1)
			sb.WriteString(r)
			i += 1 + n
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	if i < len(s) {
		i++
	}
	return strings.TrimSpace(sb.String()), i
}

// readEscape decodes a CSS escape whose body starts at i (just after the backslash).
func readEscape(s string, i int) (string, int) {
	j := i
	for j < len(s) && j-i < 6 && isHex(s[j]) {
		j++
	}
	if j == i {
		_, size := utf8.DecodeRuneInString(s[i:])
		return s[i : i+size], size
	}
	code, err := strconv.ParseUint(s[i:j], 16, 32)
	n := j - i
	if j < len(s) && isCSSSpace(s[j]) {
		n++
	}
	if err != nil || code == 0 || code > utf8.MaxRune {
		return string(utf8.RuneError), n
	}
	return string(rune(code)), n
}

func unescapeCSS(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) {
			r, n := readEscape(s, i+1)
			sb.WriteString(r)
			i += 1 + n
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

// readBalanced returns the text up to the paren closing the one before i.
func readBalanced(s string, i int) (string, int) {
	depth := 1
	start := i
	for i < len(s) {
		switch s[i] {
		case '"', '\'':
			i = skipQuoted(s, i)
			continue
		case '\\':
			i += 2
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[start:i], i + 1
			}
		}
		i++
	}
	if i > len(s) {
		i = len(s)
	}
	return s[start:i], i
}

// skipQuoted returns the index after the closing quote of the string starting at i.
func skipQuoted(s string, i int) int {
	q := s[i]
	i++
	for i < len(s) {
		if s[i] == '\\' {
			i += 2
			continue
		}
		if s[i] == q {
			return i + 1
		}
		i++
	}
	return len(s)
}

func splitTopLevelCommas(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\'':
			i = skipQuoted(s, i) - 1
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isCSSSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
