package parse

import (
	"errors"
	"strconv"
	"strings"
)

// SrcsetCandidate is one entry of a srcset attribute. Zero fields mean the
// descriptor was absent.
type SrcsetCandidate struct {
	URL     string
	Width   int
	Height  int
	Density float64
}

var errBadDescriptor = errors.New("invalid srcset descriptor")

// ParseSrcset tokenizes a srcset value. If any entry carries a descriptor it
// cannot read, the whole value is re-split naively on commas and whitespace.
func ParseSrcset(value string) []SrcsetCandidate {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	out, err := tokenizeSrcset(value)
	if err != nil {
		return naiveSrcset(value)
	}
	return out
}

// SrcsetURLs lists the URLs of a srcset in source order.
func SrcsetURLs(value string) []string {
	cands := ParseSrcset(value)
	urls := make([]string, 0, len(cands))
	for _, c := range cands {
		urls = append(urls, c.URL)
	}
	return urls
}

func tokenizeSrcset(s string) ([]SrcsetCandidate, error) {
	var out []SrcsetCandidate
	i := 0
	for i < len(s) {
		for i < len(s) && (isCSSSpace(s[i]) || s[i] == ',') {
			i++
		}
		if i >= len(s) {
			break
		}

		start := i
		for i < len(s) && !isCSSSpace(s[i]) {
			i++
		}
		u := s[start:i]

		var descriptors []string
		if strings.HasSuffix(u, ",") {
			u = strings.TrimRight(u, ",")
		} else {
			var (
				tok   strings.Builder
				depth int
			)
		collect:
			for ; i < len(s); i++ {
				c := s[i]
				switch {
				case c == '(':
					depth++
					tok.WriteByte(c)
				case c == ')':
					if depth > 0 {
						depth--
					}
					tok.WriteByte(c)
				case c == ',' && depth == 0:
					i++
					break collect
				case isCSSSpace(c) && depth == 0:
					if tok.Len() > 0 {
						descriptors = append(descriptors, tok.String())
						tok.Reset()
					}
				default:
					tok.WriteByte(c)
				}
			}
			if tok.Len() > 0 {
				descriptors = append(descriptors, tok.String())
			}
		}

		if u == "" {
			continue
		}
		cand := SrcsetCandidate{URL: u}
		for _, d := range descriptors {
			if err := applyDescriptor(&cand, d); err != nil {
				return nil, err
			}
		}
		out = append(out, cand)
	}
	return out, nil
}

func applyDescriptor(c *SrcsetCandidate, d string) error {
	if len(d) < 2 {
		return errBadDescriptor
	}
	num, unit := d[:len(d)-1], d[len(d)-1]
	switch unit {
	case 'w', 'W':
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 || c.Width != 0 || c.Density != 0 {
			return errBadDescriptor
		}
		c.Width = n
	case 'h', 'H':
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 || c.Height != 0 {
			return errBadDescriptor
		}
		c.Height = n
	case 'x', 'X':
		f, err := strconv.ParseFloat(num, 64)
		if err != nil || f <= 0 || c.Density != 0 || c.Width != 0 {
			return errBadDescriptor
		}
		c.Density = f
	default:
		return errBadDescriptor
	}
	return nil
}

func naiveSrcset(s string) []SrcsetCandidate {
	var out []SrcsetCandidate
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		cand := SrcsetCandidate{URL: fields[0]}
		if len(fields) > 1 {
			_ = applyDescriptor(&cand, fields[1])
		}
		out = append(out, cand)
	}
	return out
}
