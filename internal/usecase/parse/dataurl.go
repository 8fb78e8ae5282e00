package parse

import (
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"
)

var dataURLHeader = regexp.MustCompile(`(?i)^data:([a-z0-9.+-]+/[a-z0-9.+-]+)`)

// DataURLMIME returns the media type of a data: URI. When the declared type is
// missing or generic the payload is sniffed.
func DataURLMIME(s string) string {
	declared := ""
	if m := dataURLHeader.FindStringSubmatch(s); m != nil {
		declared = strings.ToLower(m[1])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	payload, err := DecodeDataURL(s)
	if err != nil || len(payload) == 0 {
		return declared
	}
	return mimetype.Detect(payload).String()
}

// DecodeDataURL returns the payload bytes of a data: URI.
func DecodeDataURL(s string) ([]byte, error) {
	du, err := dataurl.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return du.Data, nil
}

// DataURLFilename synthesizes "image.<subtype>" for data: URIs, jpeg mapped to jpg.
func DataURLFilename(s string) string {
	mime := DataURLMIME(s)
	idx := strings.IndexByte(mime, '/')
	if idx < 0 {
		return ""
	}
	sub := mime[idx+1:]
	if i := strings.IndexByte(sub, '+'); i >= 0 {
		sub = sub[:i]
	}
	if sub == "jpeg" {
		sub = "jpg"
	}
	return "image." + sub
}
