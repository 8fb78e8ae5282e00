package collect

import (
	"regexp"
	"strings"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
	"imgscout/internal/usecase/parse"
	"imgscout/internal/usecase/scoring"
)

var (
	embeddedImageURL = regexp.MustCompile(`(?i)https?://[^\s"'<>()\\]+?\.(?:jpe?g|jfif|png|gif|webp|avif)\b(?:[?#][^\s"'<>()\\]*)?`)
	jsEscapes        = strings.NewReplacer(`\/`, "/", `\u002F`, "/", `\u002f`, "/", `\u0026`, "&", "&amp;", "&")
	templateScripts  = map[string]bool{"text/template": true, "text/html": true, "text/x-template": true}
)

// linkedImageSelectors maps meta/link selectors to the attribute holding the URL.
var linkedImageSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[property="og:image:url"]`, "content"},
	{`meta[property="og:image:secure_url"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[name="twitter:image:src"]`, "content"},
	{`meta[property="twitter:image"]`, "content"},
	{`meta[itemprop="image"]`, "content"},
	{`link[rel~="preload"][as="image"]`, "href"},
	{`link[rel~="preload"][as="image"]`, "imagesrcset"},
	{`link[rel~="icon"]`, "href"},
	{`link[rel="apple-touch-icon"]`, "href"},
	{`link[rel="apple-touch-icon-precomposed"]`, "href"},
	{`link[rel="image_src"]`, "href"},
}

// DocumentLinkedURLs reads Open Graph/Twitter/itemprop meta tags and image
// link tags. Values that wrap an image URL in a query are unwrapped.
func DocumentLinkedURLs(doc *dom.Document) []string {
	var out []string
	for _, s := range linkedImageSelectors {
		for _, el := range doc.QueryAll(s.selector) {
			v := strings.TrimSpace(el.AttrOr(s.attr, ""))
			if v == "" {
				continue
			}
			if s.attr == "imagesrcset" {
				out = append(out, parse.SrcsetURLs(v)...)
				continue
			}
			if linked := scoring.ExtractLinkedImageURLs(v, doc.BaseURL()); len(linked) > 0 {
				out = append(out, linked...)
				continue
			}
			out = append(out, v)
		}
	}
	return dedupe(out)
}

// StyleSheetURLs collects url() references from readable stylesheets. Sheets
// that could not be read (cross-origin, not loaded) are skipped.
func StyleSheetURLs(doc *dom.Document) []string {
	var out []string
	for _, sheet := range doc.StyleSheets() {
		if sheet.Err != nil {
			continue
		}
		base := sheet.Href
		if base == "" {
			base = doc.BaseURL()
		}
		for _, rule := range sheet.Rules {
			for _, u := range parse.CSSURLs(rule) {
				out = append(out, parse.Canonicalize(u, base))
			}
		}
	}
	return dedupe(out)
}

// FragmentURL is a URL found inside inert markup.
type FragmentURL struct {
	URL    string
	Origin entity.OriginType
}

// FragmentURLs parses the text of <noscript>, non-shadow <template> and
// template-typed <script> elements and runs img/srcset and attribute
// extraction over the result.
func FragmentURLs(doc *dom.Document) []FragmentURL {
	var out []FragmentURL
	for _, el := range doc.QueryAll("noscript, template, script") {
		var markup string
		switch el.Tag() {
		case "noscript":
			markup = el.Text()
		case "template":
			if el.IsShadowRoot() {
				continue
			}
			markup = el.InnerHTML()
		case "script":
			if !templateScripts[strings.ToLower(strings.TrimSpace(el.AttrOr("type", "")))] {
				continue
			}
			markup = el.Text()
		}
		if strings.TrimSpace(markup) == "" {
			continue
		}
		frag, err := doc.ParseFragment(markup)
		if err != nil {
			continue
		}
		out = append(out, fragmentURLs(frag)...)
	}
	return out
}

func fragmentURLs(frag *dom.Document) []FragmentURL {
	var out []FragmentURL
	body := frag.Body()
	if body == nil {
		return nil
	}
	for _, el := range body.Find("*") {
		switch el.Tag() {
		case "img", "source":
			if src := strings.TrimSpace(el.AttrOr("src", "")); src != "" {
				out = append(out, FragmentURL{URL: src, Origin: entity.OriginImg})
			}
			for _, u := range parse.SrcsetURLs(el.AttrOr("srcset", "")) {
				out = append(out, FragmentURL{URL: u, Origin: entity.OriginSrcset})
			}
		}
		for _, a := range AttributeURLs(el) {
			out = append(out, FragmentURL{URL: a.URL, Origin: entity.OriginDataAttr})
		}
	}
	return out
}

// HTMLEmbeddedURLs runs an absolute image URL regex over the serialized
// document, after undoing JavaScript string escapes.
func HTMLEmbeddedURLs(doc *dom.Document) []string {
	return TextURLs(doc.HTML())
}

// TextURLs finds absolute image URLs in free text.
func TextURLs(text string) []string {
	text = jsEscapes.Replace(text)
	return dedupe(embeddedImageURL.FindAllString(text, -1))
}

// ScriptURLs reads a script body as JSON when possible, else as text.
func ScriptURLs(text, base string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if urls, err := ParseJSONURLs(trimmed, base); err == nil {
			return urls
		}
	}
	return TextURLs(trimmed)
}

// AnchorURLs unwraps the href of an <a> element.
func AnchorURLs(el *dom.Element, base string) []string {
	if el.Tag() != "a" {
		return nil
	}
	href, ok := el.Attr("href")
	if !ok {
		return nil
	}
	return scoring.ExtractLinkedImageURLs(href, base)
}
