package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgscout/internal/domain/dom"
	"imgscout/internal/domain/entity"
)

const pageURL = "https://www.example.com/post/1"

func parseDoc(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(src, pageURL)
	require.NoError(t, err)
	return doc
}

func TestAttributeURLs(t *testing.T) {
	doc := parseDoc(t, `<div id="el"
		src="skip.jpg"
		data-zoom-image="https://cdn.x.com/zoom.jpg"
		data-bg="url('bg.png')"
		data-gallery-img='{"full":"https://cdn.x.com/full.webp","thumb":"https://cdn.x.com/t.webp"}'
		data-photo="see https://cdn.x.com/a.jpg and /rel/b.png"
		data-title="not an image"
		data-imgx-id="7"></div>`)

	got := AttributeURLs(doc.QueryOne("#el"))

	byAttr := map[string][]string{}
	for _, a := range got {
		byAttr[a.Attr] = append(byAttr[a.Attr], a.URL)
	}
	assert.Equal(t, []string{"https://cdn.x.com/zoom.jpg"}, byAttr["data-zoom-image"])
	assert.Equal(t, []string{"bg.png"}, byAttr["data-bg"])
	assert.Equal(t, []string{"https://cdn.x.com/full.webp", "https://cdn.x.com/t.webp"}, byAttr["data-gallery-img"])
	assert.Equal(t, []string{"https://cdn.x.com/a.jpg", "/rel/b.png"}, byAttr["data-photo"])
	assert.NotContains(t, byAttr, "src")
	assert.NotContains(t, byAttr, "data-title")
	assert.NotContains(t, byAttr, "data-imgx-id")
}

func TestLazyAttributeURLs(t *testing.T) {
	doc := parseDoc(t, `<img id="el" src="placeholder.gif" data-src="real.jpg" data-srcset="r1.jpg 1x, r2.jpg 2x" data-caption="x">`)

	got := LazyAttributeURLs(doc.QueryOne("#el"))
	assert.Equal(t, []AttrURL{
		{Attr: "data-src", URL: "real.jpg"},
		{Attr: "data-srcset", URL: "r1.jpg"},
		{Attr: "data-srcset", URL: "r2.jpg"},
	}, got)
}

func TestStyleURLs(t *testing.T) {
	doc := parseDoc(t, `<div id="el" style="background-image:url(bg.jpg); -webkit-mask-image:url(mask.png)"></div>
		<div id="set" style="background-image:image-set(url(lo.jpg) 1x, url(hi.jpg) 2x)"></div>`)

	el := doc.QueryOne("#el")
	doc.SetLayout(el, &dom.Layout{Styles: map[string]dom.Style{
		"":        dom.ParseInlineStyle(el.AttrOr("style", "")),
		"::after": {"content": `url("after.webp")`},
	}})

	got, err := StyleURLs(el)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, StyleURL{URL: "bg.jpg", Origin: entity.OriginCSSBackground, Property: "background-image"}, got[0])
	assert.Equal(t, entity.OriginCSSMask, got[1].Origin)
	assert.Equal(t, StyleURL{URL: "after.webp", Origin: entity.OriginCSSContent, Pseudo: "::after", Property: "content"}, got[2])

	set, err := StyleURLs(doc.QueryOne("#set"))
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "hi.jpg", set[0].URL)
	assert.Equal(t, entity.OriginImageSet, set[0].Origin)
}

func TestStyleURLs_Error(t *testing.T) {
	doc := parseDoc(t, `<div id="el"></div>`)
	el := doc.QueryOne("#el")
	doc.SetLayout(el, &dom.Layout{StyleError: "InvalidStateError"})

	_, err := StyleURLs(el)
	assert.ErrorIs(t, err, dom.ErrStyleAccess)
}

func TestJSONURLs_Cycles(t *testing.T) {
	inner := map[string]any{"src": "https://cdn.x.com/a.jpg"}
	root := map[string]any{
		"items": []any{inner, inner, "https://cdn.x.com/b.png", "not a url", 42.0},
		"link":  "https://www.google.com/imgres?imgurl=https%3A%2F%2Fcdn.x.com%2Fc.webp",
	}
	root["self"] = root
	inner["parent"] = root

	got := JSONURLs(root, pageURL)
	assert.ElementsMatch(t, []string{
		"https://cdn.x.com/a.jpg",
		"https://cdn.x.com/b.png",
		"https://cdn.x.com/c.webp",
	}, got)
}

func TestParseJSONURLs(t *testing.T) {
	got, err := ParseJSONURLs(`{"image":{"url":"https://cdn.x.com/og.jpg"},"name":"x"}`, pageURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.x.com/og.jpg"}, got)

	_, err = ParseJSONURLs(`{broken`, pageURL)
	assert.Error(t, err)
}

func TestStyleSheetURLs(t *testing.T) {
	doc := parseDoc(t, `<html><head>
		<style>.a{background:url(/img/a.jpg)} @font-face{src:url(f.woff2)}</style>
		<link rel="stylesheet" href="https://other.net/x.css">
		</head><body></body></html>`)

	got := StyleSheetURLs(doc)
	assert.Equal(t, []string{"https://www.example.com/img/a.jpg", "https://www.example.com/post/f.woff2"}, got)
}

func TestFragmentURLs(t *testing.T) {
	doc := parseDoc(t, `<body>
		<noscript><img src="ns.jpg" srcset="ns-1.jpg 1x, ns-2.jpg 2x"></noscript>
		<template id="tpl"><div data-bg-src="tpl.png"></div></template>
		<script type="text/template"><img src="script.webp"></script>
		<script>var x = "<img src='ignored.jpg'>";</script>
		<div id="host"><template shadowrootmode="open"><img src="shadow.jpg"></template></div>
	</body>`)

	got := FragmentURLs(doc)
	assert.Equal(t, []FragmentURL{
		{URL: "ns.jpg", Origin: entity.OriginImg},
		{URL: "ns-1.jpg", Origin: entity.OriginSrcset},
		{URL: "ns-2.jpg", Origin: entity.OriginSrcset},
		{URL: "tpl.png", Origin: entity.OriginDataAttr},
		{URL: "script.webp", Origin: entity.OriginImg},
	}, got)
}

func TestDocumentLinkedURLs(t *testing.T) {
	doc := parseDoc(t, `<html><head>
		<meta property="og:image" content="https://cdn.x.com/og.jpg">
		<meta name="twitter:image" content="https://cdn.x.com/tw.png">
		<link rel="preload" as="image" href="/hero.webp">
		<link rel="shortcut icon" href="/favicon.png">
		<meta property="og:image" content="https://cdn.x.com/og.jpg">
		</head><body></body></html>`)

	got := DocumentLinkedURLs(doc)
	assert.Equal(t, []string{
		"https://cdn.x.com/og.jpg",
		"https://cdn.x.com/tw.png",
		"/hero.webp",
		"/favicon.png",
	}, got)
}

func TestHTMLEmbeddedAndScriptURLs(t *testing.T) {
	doc := parseDoc(t, `<body><script>window.__STATE__ = {"img":"https:\/\/cdn.x.com\/state.jpg?w=100"}</script>
		<div data-x="https://cdn.x.com/attr.png"></div></body>`)

	got := HTMLEmbeddedURLs(doc)
	assert.Contains(t, got, "https://cdn.x.com/state.jpg?w=100")
	assert.Contains(t, got, "https://cdn.x.com/attr.png")

	assert.Equal(t, []string{"https://cdn.x.com/j.jpg"}, ScriptURLs(`{"a":["https://cdn.x.com/j.jpg"]}`, pageURL))
	assert.Equal(t, []string{"https://cdn.x.com/t.webp"}, ScriptURLs(`var a = 'https://cdn.x.com/t.webp';`, pageURL))
}

func TestAnchorURLs(t *testing.T) {
	doc := parseDoc(t, `<a id="direct" href="/full/a.jpg">x</a><a id="wrapped" href="/out?url=https%3A%2F%2Fcdn.x.com%2Fz.png">y</a><span id="s"></span>`)

	assert.Equal(t, []string{"/full/a.jpg"}, AnchorURLs(doc.QueryOne("#direct"), doc.BaseURL()))
	assert.Equal(t, []string{"https://cdn.x.com/z.png"}, AnchorURLs(doc.QueryOne("#wrapped"), doc.BaseURL()))
	assert.Nil(t, AnchorURLs(doc.QueryOne("#s"), doc.BaseURL()))
}
