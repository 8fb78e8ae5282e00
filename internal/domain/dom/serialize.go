package dom

import (
	"encoding/base64"
	"strings"

	"golang.org/x/net/html"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// HTML сериализует документ без служебных атрибутов снимка.
func (d *Document) HTML() string {
	return renderNode(cloneClean(d.root))
}

// SVGDataURL клонирует <svg>, добавляет xmlns при отсутствии и кодирует в base64 data URL.
func (e *Element) SVGDataURL() string {
	clone := cloneClean(e.node)
	if _, ok := lookupAttr(clone, "xmlns"); !ok {
		clone.Attr = append(clone.Attr, html.Attribute{Key: "xmlns", Val: svgNamespace})
	}
	markup := renderNode(clone)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(markup))
}

// cloneClean делает глубокую копию поддерева, отбрасывая атрибуты data-imgx-*.
func cloneClean(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      filterAttributes(n.Attr),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(cloneClean(ch))
	}
	return c
}

// filterAttributes убирает служебные атрибуты
func filterAttributes(attrs []html.Attribute) []html.Attribute {
	kept := make([]html.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if strings.HasPrefix(strings.ToLower(a.Key), bookkeepingPrefix) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// renderNode преобразует узел обратно в HTML
func renderNode(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}
