package dom

import (
	"sort"

	"golang.org/x/net/html"
)

// ElementsFromPoint lists the elements under a viewport point, frontmost first.
// A live locator is preferred; otherwise hits are ordered by z-index and then
// by reverse document order.
func (d *Document) ElementsFromPoint(x, y float64) []*Element {
	if d.locator != nil {
		if els, err := d.locator(x, y); err == nil {
			return els
		}
	}

	type hit struct {
		node  *html.Node
		z     int
		order int
	}
	var hits []hit
	order := 0

	walkElements(d.root, func(n *html.Node) bool {
		order++
		switch n.Data {
		case "head", "script", "style", "noscript":
			return false
		case "template":
			if !isShadowTemplate(n) {
				return false
			}
		}

		l := d.layoutOf(n)
		if l == nil || l.Rect == nil || !l.Rect.Contains(x, y) {
			return true
		}
		st := l.Styles[""]
		if st.Get("display") == "none" || st.Get("visibility") == "hidden" || st.Get("pointer-events") == "none" {
			return true
		}
		hits = append(hits, hit{node: n, z: st.ZIndex(), order: order})
		return true
	})

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].z != hits[j].z {
			return hits[i].z > hits[j].z
		}
		return hits[i].order > hits[j].order
	})

	out := make([]*Element, 0, len(hits))
	for _, h := range hits {
		out = append(out, d.wrap(h.node))
	}
	return out
}
