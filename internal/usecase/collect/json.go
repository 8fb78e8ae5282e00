package collect

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"imgscout/internal/usecase/parse"
	"imgscout/internal/usecase/scoring"
)

type visitKey struct {
	ptr  uintptr
	kind reflect.Kind
	len  int
}

// JSONURLs walks an arbitrary decoded value and collects string leaves that
// are image URLs or links wrapping one. Shared maps and slices are visited
// once, so self-referencing graphs terminate.
func JSONURLs(v any, base string) []string {
	w := &jsonWalker{seen: make(map[visitKey]bool), base: base, dup: make(map[string]bool)}
	w.walk(v)
	return w.out
}

// ParseJSONURLs decodes text and walks it.
func ParseJSONURLs(text, base string) ([]string, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil, err
	}
	return JSONURLs(v, base), nil
}

type jsonWalker struct {
	seen map[visitKey]bool
	dup  map[string]bool
	base string
	out  []string
}

func (w *jsonWalker) walk(v any) {
	switch t := v.(type) {
	case nil:
		return
	case string:
		w.leaf(t)
		return
	case map[string]any:
		if !w.enter(reflect.ValueOf(t)) {
			return
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.walk(t[k])
		}
		return
	case []any:
		if !w.enter(reflect.ValueOf(t)) {
			return
		}
		for _, child := range t {
			w.walk(child)
		}
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if !w.enter(rv) {
			return
		}
		iter := rv.MapRange()
		for iter.Next() {
			w.walk(iter.Value().Interface())
		}
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && !w.enter(rv) {
			return
		}
		for i := 0; i < rv.Len(); i++ {
			w.walk(rv.Index(i).Interface())
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return
		}
		if rv.Kind() == reflect.Pointer && !w.enter(rv) {
			return
		}
		w.walk(rv.Elem().Interface())
	}
}

func (w *jsonWalker) enter(rv reflect.Value) bool {
	key := visitKey{ptr: rv.Pointer(), kind: rv.Kind()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	if key.ptr == 0 {
		return true
	}
	if w.seen[key] {
		return false
	}
	w.seen[key] = true
	return true
}

func (w *jsonWalker) leaf(s string) {
	s = strings.TrimSpace(s)
	if len(s) < 5 || strings.ContainsAny(s, " \n\t<>") {
		return
	}
	if looksLikeURLString(s) && parse.LooksLikeImageURL(s) {
		w.add(s)
		return
	}
	if strings.Contains(s, "?") && strings.Contains(s, "=") {
		for _, u := range scoring.ExtractLinkedImageURLs(s, w.base) {
			w.add(u)
		}
	}
}

func (w *jsonWalker) add(s string) {
	if !w.dup[s] {
		w.dup[s] = true
		w.out = append(w.out, s)
	}
}

func looksLikeURLString(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//") || strings.HasPrefix(lower, "/") ||
		strings.HasPrefix(lower, "data:image/") || !strings.Contains(s, ":")
}
