package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveOriginalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "pinimg size segment",
			in:   "https://i.pinimg.com/236x/0a/1b/2c/abc.jpg",
			want: "https://i.pinimg.com/originals/0a/1b/2c/abc.jpg",
			ok:   true,
		},
		{
			name: "pinimg already original",
			in:   "https://i.pinimg.com/originals/0a/abc.jpg",
			ok:   false,
		},
		{
			name: "query params bumped in place",
			in:   "https://cdn.example.com/a.jpg?w=300&fit=crop&q=60&dpr=1",
			want: "https://cdn.example.com/a.jpg?w=2048&fit=crop&q=95&dpr=2",
			ok:   true,
		},
		{
			name: "params at or above floor untouched",
			in:   "https://cdn.example.com/a.jpg?width=4000&quality=100",
			ok:   false,
		},
		{
			name: "google size suffix",
			in:   "https://lh3.googleusercontent.com/abc123=w300-h200-no",
			want: "https://lh3.googleusercontent.com/abc123",
			ok:   true,
		},
		{
			name: "wordpress size suffix",
			in:   "https://blog.example.com/wp-content/uploads/2024/01/photo-300x200.jpg",
			want: "https://blog.example.com/wp-content/uploads/2024/01/photo.jpg",
			ok:   true,
		},
		{
			name: "size-like name outside wp-content",
			in:   "https://shop.example.com/products/poster-640x480.jpg",
			ok:   false,
		},
		{
			name: "cloudinary transforms",
			in:   "https://res.cloudinary.com/demo/image/upload/c_fill,w_200/q_auto/v1699/sample.jpg",
			want: "https://res.cloudinary.com/demo/image/upload/v1699/sample.jpg",
			ok:   true,
		},
		{
			name: "nothing to do",
			in:   "https://example.com/a.jpg",
			ok:   false,
		},
		{
			name: "data url",
			in:   "data:image/png;base64,AAAA",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeriveOriginalURL(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

type stubDeriver struct {
	out string
	ok  bool
}

func (s stubDeriver) DeriveOriginalURL(string) (string, bool) { return s.out, s.ok }

func TestResolve_HandlerWins(t *testing.T) {
	in := "https://cdn.example.com/a.jpg?w=300"

	got, ok := Resolve(stubDeriver{out: "https://cdn.example.com/orig/a.jpg", ok: true}, in)
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/orig/a.jpg", got)

	got, ok = Resolve(stubDeriver{}, in)
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/a.jpg?w=2048", got, "generic fallback")

	got, ok = Resolve(nil, in)
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/a.jpg?w=2048", got)
}
