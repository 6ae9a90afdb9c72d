package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	r := New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello", "<p>hello</p>"},
		{"emphasis", "*hi*", "<p><em>hi</em></p>"},
		{"strong", "**hi**", "<p><strong>hi</strong></p>"},
		{"code span", "`x := 1`", "<p><code>x := 1</code></p>"},
		{"strikethrough", "~~nope~~", "<p><del>nope</del></p>"},
		{"hard wrap", "one\ntwo", "<p>one<br>\ntwo</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Render(tt.in))
		})
	}
}

func TestRenderStripsRawHTML(t *testing.T) {
	r := New()

	out := r.Render(`hello <script>alert("x")</script> world`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")

	out = r.Render(`<img src=x onerror=alert(1)>`)
	assert.NotContains(t, out, "<img")
}

func TestRenderHeadingsDisabled(t *testing.T) {
	// Block structure beyond paragraphs and fenced code is not parsed.
	r := New()
	out := r.Render("# not a heading")
	assert.NotContains(t, out, "<h1>")
	assert.Contains(t, out, "# not a heading")
}
