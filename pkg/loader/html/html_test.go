package html

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/textgraph/pkg/loader"
)

const page = `<!DOCTYPE html>
<html>
<head><title>T</title><style>p { color: red; }</style></head>
<body>
<nav><a href="/">Home</a></nav>
<h1>Marie  Curie</h1>
<p>Marie Curie was a physicist.</p>
<script>var tracking = true;</script>
<h2>Career</h2>
<ul><li>Worked at the <b>Sorbonne</b></li></ul>
</body>
</html>`

func TestExtractText(t *testing.T) {
	text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "# Marie Curie\n\nMarie Curie was a physicist.\n\n## Career\n\n- Worked at the Sorbonne\n", text)
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "Home")
	assert.NotContains(t, text, "color")
}

func TestExtractTextWithoutBlocks(t *testing.T) {
	text, err := ExtractText(strings.NewReader("<html><body><div>just   some <span>text</span></div></body></html>"))
	require.NoError(t, err)
	assert.Equal(t, "just some text", text)
}

func TestHTMLTextLoader(t *testing.T) {
	calls := 0
	base := loader.TextLoaderFunc(func(_ context.Context, source string) ([]byte, error) {
		calls++
		assert.Equal(t, "page.html", source)
		return []byte(page), nil
	})

	l := NewHTMLTextLoader(base)
	for range 2 {
		data, err := l.Load(context.Background(), "page.html")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "# Marie Curie"))
	}
	assert.Equal(t, 1, calls)
}
