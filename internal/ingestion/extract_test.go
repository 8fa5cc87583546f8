package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText_NormalizesLineEndings(t *testing.T) {
	result := CleanText("line one\r\nline two\rline three")
	assert.Equal(t, "line one\nline two\nline three", result)
}

func TestCleanText_CollapsesBlankLines(t *testing.T) {
	result := CleanText("first\n\n\n\n\nsecond")
	assert.Equal(t, "first\n\nsecond", result)
}

func TestCleanText_TrimsTrailingWhitespace(t *testing.T) {
	result := CleanText("padded line   \t\nnext")
	assert.Equal(t, "padded line\nnext", result)
}

func TestCleanText_KeepsMarkdownFlushLeft(t *testing.T) {
	result := CleanText("  # Heading\n   - bullet\nplain")
	assert.Equal(t, "# Heading\n- bullet\nplain", result)
}

func TestCleanText_Empty(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText("   \n\n  \t "))
}

func TestExtractText_PlainText(t *testing.T) {
	text, err := ExtractText([]byte("Ten years of Go.\r\n"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "Ten years of Go.", text)
}

func TestExtractText_Markdown(t *testing.T) {
	text, err := ExtractText([]byte("# Resume\n\nGo engineer."), "text/markdown")
	require.NoError(t, err)
	assert.Equal(t, "# Resume\n\nGo engineer.", text)
}

func TestExtractText_JSON(t *testing.T) {
	text, err := ExtractText([]byte(`{"name":"Dana"}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Dana"}`, text)
}

func TestExtractText_HTML(t *testing.T) {
	html := `<html><body><nav>Menu</nav><main><h1>Dana Rivera</h1><p>Go engineer.</p></main><footer>Contact</footer></body></html>`

	text, err := ExtractText([]byte(html), "text/html")
	require.NoError(t, err)

	assert.Contains(t, text, "Dana Rivera")
	assert.Contains(t, text, "Go engineer.")
	assert.NotContains(t, text, "Menu")
	assert.NotContains(t, text, "Contact")
}

func TestExtractText_OctetStreamText(t *testing.T) {
	text, err := ExtractText([]byte("plain content"), "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "plain content", text)
}

func TestExtractText_OctetStreamBinary(t *testing.T) {
	_, err := ExtractText([]byte{0x89, 0x50, 0x00, 0x47}, "application/octet-stream")

	var unsupported *UnsupportedContentError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "application/octet-stream", unsupported.ContentType)
}

func TestExtractText_UnsupportedType(t *testing.T) {
	_, err := ExtractText([]byte("audio bytes"), "audio/mpeg")

	var unsupported *UnsupportedContentError
	require.ErrorAs(t, err, &unsupported)
}

func TestExtractMainText_PrefersMainElement(t *testing.T) {
	html := `<html><body><div>Boilerplate everywhere</div><article><p>The real content.</p></article></body></html>`

	text, err := ExtractMainText(html)
	require.NoError(t, err)

	assert.Equal(t, "The real content.", text)
}

func TestExtractMainText_FallsBackToBody(t *testing.T) {
	html := `<html><body><p>Just a body.</p><script>var x = 1;</script></body></html>`

	text, err := ExtractMainText(html)
	require.NoError(t, err)

	assert.Equal(t, "Just a body.", text)
}
