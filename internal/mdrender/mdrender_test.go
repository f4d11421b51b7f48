package mdrender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	assert.Equal(t, "<p>A1</p>", ToHTML("A1"))
	assert.Equal(t, "<p><strong>bold</strong> and <em>it</em></p>", ToHTML("**bold** and *it*"))
	assert.Equal(t, "", ToHTML("   \n"))

	list := ToHTML("- one\r\n- two")
	assert.Contains(t, list, "<li>one</li>")
	assert.Contains(t, list, "<li>two</li>")
}

func TestToHTML_DropsRawHTML(t *testing.T) {
	out := ToHTML("before <script>alert(1)</script> after")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "before")
}

func TestToHTML_Links(t *testing.T) {
	out := ToHTML("[docs](https://docs.paideia.im)")
	assert.Contains(t, out, `href="https://docs.paideia.im"`)
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, "nofollow")

	unsafe := ToHTML("[x](javascript:alert(1))")
	assert.NotContains(t, unsafe, `href="javascript:`)
}

func TestToTerminal(t *testing.T) {
	out, err := ToTerminal("# Title\n\nSome **bold** text.", 40)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
}
