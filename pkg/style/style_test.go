// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test style loading and markup rendering

package style

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	DisableColor()
	os.Exit(m.Run())
}

func TestEmbeddedStyles(t *testing.T) {
	for _, name := range []string{"header", "success", "error", "warning", "info", "muted", "bold", "path", "payload"} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, Has(name), "style %q should be defined", name)
		})
	}
	assert.False(t, Has("nope"))
}

func TestLoadFromData(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, LoadFromData(embeddedStyles)) })

	err := LoadFromData([]byte(`
colors:
  accent: {light: "#000000", dark: "#FFFFFF"}
styles:
  accent:
    bold: true
    foreground: accent
  indented:
    paddingLeft: 4
`))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"accent", "indented"}, Names())
	assert.True(t, Get("accent").GetBold())
	assert.Equal(t, 4, Get("indented").GetPaddingLeft())
	assert.Equal(t, "    x", Get("indented").Render("x"))
}

func TestLoadFromData_Invalid(t *testing.T) {
	before := Names()

	err := LoadFromData([]byte("styles: [not, a, map]"))
	require.Error(t, err)
	assert.ElementsMatch(t, before, Names(), "registry is unchanged on error")
}

func TestGet_Unknown(t *testing.T) {
	assert.Equal(t, "plain", Get("does-not-exist").Render("plain"))
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no_markup", in: "plain text", want: "plain text"},
		{name: "single_tag", in: "[success]done.[/success]", want: "done."},
		{name: "nested_tags", in: "[error]failed: [path]a.json[/path][/error]", want: "failed: a.json"},
		{name: "unknown_tag_kept", in: "[nope]x[/nope]", want: "[nope]x[/nope]"},
		{name: "mismatched_tags_kept", in: "[bold]x[/muted]", want: "[bold]x[/muted]"},
		{name: "padding_applied", in: "[payload]{}[/payload]", want: "  {}"},
		{name: "json_brackets_untouched", in: `{"a": [1, 2]}`, want: `{"a": [1, 2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in))
		})
	}
}

func TestSprintf(t *testing.T) {
	assert.Equal(t, "sent 3 bytes", Sprintf("[info]sent %d bytes[/info]", 3))
	assert.Equal(t, "100% done", Sprintf("[bold]%d%% done[/bold]", 100))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, IsTerminal(f))
}
