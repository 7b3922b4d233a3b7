package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"TEXT", ModeText, false},
		{"md", ModeMarkdown, false},
		{" json ", ModeJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty piped", "", false, ModeMarkdown},
		{"explicit json on terminal", ModeJSON, true, ModeJSON},
		{"explicit text piped", ModeText, false, ModeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_PipedOutputHasNoANSI(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, false)
	r.Header(1, "Subprojects")
	r.Success("relocated 3 subprojects")
	r.Warning("namespace collision")
	r.Error("write failed")
	r.Muted("done")

	assert.NotContains(t, out.String(), "\x1b[")
	assert.NotContains(t, errOut.String(), "\x1b[")
	assert.Contains(t, out.String(), "Subprojects")
	assert.Contains(t, out.String(), "✓ relocated 3 subprojects")
	assert.Contains(t, errOut.String(), "! namespace collision")
	assert.Contains(t, errOut.String(), "✗ write failed")
}

func TestRenderer_Markdown(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeAuto, false)
	r.Header(2, "Namespaces")
	r.Success("done")
	r.Warning("careful")

	assert.Contains(t, out.String(), "## Namespaces\n")
	assert.Contains(t, out.String(), "**OK** done")
	assert.Contains(t, errOut.String(), "**WARN** careful")
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(RelocationEntry{Subproject: "app", OutputDir: "/build/app"}))
	assert.Equal(t, "{\n  \"subproject\": \"app\",\n  \"output_dir\": \"/build/app\"\n}\n", out.String())
}

func TestRenderer_Table(t *testing.T) {
	rows := [][]string{{"app", "/build/app"}, {"camera", "/build/camera"}}

	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.Table([]string{"Subproject", "Output"}, rows)
	md := out.String()
	assert.True(t, strings.HasPrefix(md, "|"), md)
	assert.Contains(t, strings.ToLower(md), "subproject")
	assert.Contains(t, md, "/build/camera")
	assert.NotContains(t, md, "┌")

	r, out, _ = newTestRenderer(ModeText, false)
	r.Table([]string{"Subproject", "Output"}, rows)
	assert.Contains(t, out.String(), "┌")
	assert.Contains(t, out.String(), "camera")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Title", FormatHeader(3, "Title"))
	assert.Equal(t, "- **Root**: /build", FormatKeyValue("Root", "/build"))
	block := FormatCodeBlock("xml", "<manifest/>\n")
	assert.True(t, strings.HasPrefix(block, "```xml\n"))
	assert.True(t, strings.HasSuffix(block, "<manifest/>\n```"))
}
