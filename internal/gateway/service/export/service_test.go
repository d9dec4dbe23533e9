package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockvibe/internal/blocks"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC) }
	return s
}

func sampleEntries() []Entry {
	return []Entry{
		{Type: "action", Description: "say hi", Code: "function blockCode() {\nconsole.log('hi');\n}", Generated: true},
		{Type: "data", Description: "not yet", Generated: false},
		{Type: "ui", Description: "<b>bold</b> & \"quoted\"", Code: "document.title = '</script><script>alert(1)</script>';", Generated: true},
	}
}

func TestExecutorWrapsEveryBlock(t *testing.T) {
	code := Executor(sampleEntries())

	assert.True(t, strings.HasPrefix(code, "(function() {\n    'use strict';"))
	assert.True(t, strings.HasSuffix(code, "})();\n"))
	assert.Equal(t, 2, strings.Count(code, "try {"), "only executable entries are included")
	assert.Contains(t, code, "// --- action block 1: say hi ---")
	assert.Contains(t, code, "if (typeof blockCode === 'function') {\n            blockCode();")
	assert.Contains(t, code, "console.error('block 2 failed:', error);")
	assert.NotContains(t, code, "not yet")
}

func TestWrapBlockCodeLeavesPlainStatements(t *testing.T) {
	assert.Equal(t, "alert(1);", wrapBlockCode("alert(1);"))
}

func TestPreviewEscapesScriptClose(t *testing.T) {
	page, err := newTestService(t).Preview(sampleEntries())
	require.NoError(t, err)

	assert.Contains(t, page, "<!DOCTYPE html>")
	assert.Contains(t, page, `<\/script><script>alert(1)<\/script>`)
	assert.Equal(t, 1, strings.Count(page, "</script>"), "only the page's own script element closes")
	assert.Contains(t, page, "2 block(s) executed")
}

func TestPreviewNothingToRun(t *testing.T) {
	_, err := newTestService(t).Preview([]Entry{{Type: "action", Description: "x"}})
	assert.True(t, errors.Is(err, ErrNothingToExport))
}

func TestScriptBundle(t *testing.T) {
	js, err := newTestService(t).Script(sampleEntries())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(js, "// Block Vibe Coding - generated code\n// Generated: 2026-03-04T05:06:07.008Z\n\n"))
	assert.Contains(t, js, "// Block 1: action - say hi\n")
	assert.Contains(t, js, "// Block 2: ui - <b>bold</b> & \"quoted\"\n")
}

func TestJSONDocument(t *testing.T) {
	raw, err := newTestService(t).JSON(sampleEntries())
	require.NoError(t, err)

	var doc struct {
		Version    string `json:"version"`
		ExportDate string `json:"exportDate"`
		Blocks     []struct {
			Type        string `json:"type"`
			Description string `json:"description"`
			Code        string `json:"code"`
			Generated   bool   `json:"generated"`
		} `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "2026-03-04T05:06:07.008Z", doc.ExportDate)
	require.Len(t, doc.Blocks, 3, "json export keeps blocks without code")
	assert.False(t, doc.Blocks[1].Generated)
	assert.Contains(t, raw, "</script>", "json is not html-escaped")
}

func TestHTMLProjectPage(t *testing.T) {
	page, err := newTestService(t).HTML(sampleEntries())
	require.NoError(t, err)

	assert.Contains(t, page, "<strong>Blocks:</strong> 2")
	assert.Contains(t, page, "<strong>action</strong>: say hi")
	assert.Contains(t, page, "<strong>ui</strong>: bold &amp; &#34;quoted&#34;</li>", "descriptions are reduced to text")
	assert.Contains(t, page, "function executeCode()")
}

func TestExportFormats(t *testing.T) {
	s := newTestService(t)

	files, err := s.Export(FormatAll, sampleEntries())
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"block-vibe-project.html", "block-vibe-code.js", "block-vibe-project.json"}, names)

	pending := []Entry{{Type: "loop", Description: "later"}}
	files, err = s.Export(FormatAll, pending)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "block-vibe-project.json", files[0].Name)

	_, err = s.Export(FormatAll, nil)
	assert.True(t, errors.Is(err, ErrNothingToExport))
	_, err = s.Export(FormatJS, pending)
	assert.True(t, errors.Is(err, ErrNothingToExport))
	_, err = s.Export("zip", pending)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)
	f, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestProgramExport(t *testing.T) {
	s := newTestService(t)
	code := "console.log(\"Hello, World!\");\n(21 * 2);\n"
	defs := []blocks.Definition{{ID: "custom_1", Name: "greet", Kind: blocks.KindStatement, Code: "console.log(\"Hello, {{INPUT}}!\");"}}

	page, err := s.Program(code, 2)
	require.NoError(t, err)
	assert.Contains(t, page, "(function() {\n    try {\nconsole.log(\"Hello, World!\");")
	assert.Contains(t, page, "2 block(s) executed")

	_, err = s.Program("  \n", 0)
	assert.True(t, errors.Is(err, ErrNothingToExport))

	files, err := s.ExportProgram(FormatAll, code, defs)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "block-vibe-project.json", files[2].Name)
	assert.Contains(t, files[2].Content, `"description": "greet"`)
	assert.Contains(t, files[1].Content, "// Block 1: program - composed palette program")
}
