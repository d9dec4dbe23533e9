package export

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"blockvibe/internal/blocks"
	"blockvibe/internal/util/jsonutil"
)

// FormatVersion is written into every JSON export.
const FormatVersion = "1.0"

const (
	isoMillis    = "2006-01-02T15:04:05.000Z07:00"
	jsonFileName = "block-vibe-project.json"
)

var ErrNothingToExport = errors.New("export: no blocks with generated code")

type Format string

const (
	FormatHTML Format = "html"
	FormatJS   Format = "js"
	FormatJSON Format = "json"
	FormatAll  Format = "all"
)

// ParseFormat maps a query value to a Format; empty means html.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatJS, FormatJSON, FormatAll:
		return f, nil
	default:
		return "", fmt.Errorf("export: unsupported format %q", s)
	}
}

// Entry is one exportable block.
type Entry struct {
	Type        string
	Description string
	Code        string
	Generated   bool
}

func (e Entry) executable() bool {
	return e.Generated && strings.TrimSpace(e.Code) != ""
}

// File is one downloadable export document.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

//go:embed templates/*.html
var templateFiles embed.FS

var (
	scriptClose = regexp.MustCompile(`(?i)</script`)

	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func plainText() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// Service renders previews and export bundles. It never evaluates code.
type Service struct {
	now       func() time.Time
	preview   *pongo2.Template
	project   *pongo2.Template
	titleText string
}

func New() (*Service, error) {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return nil, err
	}
	set := pongo2.NewSet("export", pongo2.NewFSLoader(sub))
	preview, err := set.FromFile("preview.html")
	if err != nil {
		return nil, fmt.Errorf("export: load preview template: %w", err)
	}
	project, err := set.FromFile("project.html")
	if err != nil {
		return nil, fmt.Errorf("export: load project template: %w", err)
	}
	return &Service{
		now:       time.Now,
		preview:   preview,
		project:   project,
		titleText: "Block Vibe Coding - Output",
	}, nil
}

func executableOnly(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.executable() {
			out = append(out, e)
		}
	}
	return out
}

// oneLine collapses whitespace so text can sit inside a // comment.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// EmbedScript makes code safe to place inside an inline script element.
func EmbedScript(code string) string {
	return scriptClose.ReplaceAllString(code, `<\/script`)
}

// wrapBlockCode calls blockCode after code that declares functions.
func wrapBlockCode(code string) string {
	if !strings.Contains(code, "function ") {
		return code
	}
	return code + "\n        if (typeof blockCode === 'function') {\n            blockCode();\n        }"
}

// Executor combines executable entries into one IIFE in which every block
// runs inside its own try/catch, so one failing block does not stop the rest.
func Executor(entries []Entry) string {
	var b strings.Builder
	b.WriteString("(function() {\n    'use strict';\n    window.blockVariables = {};\n    window.blockFunctions = {};\n")
	for i, e := range executableOnly(entries) {
		fmt.Fprintf(&b, "\n    // --- %s block %d: %s ---\n", oneLine(e.Type), i+1, oneLine(e.Description))
		b.WriteString("    try {\n        ")
		b.WriteString(wrapBlockCode(e.Code))
		fmt.Fprintf(&b, "\n    } catch (error) {\n        console.error('block %d failed:', error);\n    }\n", i+1)
	}
	b.WriteString("})();\n")
	return b.String()
}

// Preview renders the isolated execution page for the executable entries.
func (s *Service) Preview(entries []Entry) (string, error) {
	exec := executableOnly(entries)
	if len(exec) == 0 {
		return "", ErrNothingToExport
	}
	return s.preview.Execute(pongo2.Context{
		"title":      s.titleText,
		"blockCount": len(exec),
		"script":     EmbedScript(Executor(exec)),
	})
}

// Script renders the plain JavaScript bundle: a header and one section per
// executable entry.
func (s *Service) Script(entries []Entry) (string, error) {
	exec := executableOnly(entries)
	if len(exec) == 0 {
		return "", ErrNothingToExport
	}
	var b strings.Builder
	b.WriteString("// Block Vibe Coding - generated code\n")
	fmt.Fprintf(&b, "// Generated: %s\n\n", s.now().UTC().Format(isoMillis))
	for i, e := range exec {
		b.WriteString("// ========================================\n")
		fmt.Fprintf(&b, "// Block %d: %s - %s\n", i+1, oneLine(e.Type), oneLine(e.Description))
		b.WriteString("// ========================================\n\n")
		b.WriteString(e.Code + "\n\n")
	}
	return b.String(), nil
}

type jsonBlock struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Generated   bool   `json:"generated"`
}

type jsonDocument struct {
	Version    string      `json:"version"`
	ExportDate string      `json:"exportDate"`
	Blocks     []jsonBlock `json:"blocks"`
}

// JSON renders every entry, executable or not, as block data.
func (s *Service) JSON(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", ErrNothingToExport
	}
	doc := jsonDocument{
		Version:    FormatVersion,
		ExportDate: s.now().UTC().Format(isoMillis),
		Blocks:     make([]jsonBlock, 0, len(entries)),
	}
	for _, e := range entries {
		doc.Blocks = append(doc.Blocks, jsonBlock{Type: e.Type, Description: e.Description, Code: e.Code, Generated: e.Generated})
	}
	raw, err := jsonutil.MarshalNoEscapeIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type listedBlock struct {
	Type        string
	Description string
}

// HTML renders the standalone project page with run and clear controls.
func (s *Service) HTML(entries []Entry) (string, error) {
	exec := executableOnly(entries)
	if len(exec) == 0 {
		return "", ErrNothingToExport
	}
	script, err := s.Script(exec)
	if err != nil {
		return "", err
	}
	listed := make([]listedBlock, 0, len(exec))
	for _, e := range exec {
		listed = append(listed, listedBlock{
			Type:        plainText().Sanitize(e.Type),
			Description: plainText().Sanitize(e.Description),
		})
	}
	return s.project.Execute(pongo2.Context{
		"exportDate": s.now().UTC().Format(isoMillis),
		"blocks":     listed,
		"script":     EmbedScript(script),
	})
}

// Export renders the documents for format. FormatAll yields every document
// the entries support; it fails only when there is nothing at all.
func (s *Service) Export(format Format, entries []Entry) ([]File, error) {
	switch format {
	case FormatHTML:
		return s.one(s.HTML, entries, "block-vibe-project.html", "text/html; charset=utf-8")
	case FormatJS:
		return s.one(s.Script, entries, "block-vibe-code.js", "text/javascript; charset=utf-8")
	case FormatJSON:
		return s.one(s.JSON, entries, jsonFileName, "application/json")
	case FormatAll:
		var out []File
		for _, f := range []Format{FormatHTML, FormatJS, FormatJSON} {
			files, err := s.Export(f, entries)
			if errors.Is(err, ErrNothingToExport) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
		}
		if len(out) == 0 {
			return nil, ErrNothingToExport
		}
		return out, nil
	default:
		return nil, fmt.Errorf("export: unsupported format %q", format)
	}
}

func (s *Service) one(render func([]Entry) (string, error), entries []Entry, name, contentType string) ([]File, error) {
	content, err := render(entries)
	if err != nil {
		return nil, err
	}
	return []File{{Name: name, ContentType: contentType, Content: content}}, nil
}

// ProgramEntries turns registered definitions into export entries; a
// composed palette program is one generated entry per placed definition.
func ProgramEntries(defs []blocks.Definition) []Entry {
	out := make([]Entry, 0, len(defs))
	for _, d := range defs {
		desc := d.Description
		if strings.TrimSpace(desc) == "" {
			desc = d.Name
		}
		out = append(out, Entry{Type: string(d.Kind), Description: desc, Code: d.Code, Generated: true})
	}
	return out
}

// Program renders a composed palette program as an isolated page: the whole
// program runs inside one closure guarded by a single try/catch.
func (s *Service) Program(code string, blockCount int) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrNothingToExport
	}
	script := "(function() {\n    try {\n" + code + "\n    } catch (error) {\n        console.error('Error: ' + error.message);\n    }\n})();\n"
	return s.preview.Execute(pongo2.Context{
		"title":      s.titleText,
		"blockCount": blockCount,
		"script":     EmbedScript(script),
	})
}

// ExportProgram renders a composed program in format. JSON lists the
// definitions the program was composed from.
func (s *Service) ExportProgram(format Format, code string, defs []blocks.Definition) ([]File, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrNothingToExport
	}
	entry := []Entry{{Type: "program", Description: "composed palette program", Code: code, Generated: true}}
	switch format {
	case FormatJSON:
		return s.Export(FormatJSON, ProgramEntries(defs))
	case FormatAll:
		files, err := s.Export(FormatAll, entry)
		if err != nil {
			return nil, err
		}
		data, err := s.Export(FormatJSON, ProgramEntries(defs))
		if err != nil && !errors.Is(err, ErrNothingToExport) {
			return nil, err
		}
		out := make([]File, 0, len(files))
		for _, f := range files {
			if f.Name != jsonFileName {
				out = append(out, f)
			}
		}
		return append(out, data...), nil
	default:
		return s.Export(format, entry)
	}
}
