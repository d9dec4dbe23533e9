package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"blockvibe/internal/blocks"
	"blockvibe/internal/gateway/app"
	"blockvibe/internal/gateway/service/export"
	"blockvibe/internal/gateway/service/palette"
	"blockvibe/internal/gateway/service/synthesis"
)

var (
	synthKind   string
	synthInput  bool
	listOutput  string
	exportFmt   string
	exportOut   string
	exportInput string
)

var synthCmd = &cobra.Command{
	Use:   "synth <description>",
	Short: "Synthesize a block from a description and register it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc := strings.Join(args, " ")
		return withApp(cmd.Context(), func(a *app.App) error {
			res, err := a.Synthesis.Synthesize(cmd.Context(), synthesis.Request{
				Description: desc,
				Kind:        synthKind,
				HasInput:    synthInput,
			})
			if err != nil {
				return err
			}
			if res.Fallback {
				fmt.Fprintf(os.Stderr, "model unavailable (%s), registered fallback block\n", res.Reason)
			}
			return printBlocks(cmd, []blocks.Definition{res.Definition})
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered blocks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			return printBlocks(cmd, a.Registry.List())
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove one registered block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			return a.Registry.Remove(cmd.Context(), args[0])
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every registered block",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			return a.Registry.ClearAll(cmd.Context())
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [id...]",
	Short: "Compose registered blocks into a program and export it",
	Long: `Compose the named blocks, or every registered block in catalog order,
into one program and write it in the chosen format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFmt)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			ids := args
			if len(ids) == 0 {
				for _, d := range a.Registry.List() {
					ids = append(ids, d.ID)
				}
			}
			placements := make([]palette.Placement, 0, len(ids))
			defs := make([]blocks.Definition, 0, len(ids))
			for _, id := range ids {
				def, err := a.Registry.Get(id)
				if err != nil {
					return err
				}
				defs = append(defs, def)
				placements = append(placements, palette.Placement{ID: id, Input: exportInput})
			}
			code, err := a.Palette.Compose(placements)
			if err != nil {
				return err
			}
			files, err := a.Export.ExportProgram(format, code, defs)
			if err != nil {
				return err
			}
			return writeFiles(exportOut, files)
		})
	},
}

func printBlocks(cmd *cobra.Command, defs []blocks.Definition) error {
	if defs == nil {
		defs = []blocks.Definition{}
	}
	out := cmd.OutOrStdout()
	switch strings.ToLower(strings.TrimSpace(listOutput)) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(defs); err != nil {
			return err
		}
		return enc.Close()
	case "", "table":
		for _, d := range defs {
			fmt.Fprintf(out, "%-20s %-10s %-8s %s\n", d.ID, d.Kind, d.Color, d.Name)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output %q", listOutput)
	}
}

func writeFiles(dir string, files []export.File) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintln(os.Stderr, "wrote", path)
	}
	return nil
}

func init() {
	synthCmd.Flags().StringVar(&synthKind, "kind", "", "Preferred block kind: statement, value or boolean")
	synthCmd.Flags().BoolVar(&synthInput, "input", false, "Ask for a block that takes one input")
	for _, c := range []*cobra.Command{synthCmd, listCmd} {
		c.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json or yaml")
	}
	exportCmd.Flags().StringVarP(&exportFmt, "format", "f", "html", "Export format: html, js, json or all")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "Directory to write exported files to")
	exportCmd.Flags().StringVar(&exportInput, "value", "", "Input text substituted into blocks that take one")
}
