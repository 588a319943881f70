package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/iksnae/deskcorder/internal/catalog"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged sessions",
	Long:  `List the session files recorded by 'deskcorder index'.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer cat.Close()

		entries, err := cat.List(cmd.Context())
		if err != nil {
			return err
		}
		return writeEntries(cmd.OutOrStdout(), entries, listFormat)
	},
}

// listEntry is the JSON form of a catalog entry.
type listEntry struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Format    string    `json:"format"`
	Version   string    `json:"version"`
	Duration  float64   `json:"duration"`
	Events    int       `json:"events"`
	Slides    int       `json:"slides"`
	Strokes   int       `json:"strokes"`
	Audio     int       `json:"audio"`
	IndexedAt time.Time `json:"indexed_at"`
}

func writeEntries(w io.Writer, entries []catalog.Entry, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		writeEntriesTable(w, entries)
		return nil
	case "json":
		out := make([]listEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, listEntry{
				ID:        e.ID,
				Path:      e.Path,
				Format:    string(e.Format),
				Version:   e.Version.String(),
				Duration:  e.Summary.Duration,
				Events:    e.Summary.Events,
				Slides:    e.Summary.Slides,
				Strokes:   e.Summary.Strokes,
				Audio:     e.Summary.Audio,
				IndexedAt: e.IndexedAt,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json)", format)
	}
}

func writeEntriesTable(w io.Writer, entries []catalog.Entry) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, WidthMax: 60},
		{Number: 3, Align: text.AlignCenter},
		{Number: 4, Align: text.AlignCenter},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignLeft},
	})
	tw.AppendHeader(table.Row{"ID", "Path", "Format", "Version", "Duration", "Slides", "Strokes", "Audio", "Indexed"})

	for _, e := range entries {
		tw.AppendRow(table.Row{
			e.ID[:8],
			e.Path,
			e.Format,
			e.Version.String(),
			formatSeconds(e.Summary.Duration),
			e.Summary.Slides,
			e.Summary.Strokes,
			e.Summary.Audio,
			e.IndexedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	if len(entries) == 0 {
		tw.AppendRow(table.Row{"-", "(no sessions)", "-", "-", "0:00", 0, 0, 0, "-"})
	}
	tw.Render()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listFormat, "format", "table", "Output format (table, json)")
}
