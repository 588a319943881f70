package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/export"
	"github.com/iksnae/deskcorder/internal/fileio"
)

var (
	format       string
	outputPath   string
	exportWidth  int
	exportHeight int
	exportTimes  []float64
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export a session to another format",
	Long: fmt.Sprintf(`Export a session as an event dump (json, jsonl, yaml), a stroke table
(csv), canvas snapshots (pdf, png) or its audio track (wav).

Snapshots are taken at the end of every slide, or at each --at time.

Supported formats: %s`, strings.Join(export.Formats(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		exporter, err := export.NewExporter(format, export.Options{
			Width:      exportWidth,
			Height:     exportHeight,
			Times:      exportTimes,
			SampleRate: cfg.SampleRate,
		})
		if err != nil {
			return err
		}
		opts, err := fileOptions("")
		if err != nil {
			return err
		}
		l, _, err := fileio.Load(cmd.Context(), in, opts)
		if err != nil {
			return err
		}

		out := outputPath
		if out == "" {
			base := filepath.Base(strings.TrimRight(in, `/\`))
			out = strings.TrimSuffix(base, filepath.Ext(base)) + "." + exporter.Extension()
		}

		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %s to %s", in, out), func() error {
			f, err := os.Create(out)
			if err != nil {
				return &internal.StorageError{Path: out, Op: "write", Err: err}
			}
			if err := exporter.Export(l, f); err != nil {
				_ = f.Close()
				_ = os.Remove(out)
				return &internal.ExportError{Format: format, Path: out, Err: err}
			}
			return f.Close()
		})
		if err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Export complete: %s", out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "Export format")
	exportCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output file (default: input name with the format's extension)")
	exportCmd.Flags().IntVar(&exportWidth, "width", 0, "Page or image width (pdf, png)")
	exportCmd.Flags().IntVar(&exportHeight, "height", 0, "Page or image height (pdf, png)")
	exportCmd.Flags().Float64SliceVar(&exportTimes, "at", nil, "Snapshot times in seconds from the session start (pdf, png)")
}
