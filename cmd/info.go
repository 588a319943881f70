package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/fileio"
	"github.com/iksnae/deskcorder/internal/session"
)

var infoJSON bool

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(10)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// sessionInfo is what info prints for one file.
type sessionInfo struct {
	Path    string         `json:"path"`
	Format  fileio.Format  `json:"format"`
	Version string         `json:"version"`
	Summary fileio.Summary `json:"summary"`
}

var infoCmd = &cobra.Command{
	Use:   "info <file>...",
	Short: "Summarize session files",
	Long:  `Load each session file and print its container, schema version and contents.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := fileOptions("")
		if err != nil {
			return err
		}
		infos := make([]sessionInfo, 0, len(args))
		for _, path := range args {
			l, v, err := fileio.Load(cmd.Context(), path, opts)
			if err != nil {
				return err
			}
			infos = append(infos, newSessionInfo(path, v, l))
		}

		out := cmd.OutOrStdout()
		if infoJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}
		for i, info := range infos {
			if i > 0 {
				fmt.Fprintln(out)
			}
			printInfo(out, info)
		}
		return nil
	},
}

func newSessionInfo(path string, v fileio.Version, l *session.Log) sessionInfo {
	return sessionInfo{
		Path:    path,
		Format:  fileio.FormatFor(path),
		Version: v.String(),
		Summary: fileio.Summarize(l),
	}
}

func printInfo(w io.Writer, info sessionInfo) {
	render := func(s lipgloss.Style, v string) string {
		if internal.IsTerminal(w) {
			return s.Render(v)
		}
		return v
	}
	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", render(labelStyle, label), value)
	}
	count := func(n int) string { return render(countStyle, strconv.Itoa(n)) }

	fmt.Fprintln(w, render(headerStyle, info.Path))
	row("Format", fmt.Sprintf("%s (%s)", info.Format, fileio.Formats[info.Format]))
	row("Version", info.Version)
	row("Duration", formatSeconds(info.Summary.Duration))
	row("Events", count(info.Summary.Events))
	row("Slides", count(info.Summary.Slides))
	row("Strokes", count(info.Summary.Strokes))
	row("Points", count(info.Summary.Points))
	row("Moves", count(info.Summary.Moves))
	row("Audio", count(info.Summary.Audio))
}

func formatSeconds(s float64) string {
	total := int(s + 0.5)
	h, m, sec := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Print JSON instead of text")
}
