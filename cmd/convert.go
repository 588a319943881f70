package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/fileio"
	"github.com/iksnae/deskcorder/internal/session"
)

var convertVersion string

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a session between containers and schema versions",
	Long: `Load a session and save it again. The output container follows the
output file's extension (.dcb, .dcd, .dcx, .dct); binary and directory
containers are written with --schema, or DESKCORDER_SAVE_VERSION.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := args[0], args[1]
		opts, err := fileOptions(convertVersion)
		if err != nil {
			return err
		}
		if !opts.Version.Supported() {
			return &fileio.VersionError{Version: opts.Version}
		}

		var l *session.Log
		steps := []internal.ProgressStep{
			{
				Message: fmt.Sprintf("Reading %s", in),
				Fn: func() error {
					var v fileio.Version
					var err error
					if l, v, err = fileio.Load(cmd.Context(), in, opts); err != nil {
						return err
					}
					internal.LogInfo("Read %s (version %s, %d events)", in, v, l.Len())
					return nil
				},
			},
			{
				Message: fmt.Sprintf("Writing %s", out),
				Fn: func() error {
					return fileio.Save(cmd.Context(), out, l, opts)
				},
			},
		}
		if err := internal.ShowProgressWithSteps(cmd.Context(), steps); err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Wrote %s", out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertVersion, "schema", "", "Schema version to write (0.1.0 through 0.3.0)")
}
