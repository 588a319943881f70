package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/catalog"
)

var (
	indexPrune bool
	indexForce bool
)

var indexCmd = &cobra.Command{
	Use:   "index [file]...",
	Short: "Add session files to the catalog",
	Long: `Load each file and record its summary in the catalog so 'deskcorder list'
can show it. Files that fail to load are reported and skipped. With --prune,
entries whose files are gone are removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !indexPrune {
			return fmt.Errorf("nothing to do: give files to index or --prune")
		}
		opts, err := fileOptions("")
		if err != nil {
			return err
		}
		cat, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer cat.Close()

		indexed, failed := 0, 0
		for _, path := range args {
			e, err := cat.IndexFile(cmd.Context(), path, opts)
			if err != nil {
				internal.LogError("Failed to index %s: %v", path, err)
				failed++
				continue
			}
			internal.LogInfo("Indexed %s (%s)", e.Path, e.ID)
			indexed++
		}
		if indexPrune {
			gone, err := cat.Prune(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range gone {
				internal.LogInfo("Pruned %s", e.Path)
			}
			internal.PrintInfo(fmt.Sprintf("Pruned %d missing file(s)", len(gone)))
		}
		if len(args) > 0 {
			internal.PrintSuccess(fmt.Sprintf("Indexed %d file(s)", indexed))
		}
		if failed > 0 && !indexForce {
			return fmt.Errorf("%d file(s) could not be indexed", failed)
		}
		return nil
	},
}

func openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	path := cfg.CatalogPath
	if path == "" {
		var err error
		if path, err = catalog.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return catalog.Open(ctx, path)
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexPrune, "prune", false, "Remove entries whose files no longer exist")
	indexCmd.Flags().BoolVar(&indexForce, "keep-going", false, "Exit successfully even if some files fail to index")
}
