package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storycut/storyboard"
)

var (
	splitRows   int
	splitCols   int
	splitOutDir string
)

var splitCmd = &cobra.Command{
	Use:   "split <sheet-image>",
	Short: "Split a storyboard contact sheet into panels",
	Long: `Slice a contact-sheet image into per-panel files on a fixed grid.
Panels are written row-major as <base>_r<row>c<col> with the sheet's format.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplitCommand,
}

func init() {
	splitCmd.Flags().IntVarP(&splitRows, "rows", "r", 3, "grid rows")
	splitCmd.Flags().IntVarP(&splitCols, "cols", "c", 3, "grid columns")
	splitCmd.Flags().StringVarP(&splitOutDir, "out", "o", ".", "output directory")
}

func runSplitCommand(cmd *cobra.Command, args []string) error {
	grid := storyboard.Grid{Rows: splitRows, Cols: splitCols}
	paths, err := storyboard.SplitFile(args[0], splitOutDir, grid)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	fmt.Printf("Wrote %d panels\n", len(paths))
	return nil
}
