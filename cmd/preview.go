package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"storycut/preview"
	"storycut/store"
	"storycut/storyboard"
)

var (
	previewOut     string
	previewCompose bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <project-id>",
	Short: "Render a contact-sheet preview of a project",
	Long: `Render the project's storyboard as a single PNG. By default the sheet is
laid out in HTML and screenshotted in a headless browser; --compose tiles
the shot stills directly without a browser.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreviewCommand,
}

func init() {
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "output PNG (default <export-dir>/<project>_sheet.png)")
	previewCmd.Flags().BoolVar(&previewCompose, "compose", false, "tile stills directly instead of using a browser")
}

func runPreviewCommand(cmd *cobra.Command, args []string) error {
	s, cfg, logger, err := openStudio()
	if err != nil {
		return err
	}
	defer s.Close()

	projectID := args[0]
	project, err := s.Store.GetProject(projectID)
	if err != nil {
		return err
	}
	scenes, err := s.Store.ListScenes(projectID)
	if err != nil {
		return err
	}

	outPath := previewOut
	if outPath == "" {
		outPath = filepath.Join(s.ExportDir, project.ID+"_sheet.png")
	}

	if previewCompose {
		shots, err := s.Store.ListShotsByProject(projectID)
		if err != nil {
			return err
		}
		var paths []string
		for _, shot := range shots {
			if shot.ImagePath != "" {
				paths = append(paths, shot.ImagePath)
			}
		}
		grid := storyboard.Grid{Rows: cfg.Grid.Rows, Cols: cfg.Grid.Cols}
		for grid.Rows*grid.Cols < len(paths) {
			grid.Rows++
		}
		if err := preview.ComposeSheet(paths, grid, outPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", outPath)
		return nil
	}

	shotsByScene := map[string][]store.Shot{}
	for _, sc := range scenes {
		shots, err := s.Store.ListShotsByScene(sc.ID)
		if err != nil {
			return err
		}
		shotsByScene[sc.ID] = shots
	}

	renderer := preview.NewRenderer(logger)
	if err := renderer.Render(project, scenes, shotsByScene, outPath); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", outPath)
	return nil
}
