package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Export a project to a Final Cut Pro timeline",
	Long: `Assemble the project's generated clips, stills and narration into an
FCPXML file under the export directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStudio()
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := s.ExportProject(args[0])
		if err != nil {
			return err
		}
		fmt.Println("Exporting timeline...")
		return waitTask(s, t.ID)
	},
}
