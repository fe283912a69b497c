package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var runPlan bool

var importCmd = &cobra.Command{
	Use:   "import <project-id> <screenplay-file>",
	Short: "Import a screenplay into a project",
	Long: `Parse a plain-text screenplay into scenes and characters. With --plan
the LLM breakdown runs afterwards, turning every scene into a shot list.`,
	Args: cobra.ExactArgs(2),
	RunE: runImportCommand,
}

func init() {
	importCmd.Flags().BoolVar(&runPlan, "plan", false, "run the shot breakdown after importing")
}

func runImportCommand(cmd *cobra.Command, args []string) error {
	projectID, scriptPath := args[0], args[1]

	text, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to read screenplay: %v", err)
	}

	s, _, _, err := openStudio()
	if err != nil {
		return err
	}
	defer s.Close()

	scenes, err := s.ImportScript(projectID, string(text))
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d scenes\n", len(scenes))
	for _, sc := range scenes {
		heading := sc.Heading
		if heading == "" {
			heading = "(preamble)"
		}
		fmt.Printf("  %2d  %s\n", sc.Idx, heading)
	}

	if !runPlan {
		return nil
	}

	fmt.Println("Breaking scenes into shots...")
	t, err := s.PlanProject(projectID)
	if err != nil {
		return err
	}
	return waitTask(s, t.ID)
}
