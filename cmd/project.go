package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  "Create, list and remove storycut projects.",
}

var projectStyle string
var projectLogline string

var projectNewCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStudio()
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := s.Store.CreateProject(args[0], projectLogline, projectStyle)
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s (%s)\n", p.Title, p.ID)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStudio()
		if err != nil {
			return err
		}
		defer s.Close()

		projects, err := s.Store.ListProjects()
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("No projects yet. Create one with 'storycut project new'.")
			return nil
		}
		for _, p := range projects {
			scenes, err := s.Store.ListScenes(p.ID)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %-24s style=%-10s scenes=%d\n", p.ID, p.Title, p.Style, len(scenes))
		}
		return nil
	},
}

var projectRmCmd = &cobra.Command{
	Use:   "rm <project-id>",
	Short: "Delete a project and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStudio()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Store.DeleteProject(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted project %s\n", args[0])
		return nil
	},
}

func init() {
	projectNewCmd.Flags().StringVar(&projectStyle, "style", "cinematic", "visual style preset")
	projectNewCmd.Flags().StringVar(&projectLogline, "logline", "", "one-line synopsis")

	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectRmCmd)
}
