package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storycut/store"
	"storycut/studio"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate images and video clips",
	Long:  "Generate shot stills, shot videos, scene batches and character sheets.",
}

var withVideo bool

var generateShotCmd = &cobra.Command{
	Use:   "shot <shot-id>",
	Short: "Generate a shot's still (and optionally its video)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStudio()
		if err != nil {
			return err
		}
		defer s.Close()

		shotID := args[0]
		t, err := s.GenerateShotImage(shotID)
		if err != nil {
			return err
		}
		fmt.Println("Generating still...")
		if err := waitTask(s, t.ID); err != nil {
			return err
		}

		if !withVideo {
			return nil
		}
		t, err = s.GenerateShotVideo(shotID)
		if err != nil {
			return err
		}
		fmt.Println("Generating video...")
		return waitTask(s, t.ID)
	},
}

var generateSceneCmd = &cobra.Command{
	Use:   "scene <scene-id>",
	Short: "Generate stills for every shot in a scene",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStudio()
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := s.GenerateSceneBatch(args[0])
		if err != nil {
			return err
		}
		fmt.Println("Generating scene...")
		return waitTask(s, t.ID)
	},
}

var generateSheetCmd = &cobra.Command{
	Use:   "sheet <character-id>",
	Short: "Generate a character reference sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStudio()
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := s.GenerateCharacterSheet(args[0])
		if err != nil {
			return err
		}
		fmt.Println("Generating character sheet...")
		return waitTask(s, t.ID)
	},
}

var generateAllCmd = &cobra.Command{
	Use:   "all <project-id>",
	Short: "Generate stills for every scene in a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStudio()
		if err != nil {
			return err
		}
		defer s.Close()
		return generateAllScenes(s, args[0])
	},
}

func generateAllScenes(s *studio.Studio, projectID string) error {
	scenes, err := s.Store.ListScenes(projectID)
	if err != nil {
		return err
	}
	if len(scenes) == 0 {
		return fmt.Errorf("project has no scenes")
	}

	var tasks []*store.Task
	for _, sc := range scenes {
		shots, err := s.Store.ListShotsByScene(sc.ID)
		if err != nil {
			return err
		}
		if len(shots) == 0 {
			continue
		}
		t, err := s.GenerateSceneBatch(sc.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Scene %d: %s (%d shots)\n", sc.Idx, sc.Heading, len(shots))
		tasks = append(tasks, t)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no scenes have shots; run 'storycut import --plan' first")
	}

	for _, t := range tasks {
		if err := waitTask(s, t.ID); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	generateShotCmd.Flags().BoolVar(&withVideo, "video", false, "also animate the shot after the still")

	generateCmd.AddCommand(generateShotCmd)
	generateCmd.AddCommand(generateSceneCmd)
	generateCmd.AddCommand(generateSheetCmd)
	generateCmd.AddCommand(generateAllCmd)
}
