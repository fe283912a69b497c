package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var voiceCmd = &cobra.Command{
	Use:   "voice <project-id>",
	Short: "Voice the narration for every shot in a project",
	Long: `Render narration audio for each shot that has narration text, using the
configured TTS command. Existing audio files are kept; only gaps are filled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStudio()
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := s.NarrateProject(args[0])
		if err != nil {
			return err
		}
		fmt.Println("Voicing narration...")
		return waitTask(s, t.ID)
	},
}
