package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storycut/config"
	"storycut/store"
	"storycut/studio"
)

var rootCmd = &cobra.Command{
	Use:   "storycut",
	Short: "Turn screenplays into storyboards, generated shots and timelines",
	Long: `Storycut takes a screenplay, breaks it into scenes and shots, generates
stills and video clips for each shot, voices the narration, and assembles
the result into a Final Cut Pro timeline. Run 'storycut serve' for the
HTTP API or use the subcommands directly.`,
}

var (
	configPath string
	verbose    bool
	workers    int
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 2, "concurrent generation workers")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(voiceCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(previewCmd)
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStudio loads config, opens the database and wires the studio. The
// caller must Close the studio.
func openStudio() (*studio.Studio, *config.Config, *zap.Logger, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, nil, nil, err
	}

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, nil, err
	}

	return studio.New(cfg, st, workers, logger), cfg, logger, nil
}

// waitTask polls a submitted task until it finishes, echoing progress.
func waitTask(s *studio.Studio, taskID string) error {
	lastMsg := ""
	for {
		t, err := s.Store.GetTask(taskID)
		if err != nil {
			return err
		}
		if t.Message != "" && t.Message != lastMsg {
			fmt.Printf("  [%3d%%] %s\n", t.Progress, t.Message)
			lastMsg = t.Message
		}
		if t.Status.Terminal() {
			if t.Status != store.TaskStatusCompleted {
				return fmt.Errorf("task %s: %s", t.Status, t.Error)
			}
			if t.ResultPath != "" {
				fmt.Printf("Done: %s\n", t.ResultPath)
			}
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
}
