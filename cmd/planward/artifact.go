package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	artifactCmd.AddCommand(artifactListCmd)
	artifactCmd.AddCommand(artifactShowCmd)
	rootCmd.AddCommand(artifactCmd)
}

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Inspect generated artifacts",
}

var artifactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a session's artifact paths",
	Args:  cobra.NoArgs,
	RunE:  runArtifactList,
}

var artifactShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print one artifact's content",
	Long: `Print the stored content of one artifact.

Examples:
  planward artifact show app/services/watchlist.py -s <session-id>`,
	Args: cobra.ExactArgs(1),
	RunE: runArtifactShow,
}

func runArtifactList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if sessionID == "" {
		return fmt.Errorf("--session is required")
	}
	paths, err := a.store.ListArtifacts(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runArtifactShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if sessionID == "" {
		return fmt.Errorf("--session is required")
	}
	content, err := a.store.GetArtifact(cmd.Context(), sessionID, args[0])
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(content)
	return err
}
