package main

import (
	"fmt"
	"os"

	"github.com/cuinixam/scrap/pkg/scrap"
	"github.com/spf13/cobra"
)

// RunE wraps a command handler so errors are printed once and turn into a
// non-zero exit code, without cobra re-printing usage on top.
func RunE(handler func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		if err := handler(cmd, args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return nil
	}
}

func getScrap(cmd *cobra.Command) (*scrap.Scrap, error) {
	rootDir, err := cmd.Flags().GetString("root")
	if err != nil {
		return nil, fmt.Errorf("error reading root flag: %w", err)
	}
	if rootDir == "" {
		rootDir, err = scrap.DefaultRootDir()
		if err != nil {
			return nil, err
		}
	}

	manager, err := scrap.New(rootDir)
	if err != nil {
		return nil, err
	}

	progress := newConsoleProgress()
	manager.DownloadProgress = progress.update
	manager.ExtractProgress = progress.update
	return manager, nil
}
