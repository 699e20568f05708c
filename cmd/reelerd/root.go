package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reeler/reeler/internal/config"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "reelerd",
	Short: "Media library daemon",
	Long: `reelerd - personal media library daemon

Tracks torrent downloads, validates their content against what was
actually requested, and imports the files into a structured media
library.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			path, err = config.Discover()
			if err != nil {
				return err
			}
		}
		return runServer(cmd.Context(), path)
	},
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: discover)")
	rootCmd.AddCommand(serveCmd, initCmd)

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("reelerd {{.Version}}\n")
}
