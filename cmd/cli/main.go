// cmd/cli/main.go
package main

import (
	"fmt"
	"os"

	"github.com/keshon/dispatchbot/internal/commands"
	"github.com/keshon/dispatchbot/internal/config"
	"github.com/keshon/dispatchbot/internal/logging"
	"github.com/keshon/dispatchbot/internal/router"
	"github.com/spf13/cobra"
)

var commandsDir string

var rootCmd = &cobra.Command{
	Use:           "dispatchctl",
	Short:         "Inspect the bot's command registry offline",
	Long:          "Loads the same commands the bot would load, without connecting to Discord, and lets you list, export and classify against them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&commandsDir, "commands-dir", "d", "", "directory of command manifests (defaults to COMMANDS_DIR_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "[ERR]", err)
		os.Exit(1)
	}
}

// loadRegistry assembles the registry from config plus flags. Registry
// warnings go to stderr so command output stays clean.
func loadRegistry() (*router.Registry, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	dir := cfg.CommandsDir
	if commandsDir != "" {
		dir = commandsDir
	}
	log, _, err := logging.New(os.Stderr, logging.Options{Level: "warn", Format: "console"})
	if err != nil {
		return nil, nil, err
	}
	reg := commands.NewRegistry(log, commands.Options{
		Prefix:         cfg.Prefix,
		TalkingToMe:    cfg.TalkingToMe,
		TalkingAboutMe: cfg.TalkingAboutMe,
	}, dir)
	return reg, cfg, nil
}
