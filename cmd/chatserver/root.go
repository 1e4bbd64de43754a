package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/agentrooms/pkg/version"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:     "chatserver",
	Short:   "Multi-agent chat room server",
	Long:    `chatserver runs the actor-based chat room runtime: rooms, agent personas, and projects communicating over a shared effect-dispatching core, exposed over REST and WebSocket.`,
	Version: version.Full(),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
