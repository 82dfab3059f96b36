package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "mentorbridge",
	Short: "Conversation-state and profile-sync service for mentor copilots",
	Long: `mentorbridge keeps learner profiles, conversation history, and career
advice requests in sync between the chat surface and the advice backend.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mentorbridge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mentorbridge version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(serveCmd, statusCmd, versionCmd, learnersCmd, chatCmd)
}

func main() {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
