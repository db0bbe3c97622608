package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dayplan/core/cmd/api/commands"
	_ "github.com/dayplan/core/docs"
)

// @title DayPlan API
// @version 1.0
// @description Personal task planner with recurring-task templates, virtual occurrences and per-occurrence overrides.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "dayplan",
		Short: "DayPlan API Server",
		Long:  `DayPlan is a personal task planner built around a deterministic recurrence engine: templates expand into virtual occurrences, edits promote occurrences into durable overrides, and deletions are excluded dates that never regenerate.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
