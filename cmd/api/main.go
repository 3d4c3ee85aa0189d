package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tasktracker",
		Short: "Personal task tracker API server",
		Long:  `A personal task-tracking service with filtering, sorting and a per-day workload calendar, backed by Postgres or an embedded SQLite file.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
