package main

import (
	"fmt"
	"os"

	"github.com/northstarhq/northstar/cmd/goalctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "goalctl",
		Short: "Operator tool for the goal reminder engine",
		Long:  "CLI tool for inspecting due goals, running sweeps, and closing cycles by hand",
	}

	rootCmd.AddCommand(commands.NewDueCmd())
	rootCmd.AddCommand(commands.NewSweepCmd())
	rootCmd.AddCommand(commands.NewCloseCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
