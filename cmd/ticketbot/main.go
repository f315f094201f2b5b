package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticketbot/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "ticketbot",
		Short:   "Discord support ticket bot",
		Version: version,
		Long: `ticketbot lets guild members open private support channels from a
persistent anchor message and walks their closure through a confirmation.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.CheckCmd())
	rootCmd.AddCommand(cli.AdminTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
