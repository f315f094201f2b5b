package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spec-kit/ticketbot/internal/config"
)

// CheckCmd returns the command that validates configuration without
// connecting anywhere.
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate environment and guild configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", color.New(color.FgRed).Sprint("INVALID"), err)
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	ok := color.New(color.FgGreen).Sprint("OK")
	warn := color.New(color.FgYellow).Sprint("!")

	token := ok
	if cfg.Discord.Token == "" {
		token = color.New(color.FgRed).Sprint("MISSING")
	}
	fmt.Fprintf(w, "Discord token: %s\n", token)
	secret := ok
	if cfg.InsecureAdminSecret() {
		secret = color.New(color.FgRed).Sprintf("DEFAULT (run refuses to start with APP_ENV=%s)", cfg.App.Env)
	} else if cfg.Admin.JWTSecret == config.DefaultAdminSecret {
		secret = warn + " default (development only)"
	}
	fmt.Fprintf(w, "Admin secret:  %s\n", secret)
	fmt.Fprintf(w, "Anchor store:  %s\n", cfg.Store.Anchor)
	fmt.Fprintf(w, "Cooldown:      %s (%s store)\n", cfg.Tickets.Cooldown(), cfg.Store.Cooldown)
	fmt.Fprintf(w, "Guilds file:   %s (%d guilds)\n", cfg.Discord.GuildsFile, len(cfg.Guilds))

	for _, g := range cfg.Guilds {
		fmt.Fprintf(w, "\n  %s %s\n", ok, g.GuildID)
		fmt.Fprintf(w, "      anchor:   %s\n", g.AnchorChannelID)
		if g.ParentCategoryID == "" {
			fmt.Fprintf(w, "      category: %s (tickets land at the top level)\n", warn)
		}
		if g.AuditChannelID == "" {
			fmt.Fprintf(w, "      audit:    %s (no audit channel)\n", warn)
		}
		if g.RequiredRoleID == "" {
			fmt.Fprintf(w, "      closers:  members with Manage Channels\n")
		} else {
			fmt.Fprintf(w, "      closers:  role %s\n", g.RequiredRoleID)
		}
	}
}
