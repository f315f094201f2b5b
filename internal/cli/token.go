package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spec-kit/ticketbot/internal/auth"
	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/domain"
)

// AdminTokenCmd returns the command that issues an ops API token.
func AdminTokenCmd() *cobra.Command {
	var operator string
	var ttlMinutes int

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Issue a bearer token for the ops API admin routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if ttlMinutes <= 0 {
				ttlMinutes = cfg.Admin.TokenTTLMinutes
			}
			tokens := auth.NewTokenManager(cfg.Admin.JWTSecret, ttlMinutes)
			raw, meta, err := tokens.GenerateToken(operator, domain.SubjectTypeOperator)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, raw)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s for %s, expires %s\n",
				color.New(color.FgGreen).Sprint("issued"),
				operator,
				meta.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "operator", "Subject recorded in the token")
	cmd.Flags().IntVar(&ttlMinutes, "ttl", 0, "Token lifetime in minutes (default ADMIN_TOKEN_TTL_MINUTES)")
	return cmd
}
