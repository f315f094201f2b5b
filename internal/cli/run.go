package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	discordapi "github.com/spec-kit/ticketbot/internal/api/discord"
	"github.com/spec-kit/ticketbot/internal/app"
	"github.com/spec-kit/ticketbot/internal/clock"
	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/observability"
	"github.com/spec-kit/ticketbot/internal/platform"
)

// RunCmd returns the command that connects the bot and serves the ops API.
func RunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and handle ticket interactions",
		Long: `Connect to the Discord gateway, publish the anchor message of every
configured guild and handle ticket buttons until interrupted.

The ops HTTP API (health, status, admin) listens on HTTP_HOST:HTTP_PORT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.InsecureAdminSecret() {
		return fmt.Errorf("ADMIN_JWT_SECRET must be set when APP_ENV=%s", cfg.App.Env)
	}
	if cfg.Discord.Token == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if len(cfg.Guilds) == 0 {
		return fmt.Errorf("no guilds configured in %s", cfg.Discord.GuildsFile)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	bot := app.New(cfg, platform.NewDiscord(session), stores, clock.NewRealClock(), logger)
	router := discordapi.NewRouter(bot.Lifecycle, bot.Anchors, bot.Presence, logger)
	router.Register(session)

	if err := session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer session.Close() //nolint:errcheck

	server := bot.HTTP(router.Connected)
	go func() {
		if err := server.Listen(cfg.App.Addr()); err != nil {
			logger.Error("ops api stopped", zap.Error(err))
		}
	}()

	logger.Info("ticketbot running", zap.Int("guilds", len(cfg.Guilds)), zap.String("http_addr", cfg.App.Addr()))
	<-ctx.Done()
	logger.Info("shutting down")

	if err := server.ShutdownWithTimeout(5 * time.Second); err != nil {
		logger.Warn("ops api shutdown", zap.Error(err))
	}
	bot.Dispatcher.Wait()
	return nil
}
