// cmd/discord/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/dispatchbot/internal/commands"
	"github.com/keshon/dispatchbot/internal/config"
	"github.com/keshon/dispatchbot/internal/discord"
	"github.com/keshon/dispatchbot/internal/logging"
)

const appName = "dispatchbot"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERR] Config:", err)
		os.Exit(1)
	}

	log, closer := logging.Must(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer closer.Close()

	log.Info().Str("app", appName).Msg("Starting bot")
	if !cfg.DotenvLoaded {
		log.Info().Msg("No .env file found, using environment only")
	}
	if err := cfg.ValidateForBot(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bot, err := discord.NewBot(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	reg := commands.NewRegistry(log, commands.Options{
		Prefix:         cfg.Prefix,
		TalkingToMe:    cfg.TalkingToMe,
		TalkingAboutMe: cfg.TalkingAboutMe,
		Latency:        bot.Latency,
	}, cfg.CommandsDir)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx, reg); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("Shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Discord bot error")
		}
		cancel()
	}

	log.Info().Msg("Discord bot exited cleanly")
}
