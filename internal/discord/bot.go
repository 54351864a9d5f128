// Package discord connects the router to a Discord gateway session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/snowflake"
	"github.com/keshon/dispatchbot/internal/config"
	"github.com/keshon/dispatchbot/internal/router"
	"github.com/keshon/dispatchbot/pkg/retrylimit"
	"github.com/rs/zerolog"
)

// drainTimeout bounds how long shutdown waits for in-flight handlers.
const drainTimeout = 10 * time.Second

// Bot is a Discord bot
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config
	log     zerolog.Logger

	ids        *snowflake.Node
	roles      *RoleDirectory
	exporter   *Exporter
	dispatcher *router.Dispatcher

	mu       sync.Mutex
	closing  bool
	inflight sync.WaitGroup
}

// NewBot prepares a session; nothing is opened until Run.
func NewBot(cfg *config.Config, log zerolog.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}

	log = log.With().Str("component", "discord").Logger()
	return &Bot{
		session:  dg,
		cfg:      cfg,
		log:      log,
		ids:      node,
		roles:    NewRoleDirectory(dg, cfg.RoleCacheSize, cfg.RoleCacheTTL),
		exporter: newExporter(dg, log),
	}, nil
}

// Latency is the last heartbeat round trip.
func (b *Bot) Latency() time.Duration {
	return b.session.HeartbeatLatency()
}

// Run resolves the bot identity, wires the dispatcher over reg, opens the
// gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context, reg *router.Registry) error {
	me, err := b.self(ctx)
	if err != nil {
		return err
	}
	self := router.Identity{UserID: me.ID, DisplayName: me.Username}
	if b.cfg.BotName != "" {
		self.DisplayName = b.cfg.BotName
	}

	b.dispatcher = router.NewDispatcher(reg,
		router.NewNormalizer(reg, b.cfg.Prefix, self, b.ids),
		b.log,
		router.DispatcherOptions{
			FailureMessage: b.cfg.GenericError,
			IgnoreBots:     bool(b.cfg.IgnoreBots),
			Roles:          b.roles,
			Middlewares:    []router.Middleware{router.WithCommandLog(b.log)},
		},
	)

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	b.log.Info().
		Str("name", self.DisplayName).
		Str("prefix", b.cfg.Prefix).
		Bool("dev_mode", bool(b.cfg.DevMode)).
		Msg("Gateway connected")
	reg.LogSummary(b.log)

	if b.cfg.InitSlashCommands {
		if err := b.exportCommands(ctx, me.ID, reg); err != nil {
			b.log.Error().Err(err).Msg("Error registering slash commands")
		}
	} else {
		b.log.Info().Msg("Registering slash commands skipped")
	}

	<-ctx.Done()
	b.log.Info().Msg("Shutdown signal received, waiting for running handlers")
	if err := b.session.Close(); err != nil {
		b.log.Warn().Err(err).Msg("Error closing gateway")
	}
	b.drain()
	return nil
}

func (b *Bot) self(ctx context.Context) (*discordgo.User, error) {
	var me *discordgo.User
	policy := retrylimit.DefaultPolicy()
	policy.Status = restStatus
	policy.Log = &b.log
	err := retrylimit.Do(ctx, nil, policy, func() error {
		var err error
		me, err = b.session.User("@me", discordgo.WithContext(ctx))
		if restStatus(err) == 401 {
			return retrylimit.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving bot user: %w", err)
	}
	return me, nil
}

func (b *Bot) exportCommands(ctx context.Context, appID string, reg *router.Registry) error {
	guildID := ""
	if b.cfg.DevMode {
		guildID = b.cfg.GuildID
	}
	_, err := b.exporter.Export(ctx, appID, guildID, reg.SlashDefinitions())
	return err
}

// drain stops accepting events, then waits for the running handlers.
func (b *Bot) drain() {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		b.log.Warn().Dur("timeout", drainTimeout).Msg("Some handlers are still running, leaving them behind")
	}
}

// dispatch routes one event on its own goroutine so a slow handler never
// holds up the gateway.
func (b *Bot) dispatch(raw router.RawEvent) {
	b.mu.Lock()
	if b.closing {
		b.mu.Unlock()
		b.log.Debug().Str("channel_id", raw.ChannelID).Msg("Shutting down, event dropped")
		return
	}
	b.inflight.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.inflight.Done()
		err := b.dispatcher.Dispatch(context.Background(), raw)
		if err != nil && !errors.Is(err, router.ErrNoHandler) {
			b.log.Debug().Err(err).Msg("Dispatch finished with error")
		}
	}()
}
