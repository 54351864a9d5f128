package router

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Middleware wraps a command handler (logging, metrics, extra checks).
type Middleware func(next Handler) Handler

// Apply wraps h with mws; the first middleware in the list is the outermost.
func Apply(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// WithCommandLog logs every command execution with its duration and outcome.
func WithCommandLog(log zerolog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, in *Interaction) error {
			start := time.Now()
			err := next(ctx, in)
			ev := log.Info()
			if err != nil {
				ev = log.Warn().Err(err)
			}
			ev.Str("command", in.CommandName).
				Str("classification", in.Classification.String()).
				Str("user_id", in.Author.UserID).
				Str("guild_id", in.GuildID).
				Dur("took", time.Since(start)).
				Msg("Command executed")
			return err
		}
	}
}

// WithGuildOnly refuses commands invoked outside a guild.
func WithGuildOnly(message string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, in *Interaction) error {
			if in.IsDirectMessage {
				return in.Reply(ctx, Reply{Content: message, Ephemeral: true})
			}
			return next(ctx, in)
		}
	}
}
