package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/dispatchbot/internal/router"
)

// Ping answers with the gateway latency, as a slash and as a message command.
func Ping(latency func() time.Duration) *router.Command {
	return &router.Command{
		Name:             "ping",
		Description:      "Pong!",
		Category:         categoryInformation,
		IsSlashCommand:   true,
		IsMessageCommand: true,
		AcceptDM:         true,
		CommandHandler: func(ctx context.Context, in *router.Interaction) error {
			return in.Say(ctx, pingMessage(latency))
		},
	}
}

func pingMessage(latency func() time.Duration) string {
	if latency == nil {
		return "🏓 Pong!"
	}
	return fmt.Sprintf("🏓 Pong! Response time: `%dms`", latency().Milliseconds())
}
