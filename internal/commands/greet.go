package commands

import (
	"context"

	"github.com/keshon/dispatchbot/internal/router"
)

// Greet answers mentions and direct messages. An explicit @-mention is
// talking to the bot; its bare name in a sentence is talking about it.
func Greet(toMe, aboutMe string) *router.Command {
	return &router.Command{
		Name:        "greet",
		Description: "Replies when someone talks to or about the bot.",
		Category:    categoryInformation,
		MentionHandler: func(ctx context.Context, in *router.Interaction) error {
			if in.MentionsBot || in.IsDirectMessage {
				return in.Say(ctx, toMe)
			}
			return in.Say(ctx, aboutMe)
		},
		DMHandler: func(ctx context.Context, in *router.Interaction) error {
			return in.Say(ctx, toMe)
		},
	}
}
