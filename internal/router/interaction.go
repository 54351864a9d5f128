package router

import (
	"context"
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Classification is the single kind of interaction an inbound event represents.
type Classification int

const (
	Unclassified Classification = iota
	Button
	SlashCommand
	MessageCommand
	Mention
	DirectMessage
	PlainMessage
)

func (c Classification) String() string {
	switch c {
	case Button:
		return "button"
	case SlashCommand:
		return "slash_command"
	case MessageCommand:
		return "message_command"
	case Mention:
		return "mention"
	case DirectMessage:
		return "direct_message"
	case PlainMessage:
		return "message"
	default:
		return "unclassified"
	}
}

// Author identifies the user behind an event.
type Author struct {
	UserID      string
	DisplayName string
	IsBot       bool
	// Roles is nil when the transport did not resolve them.
	Roles   RoleSet
	GuildID string
}

// ButtonStyle mirrors the usual chat-platform button colours.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

// ButtonSpec describes a clickable button attached to a reply.
type ButtonSpec struct {
	ID       string
	Label    string
	Style    ButtonStyle
	Emoji    string
	Disabled bool
}

// Reply is the uniform payload every handler sends back.
type Reply struct {
	Content    string
	Components []ButtonSpec
	Ephemeral  bool
}

// ReplySink is provided by the transport for each event.
// The router calls Reply at most once per interaction and FollowUp afterwards.
type ReplySink interface {
	Reply(ctx context.Context, r Reply) error
	FollowUp(ctx context.Context, r Reply) error
}

// Interaction is the normalized form of one inbound event.
// Everything but the replied flag is fixed at construction.
type Interaction struct {
	ID             snowflake.ID
	Author         Author
	Content        string
	ChannelID      string
	GuildID        string
	Locale         string
	CommandName    string
	Args           []string
	Options        map[string]any
	ButtonID       string
	MentionsBot    bool
	Classification Classification

	IsDirectMessage bool

	sink    ReplySink
	mu      sync.Mutex
	replied bool
}

// Replied reports whether a first reply has already been sent.
func (i *Interaction) Replied() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.replied
}

// Reply sends r as the first reply, or as a follow-up once a reply exists.
// A failed first reply is retried once as a follow-up, as the platform may
// already hold an acknowledgement for this interaction.
func (i *Interaction) Reply(ctx context.Context, r Reply) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.sink == nil {
		return ErrNoReplySink
	}
	if i.replied {
		return i.sink.FollowUp(ctx, r)
	}

	i.replied = true
	err := i.sink.Reply(ctx, r)
	if err == nil {
		return nil
	}
	if ferr := i.sink.FollowUp(ctx, r); ferr != nil {
		return errors.Join(err, ferr)
	}
	return nil
}

// Say is a shorthand for a plain public reply.
func (i *Interaction) Say(ctx context.Context, content string) error {
	return i.Reply(ctx, Reply{Content: content})
}

// Option returns a slash option value by name.
func (i *Interaction) Option(name string) (any, bool) {
	v, ok := i.Options[name]
	return v, ok
}
