package router

import (
	"slices"
	"strings"
	"unicode"

	"github.com/bwmarrin/snowflake"
)

// EventKind is the shape of a raw event as delivered by the transport.
type EventKind int

const (
	EventMessage EventKind = iota
	EventCommand
	EventComponent
	EventOther
)

// RawEvent is what a transport hands to the dispatcher for one network event.
type RawEvent struct {
	Kind        EventKind
	Author      Author
	Content     string
	GuildID     string
	ChannelID   string
	Locale      string
	CommandName string
	Options     map[string]any
	ButtonID    string
	MentionIDs  []string
	Sink        ReplySink
}

// Identity is the bot's own identity, used for mention detection and self filtering.
type Identity struct {
	UserID      string
	DisplayName string
}

// RegistryView is the part of the registry classification depends on.
type RegistryView interface {
	IsSlashCommand(name string) bool
	IsMessageCommand(name string) bool
}

// Normalizer turns raw events into classified interactions.
type Normalizer struct {
	view   RegistryView
	prefix string
	self   Identity
	ids    *snowflake.Node
}

// NewNormalizer returns a normalizer. ids may be nil, leaving interaction IDs at zero.
func NewNormalizer(view RegistryView, prefix string, self Identity, ids *snowflake.Node) *Normalizer {
	return &Normalizer{view: view, prefix: prefix, self: self, ids: ids}
}

// Prefix returns the configured message-command prefix.
func (n *Normalizer) Prefix() string { return n.prefix }

// Self returns the bot identity used for mention checks.
func (n *Normalizer) Self() Identity { return n.self }

// Normalize builds the Interaction for raw. It sends nothing and has no side effects
// besides allocating the interaction and its trace id.
func (n *Normalizer) Normalize(raw RawEvent) *Interaction {
	in := &Interaction{
		Author:          raw.Author,
		Content:         raw.Content,
		ChannelID:       raw.ChannelID,
		GuildID:         raw.GuildID,
		Locale:          raw.Locale,
		Options:         raw.Options,
		ButtonID:        raw.ButtonID,
		IsDirectMessage: raw.GuildID == "",
		sink:            raw.Sink,
	}
	in.Author.GuildID = raw.GuildID
	if n.ids != nil {
		in.ID = n.ids.Generate()
	}

	in.MentionsBot = n.isAddressed(raw)
	in.Classification, in.CommandName, in.Args = n.classify(raw, in.MentionsBot)
	return in
}

// classify applies the fixed priority order: button, slash, prefixed message command,
// mention, direct message, plain message.
func (n *Normalizer) classify(raw RawEvent, addressed bool) (Classification, string, []string) {
	if raw.ButtonID != "" {
		return Button, "", nil
	}

	if raw.CommandName != "" {
		name := normalizeName(raw.CommandName)
		if n.view.IsSlashCommand(name) {
			return SlashCommand, name, nil
		}
		return Unclassified, "", nil
	}

	if raw.Kind != EventMessage {
		return Unclassified, "", nil
	}

	if name, args, ok := n.messageCommand(raw.Content); ok {
		return MessageCommand, name, args
	}

	if addressed || n.mentionsName(raw.Content) {
		return Mention, "", nil
	}

	if raw.GuildID == "" {
		return DirectMessage, "", nil
	}
	return PlainMessage, "", nil
}

// messageCommand matches "<prefix><name> args..." against known message commands.
func (n *Normalizer) messageCommand(content string) (string, []string, bool) {
	if n.prefix == "" || !strings.HasPrefix(content, n.prefix) {
		return "", nil, false
	}
	rest := content[len(n.prefix):]
	if rest == "" || unicode.IsSpace(rune(rest[0])) {
		return "", nil, false
	}
	fields := strings.Fields(rest)
	name := normalizeName(fields[0])
	if !n.view.IsMessageCommand(name) {
		return "", nil, false
	}
	return name, fields[1:], true
}

// isAddressed reports an explicit @-style reference to the bot.
func (n *Normalizer) isAddressed(raw RawEvent) bool {
	id := n.self.UserID
	if id == "" {
		return false
	}
	if slices.Contains(raw.MentionIDs, id) {
		return true
	}
	return strings.Contains(raw.Content, "<@"+id+">") || strings.Contains(raw.Content, "<@!"+id+">")
}

// mentionsName reports whether the bot's display name appears as whole words.
func (n *Normalizer) mentionsName(content string) bool {
	name := words(n.self.DisplayName)
	if len(name) == 0 {
		return false
	}
	text := words(content)
	for i := 0; i+len(name) <= len(text); i++ {
		if slices.Equal(text[i:i+len(name)], name) {
			return true
		}
	}
	return false
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
