// Package discovery turns YAML command manifests into router commands.
//
// A manifest describes a simple reply command:
//
//	name: rules
//	description: Show the table rules
//	category: Gameplay
//	slash: true
//	message: true
//	reply: "Hello {user}, the rules are pinned."
//	roles: [GM, Player]
//	buttons:
//	  - id: rules-ack
//	    label: Got it
//	    style: success
//	    reply: Thanks!
package discovery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/keshon/dispatchbot/internal/router"
)

// Manifest is the on-disk shape of one command.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`

	Slash     bool `yaml:"slash"`
	Message   bool `yaml:"message"`
	AcceptDM  bool `yaml:"dm_permission"`
	GuildOnly bool `yaml:"guild_only"`

	Reply     string `yaml:"reply"`
	Ephemeral bool   `yaml:"ephemeral"`

	Roles           []string `yaml:"roles"`
	RequireAllRoles bool     `yaml:"require_all_roles"`
	DeniedMessage   string   `yaml:"denied_message"`

	Options []OptionManifest `yaml:"options"`
	Buttons []ButtonManifest `yaml:"buttons"`

	MentionReply string `yaml:"mention_reply"`
	DMReply      string `yaml:"dm_reply"`
}

type OptionManifest struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Type        string           `yaml:"type"`
	Required    bool             `yaml:"required"`
	Choices     []ChoiceManifest `yaml:"choices"`
}

type ChoiceManifest struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// ButtonManifest is a button rendered under the command reply, with the text
// sent back when it is clicked.
type ButtonManifest struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Style    string `yaml:"style"`
	Emoji    string `yaml:"emoji"`
	Reply    string `yaml:"reply"`
	Disabled bool   `yaml:"disabled"`
}

var buttonStyles = map[string]router.ButtonStyle{
	"":          router.ButtonPrimary,
	"primary":   router.ButtonPrimary,
	"secondary": router.ButtonSecondary,
	"success":   router.ButtonSuccess,
	"danger":    router.ButtonDanger,
}

// Command builds the router command described by m.
// Name and description are checked later, at registration.
func (m Manifest) Command() (*router.Command, error) {
	opts, err := m.options()
	if err != nil {
		return nil, err
	}
	buttons, err := m.buttons()
	if err != nil {
		return nil, err
	}

	cmd := &router.Command{
		Name:             m.Name,
		Description:      m.Description,
		Category:         m.Category,
		IsSlashCommand:   m.Slash,
		IsMessageCommand: m.Message,
		Options:          opts,
		AcceptDM:         m.AcceptDM,
		RequiredRoles:    m.Roles,
		RequireAllRoles:  m.RequireAllRoles,
		DeniedMessage:    m.DeniedMessage,
	}

	if m.Reply != "" {
		reply := m.Reply
		ephemeral := m.Ephemeral
		var h router.Handler = func(ctx context.Context, in *router.Interaction) error {
			return in.Reply(ctx, router.Reply{Content: render(reply, in), Components: buttons, Ephemeral: ephemeral})
		}
		if m.GuildOnly {
			h = router.Apply(h, router.WithGuildOnly("This command can only be used in a server."))
		}
		cmd.CommandHandler = h
	}

	if len(m.Buttons) > 0 {
		replies := make(map[string]string, len(m.Buttons))
		for _, b := range m.Buttons {
			cmd.ButtonIDs = append(cmd.ButtonIDs, b.ID)
			replies[b.ID] = b.Reply
		}
		ephemeral := m.Ephemeral
		cmd.ButtonsHandler = func(ctx context.Context, in *router.Interaction) (bool, error) {
			text, ok := replies[in.ButtonID]
			if !ok {
				return false, nil
			}
			if text == "" {
				return true, nil
			}
			return true, in.Reply(ctx, router.Reply{Content: render(text, in), Ephemeral: ephemeral})
		}
	}

	if m.MentionReply != "" {
		cmd.MentionHandler = sayer(m.MentionReply)
	}
	if m.DMReply != "" {
		cmd.DMHandler = sayer(m.DMReply)
	}
	return cmd, nil
}

func (m Manifest) options() ([]router.Option, error) {
	out := make([]router.Option, 0, len(m.Options))
	for _, o := range m.Options {
		typ, err := router.ParseOptionType(o.Type)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", o.Name, err)
		}
		opt := router.Option{Name: o.Name, Description: o.Description, Type: typ, Required: o.Required}
		for _, c := range o.Choices {
			opt.Choices = append(opt.Choices, router.Choice{Name: c.Name, Value: c.Value})
		}
		out = append(out, opt)
	}
	return out, nil
}

func (m Manifest) buttons() ([]router.ButtonSpec, error) {
	var out []router.ButtonSpec
	for _, b := range m.Buttons {
		if strings.TrimSpace(b.ID) == "" {
			return nil, errors.New("button without id")
		}
		style, ok := buttonStyles[strings.ToLower(b.Style)]
		if !ok {
			return nil, fmt.Errorf("button %q: unknown style %q", b.ID, b.Style)
		}
		label := b.Label
		if label == "" {
			label = b.ID
		}
		out = append(out, router.ButtonSpec{ID: b.ID, Label: label, Style: style, Emoji: b.Emoji, Disabled: b.Disabled})
	}
	return out, nil
}

func sayer(text string) router.Handler {
	return func(ctx context.Context, in *router.Interaction) error {
		return in.Say(ctx, render(text, in))
	}
}

var optionPlaceholder = regexp.MustCompile(`\{option:[^}]*\}`)

// render fills {user}, {args} and {option:name} placeholders. Options the
// invocation did not carry render empty.
func render(text string, in *router.Interaction) string {
	pairs := []string{
		"{user}", in.Author.DisplayName,
		"{args}", strings.Join(in.Args, " "),
	}
	for name, v := range in.Options {
		pairs = append(pairs, "{option:"+name+"}", fmt.Sprint(v))
	}
	text = optionPlaceholder.ReplaceAllStringFunc(text, func(p string) string {
		if _, ok := in.Options[p[len("{option:"):len(p)-1]]; ok {
			return p
		}
		return ""
	})
	return strings.NewReplacer(pairs...).Replace(text)
}
