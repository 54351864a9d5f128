package router

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// DefaultDeniedMessage is sent when a command sets no denial message of its own.
const DefaultDeniedMessage = "You do not have the required roles to use this command."

// Handler runs a command, a mention, a plain-message or a direct-message listener.
type Handler func(ctx context.Context, in *Interaction) error

// ButtonHandler is asked about every click on a claimed button id.
// It returns handled=false when the click belongs to another claimant.
type ButtonHandler func(ctx context.Context, in *Interaction) (handled bool, err error)

// OptionType is the value type of a slash option.
type OptionType int

const (
	OptionString OptionType = iota + 1
	OptionInteger
	OptionBoolean
	OptionUser
	OptionChannel
	OptionRole
	OptionMentionable
	OptionNumber
	OptionAttachment
)

var optionTypeNames = map[OptionType]string{
	OptionString:      "string",
	OptionInteger:     "integer",
	OptionBoolean:     "boolean",
	OptionUser:        "user",
	OptionChannel:     "channel",
	OptionRole:        "role",
	OptionMentionable: "mentionable",
	OptionNumber:      "number",
	OptionAttachment:  "attachment",
}

func (t OptionType) String() string {
	if s, ok := optionTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("option(%d)", int(t))
}

// MarshalText renders the type name in exported definitions.
func (t OptionType) MarshalText() ([]byte, error) {
	if _, ok := optionTypeNames[t]; !ok {
		return nil, fmt.Errorf("unknown option type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText accepts the names used in command manifests.
func (t *OptionType) UnmarshalText(b []byte) error {
	parsed, err := ParseOptionType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseOptionType maps a type name to an OptionType. "decimal" is accepted for number.
func ParseOptionType(s string) (OptionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "decimal" {
		return OptionNumber, nil
	}
	for t, name := range optionTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown option type %q", s)
}

// Choice is a fixed value offered for an option.
type Choice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Option is one declared parameter of a slash command.
type Option struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        OptionType `json:"type"`
	Required    bool       `json:"required,omitempty"`
	Choices     []Choice   `json:"choices,omitempty"`
}

// Definition is the serializable slash-command export.
type Definition struct {
	Name                     string   `json:"name"`
	Description              string   `json:"description"`
	Options                  []Option `json:"options,omitempty"`
	AcceptDM                 bool     `json:"dm_permission"`
	DefaultMemberPermissions int64    `json:"default_member_permissions,omitempty"`
}

// Command is a named unit of behaviour. Every handler field is optional;
// which ones are set decides where the command is listening.
type Command struct {
	Name        string
	Description string
	// Category groups commands in help listings.
	Category string

	IsSlashCommand   bool
	IsMessageCommand bool

	// Export metadata for slash commands.
	Options                  []Option
	AcceptDM                 bool
	DefaultMemberPermissions int64

	ButtonIDs []string

	RequiredRoles   []string
	RequireAllRoles bool
	DeniedMessage   string

	CommandHandler Handler
	ButtonsHandler ButtonHandler
	MentionHandler Handler
	MessageHandler Handler
	DMHandler      Handler
}

// Validate checks the definition. A returned error means the command must not be
// registered; warnings describe recoverable problems.
func (c *Command) Validate() (warnings []string, err error) {
	_, warnings, err = c.validated()
	return warnings, err
}

// Definition returns the slash export of c.
func (c *Command) Definition() Definition {
	return Definition{
		Name:                     c.Name,
		Description:              c.Description,
		Options:                  slices.Clone(c.Options),
		AcceptDM:                 c.AcceptDM,
		DefaultMemberPermissions: c.DefaultMemberPermissions,
	}
}

// handlesAnything reports whether any surface or listener is declared.
func (c *Command) handlesAnything() bool {
	return c.IsSlashCommand || c.IsMessageCommand || len(c.ButtonIDs) > 0 ||
		c.MentionHandler != nil || c.MessageHandler != nil || c.DMHandler != nil
}

// validated returns a normalized copy of c, ready for indexing.
func (c *Command) validated() (*Command, []string, error) {
	out := *c
	out.Name = normalizeName(c.Name)
	out.Description = strings.TrimSpace(c.Description)
	if out.Name == "" {
		return nil, nil, &ConfigurationError{Reason: "a command must have a name"}
	}
	if out.Description == "" {
		return nil, nil, &ConfigurationError{Command: out.Name, Reason: "a command must have a description"}
	}
	for _, o := range out.Options {
		if strings.TrimSpace(o.Name) == "" || strings.TrimSpace(o.Description) == "" {
			return nil, nil, &ConfigurationError{Command: out.Name, Reason: "every option needs a name and a description"}
		}
		if _, ok := optionTypeNames[o.Type]; !ok {
			return nil, nil, &ConfigurationError{Command: out.Name, Reason: fmt.Sprintf("option %q has unknown type %d", o.Name, int(o.Type))}
		}
	}

	var warnings []string
	ids := make([]string, 0, len(c.ButtonIDs))
	for _, id := range c.ButtonIDs {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	out.ButtonIDs = ids
	out.Options = slices.Clone(c.Options)
	out.RequiredRoles = slices.Clone(c.RequiredRoles)
	if out.DeniedMessage == "" {
		out.DeniedMessage = DefaultDeniedMessage
	}

	if len(out.ButtonIDs) > 0 && out.ButtonsHandler == nil {
		warnings = append(warnings, fmt.Sprintf("command %q declares buttons %v but has no buttons handler; buttons ignored", out.Name, out.ButtonIDs))
		out.ButtonIDs = nil
	}
	if len(out.ButtonIDs) == 0 && out.ButtonsHandler != nil {
		warnings = append(warnings, fmt.Sprintf("command %q has a buttons handler but declares no button ids", out.Name))
	}
	if (out.IsSlashCommand || out.IsMessageCommand) && out.CommandHandler == nil {
		warnings = append(warnings, fmt.Sprintf("command %q is invocable but has no command handler", out.Name))
	}
	if !out.handlesAnything() && out.CommandHandler == nil && out.ButtonsHandler == nil {
		warnings = append(warnings, fmt.Sprintf("command %q is not handling anything", out.Name))
	}
	return &out, warnings, nil
}
