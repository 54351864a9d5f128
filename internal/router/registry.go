package router

import (
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// Registry indexes commands by name, surface and button id.
// It is built once by NewRegistry and only read afterwards.
type Registry struct {
	ordered         []*Command
	byName          map[string]*Command
	slashNames      map[string]struct{}
	messageNames    map[string]struct{}
	buttonClaimants map[string][]*Command

	mentionListeners []*Command
	messageListeners []*Command
	dmListeners      []*Command
}

// NewRegistry validates and indexes cmds in order. Invalid commands are logged and
// left out; a later command with an existing name replaces the earlier one.
func NewRegistry(log zerolog.Logger, cmds ...*Command) *Registry {
	r := &Registry{
		byName:          make(map[string]*Command, len(cmds)),
		slashNames:      make(map[string]struct{}),
		messageNames:    make(map[string]struct{}),
		buttonClaimants: make(map[string][]*Command),
	}

	for _, raw := range cmds {
		if raw == nil {
			continue
		}
		cmd, warnings, err := raw.validated()
		if err != nil {
			log.Error().Err(err).Msg("Command rejected")
			continue
		}
		for _, w := range warnings {
			log.Warn().Str("command", cmd.Name).Msg(w)
		}
		if prev, ok := r.byName[cmd.Name]; ok {
			log.Warn().Str("command", cmd.Name).Msg("Command registered twice; the later definition replaces the earlier one")
			r.ordered = slices.DeleteFunc(r.ordered, func(c *Command) bool { return c == prev })
		}
		r.byName[cmd.Name] = cmd
		r.ordered = append(r.ordered, cmd)
	}

	for _, cmd := range r.ordered {
		r.index(cmd)
	}
	return r
}

func (r *Registry) index(cmd *Command) {
	if cmd.IsSlashCommand {
		r.slashNames[cmd.Name] = struct{}{}
	}
	if cmd.IsMessageCommand {
		r.messageNames[cmd.Name] = struct{}{}
	}
	for _, id := range cmd.ButtonIDs {
		r.buttonClaimants[id] = append(r.buttonClaimants[id], cmd)
	}
	if cmd.MentionHandler != nil {
		r.mentionListeners = append(r.mentionListeners, cmd)
	}
	if cmd.MessageHandler != nil {
		r.messageListeners = append(r.messageListeners, cmd)
	}
	if cmd.DMHandler != nil {
		r.dmListeners = append(r.dmListeners, cmd)
	}
}

// Command looks a command up by name, ignoring case.
func (r *Registry) Command(name string) (*Command, bool) {
	c, ok := r.byName[normalizeName(name)]
	return c, ok
}

// IsSlashCommand reports whether name is registered as a slash command.
func (r *Registry) IsSlashCommand(name string) bool {
	_, ok := r.slashNames[normalizeName(name)]
	return ok
}

// IsMessageCommand reports whether name is registered as a prefixed message command.
func (r *Registry) IsMessageCommand(name string) bool {
	_, ok := r.messageNames[normalizeName(name)]
	return ok
}

// ButtonClaimants returns the commands claiming id, in registration order.
func (r *Registry) ButtonClaimants(id string) []*Command {
	return r.buttonClaimants[id]
}

// Listeners returns the commands listening to a fan-out classification.
func (r *Registry) Listeners(kind Classification) []*Command {
	switch kind {
	case Mention:
		return r.mentionListeners
	case DirectMessage:
		return r.dmListeners
	case PlainMessage:
		return r.messageListeners
	default:
		return nil
	}
}

// Commands returns every registered command in registration order.
func (r *Registry) Commands() []*Command {
	return slices.Clone(r.ordered)
}

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.ordered) }

// SlashDefinitions returns the export of every slash-capable command.
func (r *Registry) SlashDefinitions() []Definition {
	var defs []Definition
	for _, c := range r.ordered {
		if c.IsSlashCommand {
			defs = append(defs, c.Definition())
		}
	}
	return defs
}

// LogSummary writes what the bot is listening to.
func (r *Registry) LogSummary(log zerolog.Logger) {
	log.Info().
		Str("slash_commands", joinOrNone(sortedKeys(r.slashNames))).
		Str("message_commands", joinOrNone(sortedKeys(r.messageNames))).
		Str("buttons", joinOrNone(sortedKeys(r.buttonClaimants))).
		Str("mention_handlers", joinOrNone(names(r.mentionListeners))).
		Str("message_handlers", joinOrNone(names(r.messageListeners))).
		Str("dm_handlers", joinOrNone(names(r.dmListeners))).
		Msg("Commands ready")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func names(cmds []*Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name
	}
	return out
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}
