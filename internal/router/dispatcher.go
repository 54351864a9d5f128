package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/dispatchbot/pkg/fanout"
	"github.com/rs/zerolog"
)

const (
	// DefaultFailureMessage is the single user-facing text for every non-authorization failure.
	DefaultFailureMessage = "Oh no... Something went wrong..."

	// NothingToDoMessage answers an invocable command that has no command handler.
	NothingToDoMessage = "The command has been received, but there is nothing to do..."
)

// ButtonResult is the tri-state answer of one button claimant.
type ButtonResult int

const (
	NotHandled ButtonResult = iota
	Handled
	Errored
)

func (r ButtonResult) String() string {
	switch r {
	case Handled:
		return "handled"
	case Errored:
		return "errored"
	default:
		return "not_handled"
	}
}

// ButtonOutcome is what one claimant reported for a click.
type ButtonOutcome struct {
	Command string
	Result  ButtonResult
	Err     error
}

// DispatcherOptions tunes a Dispatcher. Zero values are usable.
type DispatcherOptions struct {
	// FailureMessage replaces DefaultFailureMessage.
	FailureMessage string
	// IgnoreBots drops events authored by other bots before routing.
	IgnoreBots bool
	// Roles resolves member roles the transport did not provide.
	Roles RoleDirectory
	// Middlewares wrap every command handler, first is outermost.
	Middlewares []Middleware
}

// Dispatcher classifies inbound events and routes them to registered handlers.
type Dispatcher struct {
	registry   *Registry
	normalizer *Normalizer
	log        zerolog.Logger

	failure    string
	ignoreBots bool
	roles      RoleDirectory
	mws        []Middleware
}

// NewDispatcher wires a registry and a normalizer built over it.
func NewDispatcher(reg *Registry, norm *Normalizer, log zerolog.Logger, opts DispatcherOptions) *Dispatcher {
	failure := opts.FailureMessage
	if failure == "" {
		failure = DefaultFailureMessage
	}
	return &Dispatcher{
		registry:   reg,
		normalizer: norm,
		log:        log,
		failure:    failure,
		ignoreBots: opts.IgnoreBots,
		roles:      opts.Roles,
		mws:        opts.Middlewares,
	}
}

// Registry returns the registry the dispatcher routes over.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch normalizes raw and routes it. Transports call it once per network
// event, each on its own goroutine. The returned error is informational only;
// it has already been logged and, where relevant, answered.
func (d *Dispatcher) Dispatch(ctx context.Context, raw RawEvent) error {
	self := d.normalizer.Self().UserID
	if self != "" && raw.Author.UserID == self {
		return nil
	}
	if raw.Author.IsBot && d.ignoreBots {
		d.log.Debug().Str("user_id", raw.Author.UserID).Msg("Ignoring event from a bot")
		return nil
	}
	return d.Route(ctx, d.normalizer.Normalize(raw))
}

// Route sends one classified interaction to its handler(s).
func (d *Dispatcher) Route(ctx context.Context, in *Interaction) error {
	log := d.log.With().
		Str("interaction_id", in.ID.String()).
		Str("classification", in.Classification.String()).
		Str("user_id", in.Author.UserID).
		Str("guild_id", in.GuildID).
		Str("channel_id", in.ChannelID).
		Logger()

	switch in.Classification {
	case Button:
		return d.routeButton(ctx, in, log.With().Str("button_id", in.ButtonID).Logger())
	case SlashCommand, MessageCommand:
		return d.routeCommand(ctx, in, log.With().Str("command", in.CommandName).Logger())
	case Mention, DirectMessage, PlainMessage:
		d.broadcast(ctx, in, log)
		return nil
	default:
		log.Info().Str("content", truncate(in.Content, 80)).Msg("Dropping unclassified interaction")
		return nil
	}
}

// routeButton asks every claimant of the button id and waits for all of them.
// The click is accepted when at least one claimant handled it.
func (d *Dispatcher) routeButton(ctx context.Context, in *Interaction, log zerolog.Logger) error {
	claimants := d.registry.ButtonClaimants(in.ButtonID)
	if len(claimants) == 0 {
		log.Warn().Msg("No command claims this button")
		return fmt.Errorf("%w: button %q has no claimant", ErrNoHandler, in.ButtonID)
	}

	outcomes := d.askClaimants(ctx, in, claimants)

	handled := false
	for _, o := range outcomes {
		switch o.Result {
		case Handled:
			handled = true
		case Errored:
			log.Error().Err(o.Err).Str("command", o.Command).Msg("Button handler failed")
		}
	}
	if !handled {
		log.Warn().Int("claimants", len(claimants)).Msg("Cannot handle button")
		return fmt.Errorf("%w: button %q", ErrNoHandler, in.ButtonID)
	}
	log.Debug().Int("claimants", len(claimants)).Msg("Button handled")
	return nil
}

func (d *Dispatcher) askClaimants(ctx context.Context, in *Interaction, claimants []*Command) []ButtonOutcome {
	return fanout.Settle(ctx, claimants, 0, func(ctx context.Context, c *Command) ButtonOutcome {
		var handled bool
		err := guard(c.Name, Button, func() error {
			var err error
			handled, err = c.ButtonsHandler(ctx, in)
			return err
		})
		switch {
		case err != nil:
			return ButtonOutcome{Command: c.Name, Result: Errored, Err: err}
		case handled:
			return ButtonOutcome{Command: c.Name, Result: Handled}
		default:
			return ButtonOutcome{Command: c.Name, Result: NotHandled}
		}
	})
}

// routeCommand runs the single command behind a slash or prefixed invocation,
// behind its role gate.
func (d *Dispatcher) routeCommand(ctx context.Context, in *Interaction, log zerolog.Logger) error {
	cmd, ok := d.registry.Command(in.CommandName)
	if !ok {
		log.Error().Msg("Command not found")
		d.replyFailure(ctx, in, log)
		return fmt.Errorf("%w: %q", ErrCommandNotFound, in.CommandName)
	}

	log.Info().Str("content", truncate(in.Content, 80)).Msg("Command triggered")

	if !d.authorized(ctx, cmd, in, log) {
		log.Info().Strs("required_roles", cmd.RequiredRoles).Bool("require_all", cmd.RequireAllRoles).Msg("Command denied")
		if err := in.Reply(ctx, Reply{Content: cmd.DeniedMessage, Ephemeral: true}); err != nil {
			log.Error().Err(err).Msg("Failed to send denial")
		}
		return nil
	}

	if cmd.CommandHandler == nil {
		if err := in.Reply(ctx, Reply{Content: NothingToDoMessage, Ephemeral: true}); err != nil {
			log.Error().Err(err).Msg("Failed to reply")
		}
		return nil
	}

	h := Apply(cmd.CommandHandler, d.mws...)
	if err := guard(cmd.Name, in.Classification, func() error { return h(ctx, in) }); err != nil {
		log.Error().Err(err).
			Str("author", in.Author.DisplayName).
			Strs("args", in.Args).
			Bool("replied", in.Replied()).
			Msg("Error while executing command")
		d.replyFailure(ctx, in, log)
		return err
	}
	return nil
}

// authorized applies the role gate, resolving roles through the directory when
// the event did not carry them. A directory failure denies.
func (d *Dispatcher) authorized(ctx context.Context, cmd *Command, in *Interaction, log zerolog.Logger) bool {
	if len(cmd.RequiredRoles) == 0 {
		return true
	}
	roles := in.Author.Roles
	if roles == nil && d.roles != nil && in.GuildID != "" {
		resolved, err := d.roles.MemberRoles(ctx, in.GuildID, in.Author.UserID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to resolve member roles")
			return false
		}
		roles = resolved
	}
	return Authorize(roles, cmd.RequiredRoles, cmd.RequireAllRoles)
}

// broadcast invokes every listener of a mention, direct or plain message.
// Listeners are best effort: failures are logged one by one.
func (d *Dispatcher) broadcast(ctx context.Context, in *Interaction, log zerolog.Logger) {
	listeners := d.registry.Listeners(in.Classification)
	if len(listeners) == 0 {
		log.Debug().Msg("No listeners")
		return
	}

	errs := fanout.Errors(ctx, listeners, 0, func(ctx context.Context, c *Command) error {
		h := listenerHandler(c, in.Classification)
		return guard(c.Name, in.Classification, func() error { return h(ctx, in) })
	})
	for i, err := range errs {
		log.Error().Err(err).Str("command", listeners[i].Name).Msg("Listener failed")
	}
}

func listenerHandler(c *Command, kind Classification) Handler {
	switch kind {
	case Mention:
		return c.MentionHandler
	case DirectMessage:
		return c.DMHandler
	default:
		return c.MessageHandler
	}
}

func (d *Dispatcher) replyFailure(ctx context.Context, in *Interaction, log zerolog.Logger) {
	if err := in.Reply(ctx, Reply{Content: d.failure, Ephemeral: true}); err != nil && !errors.Is(err, ErrNoReplySink) {
		log.Error().Err(err).Msg("Failed to send failure reply")
	}
}

// guard runs fn and turns a returned error or a panic into a HandlerExecutionError.
func guard(command string, kind Classification, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerExecutionError{Command: command, Classification: kind, Err: fmt.Errorf("%v", r), Panicked: true}
		}
	}()
	if ferr := fn(); ferr != nil {
		return &HandlerExecutionError{Command: command, Classification: kind, Err: ferr}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
