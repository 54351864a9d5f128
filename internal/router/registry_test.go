package router

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *Interaction) error { return nil }

func claim(context.Context, *Interaction) (bool, error) { return true, nil }

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		cmd          Command
		wantErr      bool
		wantWarnings int
	}{
		{name: "complete", cmd: Command{Name: "ping", Description: "Pong", IsSlashCommand: true, CommandHandler: noop}},
		{name: "missing name", cmd: Command{Description: "x", CommandHandler: noop}, wantErr: true},
		{name: "blank description", cmd: Command{Name: "x", Description: "  ", CommandHandler: noop}, wantErr: true},
		{
			name:    "option without description",
			cmd:     Command{Name: "x", Description: "x", IsSlashCommand: true, CommandHandler: noop, Options: []Option{{Name: "a", Type: OptionString}}},
			wantErr: true,
		},
		{
			name:    "option of unknown type",
			cmd:     Command{Name: "x", Description: "x", IsSlashCommand: true, CommandHandler: noop, Options: []Option{{Name: "a", Description: "a"}}},
			wantErr: true,
		},
		{name: "buttons without handler", cmd: Command{Name: "x", Description: "x", ButtonIDs: []string{"b"}}, wantWarnings: 2},
		{name: "button handler without ids", cmd: Command{Name: "x", Description: "x", ButtonsHandler: claim}, wantWarnings: 1},
		{name: "invocable without handler", cmd: Command{Name: "x", Description: "x", IsMessageCommand: true}, wantWarnings: 1},
		{name: "inert", cmd: Command{Name: "x", Description: "x"}, wantWarnings: 1},
		{name: "listener only", cmd: Command{Name: "x", Description: "x", MentionHandler: noop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := tt.cmd.Validate()
			if tt.wantErr {
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, warnings, tt.wantWarnings, "warnings: %v", warnings)
		})
	}
}

func TestNewRegistryIndexes(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(),
		&Command{Name: "Ping", Description: "Pong", IsSlashCommand: true, IsMessageCommand: true, CommandHandler: noop},
		&Command{Name: "sound", Description: "Sounds", IsMessageCommand: true, CommandHandler: noop,
			ButtonIDs: []string{"stop", "stop", " "}, ButtonsHandler: claim},
		&Command{Name: "quiz", Description: "Quiz", ButtonIDs: []string{"stop", "answer"}, ButtonsHandler: claim},
		&Command{Name: "greet", Description: "Greets", MentionHandler: noop, DMHandler: noop},
		&Command{Name: "log", Description: "Logs", MessageHandler: noop},
		&Command{Name: "", Description: "broken"},
		nil,
	)

	assert.Equal(t, 5, reg.Len())

	cmd, ok := reg.Command("PING")
	require.True(t, ok)
	assert.Equal(t, "ping", cmd.Name)

	assert.True(t, reg.IsSlashCommand("ping"))
	assert.False(t, reg.IsSlashCommand("sound"))
	assert.True(t, reg.IsMessageCommand("sound"))

	claimants := reg.ButtonClaimants("stop")
	require.Len(t, claimants, 2)
	assert.Equal(t, "sound", claimants[0].Name)
	assert.Equal(t, "quiz", claimants[1].Name)
	assert.Equal(t, []string{"stop"}, claimants[0].ButtonIDs)
	assert.Empty(t, reg.ButtonClaimants("missing"))

	assert.Equal(t, []string{"greet"}, names(reg.Listeners(Mention)))
	assert.Equal(t, []string{"greet"}, names(reg.Listeners(DirectMessage)))
	assert.Equal(t, []string{"log"}, names(reg.Listeners(PlainMessage)))
	assert.Empty(t, reg.Listeners(Button))
}

func TestNewRegistryLaterDuplicateWins(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	reg := NewRegistry(zerolog.Nop(),
		&Command{Name: "roll", Description: "Roll", IsSlashCommand: true, MentionHandler: noop,
			CommandHandler: func(context.Context, *Interaction) error { return first }},
		&Command{Name: "other", Description: "Other", MessageHandler: noop},
		&Command{Name: "ROLL", Description: "Roll again", IsMessageCommand: true,
			CommandHandler: func(context.Context, *Interaction) error { return second }},
	)

	require.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"other", "roll"}, names(reg.Commands()))

	cmd, ok := reg.Command("roll")
	require.True(t, ok)
	assert.Equal(t, second, cmd.CommandHandler(context.Background(), nil))
	assert.False(t, reg.IsSlashCommand("roll"), "the replaced definition leaves no slash index behind")
	assert.True(t, reg.IsMessageCommand("roll"))
	assert.Empty(t, reg.Listeners(Mention))
}

func TestSlashDefinitions(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(),
		&Command{Name: "roll", Description: "Roll dice", IsSlashCommand: true, AcceptDM: true, CommandHandler: noop,
			Options: []Option{{Name: "sides", Description: "Sides", Type: OptionInteger, Required: true}}},
		&Command{Name: "secret", Description: "Message only", IsMessageCommand: true, CommandHandler: noop},
	)

	defs := reg.SlashDefinitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "roll", defs[0].Name)
	assert.True(t, defs[0].AcceptDM)
	require.Len(t, defs[0].Options, 1)
	assert.Equal(t, OptionInteger, defs[0].Options[0].Type)
}

func TestOptionTypeText(t *testing.T) {
	b, err := OptionBoolean.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "boolean", string(b))

	var typ OptionType
	require.NoError(t, typ.UnmarshalText([]byte("Decimal")))
	assert.Equal(t, OptionNumber, typ)

	assert.Error(t, typ.UnmarshalText([]byte("float")))
	_, err = OptionType(99).MarshalText()
	assert.Error(t, err)
}
