package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/keshon/dispatchbot/internal/router"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rulesManifest = `
name: Rules
description: Show the table rules
category: Gameplay
slash: true
message: true
reply: "Hello {user}, rules for {args}{option:table}."
roles: [GM, Player]
options:
  - name: table
    description: Which table
    type: string
    choices:
      - name: Main
        value: main
buttons:
  - id: rules-ack
    label: Got it
    style: success
    reply: Thanks {user}!
  - id: rules-silent
`

type sink struct {
	mu      sync.Mutex
	replies []router.Reply
}

func (s *sink) Reply(_ context.Context, r router.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, r)
	return nil
}

func (s *sink) FollowUp(ctx context.Context, r router.Reply) error { return s.Reply(ctx, r) }

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestParseManifest(t *testing.T) {
	cmd, err := Parse([]byte(rulesManifest))
	require.NoError(t, err)

	assert.Equal(t, "Rules", cmd.Name)
	assert.Equal(t, "Gameplay", cmd.Category)
	assert.True(t, cmd.IsSlashCommand)
	assert.True(t, cmd.IsMessageCommand)
	assert.Equal(t, []string{"GM", "Player"}, cmd.RequiredRoles)
	assert.Equal(t, []string{"rules-ack", "rules-silent"}, cmd.ButtonIDs)
	require.Len(t, cmd.Options, 1)
	assert.Equal(t, router.OptionString, cmd.Options[0].Type)
	require.Len(t, cmd.Options[0].Choices, 1)
	assert.Equal(t, "main", cmd.Options[0].Choices[0].Value)
	require.NotNil(t, cmd.CommandHandler)
	require.NotNil(t, cmd.ButtonsHandler)
	assert.Nil(t, cmd.MentionHandler)
}

func TestManifestHandlersThroughDispatcher(t *testing.T) {
	cmd, err := Parse([]byte(rulesManifest))
	require.NoError(t, err)

	reg := router.NewRegistry(zerolog.Nop(), cmd)
	norm := router.NewNormalizer(reg, "!", router.Identity{UserID: "bot", DisplayName: "Marvin"}, nil)
	d := router.NewDispatcher(reg, norm, zerolog.Nop(), router.DispatcherOptions{})

	author := router.Author{UserID: "u", DisplayName: "Arthur", Roles: router.Roles("Player")}

	s := &sink{}
	require.NoError(t, d.Dispatch(context.Background(), router.RawEvent{
		Kind: router.EventMessage, Content: "!rules tonight", GuildID: "g", Author: author, Sink: s,
	}))
	require.Len(t, s.replies, 1)
	assert.Equal(t, "Hello Arthur, rules for tonight.", s.replies[0].Content)
	require.Len(t, s.replies[0].Components, 2)
	assert.Equal(t, router.ButtonSuccess, s.replies[0].Components[0].Style)
	assert.Equal(t, "rules-silent", s.replies[0].Components[1].Label)

	s = &sink{}
	require.NoError(t, d.Dispatch(context.Background(), router.RawEvent{
		Kind: router.EventComponent, ButtonID: "rules-ack", GuildID: "g", Author: author, Sink: s,
	}))
	require.Len(t, s.replies, 1)
	assert.Equal(t, "Thanks Arthur!", s.replies[0].Content)

	s = &sink{}
	require.NoError(t, d.Dispatch(context.Background(), router.RawEvent{
		Kind: router.EventComponent, ButtonID: "rules-silent", GuildID: "g", Author: author, Sink: s,
	}))
	assert.Empty(t, s.replies)
}

func TestGuildOnlyManifest(t *testing.T) {
	cmd, err := Parse([]byte("name: secret\ndescription: d\nmessage: true\nguild_only: true\nreply: ok\n"))
	require.NoError(t, err)

	s := &sink{}
	in := router.NewNormalizer(router.NewRegistry(zerolog.Nop(), cmd), "!", router.Identity{}, nil).
		Normalize(router.RawEvent{Content: "!secret", Sink: s})
	require.NoError(t, cmd.CommandHandler(context.Background(), in))
	require.Len(t, s.replies, 1)
	assert.True(t, s.replies[0].Ephemeral)
	assert.NotEqual(t, "ok", s.replies[0].Content)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":  "name: a\ndescription: b\nslashh: true\n",
		"option type":  "name: a\ndescription: b\noptions:\n  - name: x\n    description: y\n    type: float\n",
		"button style": "name: a\ndescription: b\nbuttons:\n  - id: x\n    style: purple\n",
		"button id":    "name: a\ndescription: b\nbuttons:\n  - label: x\n",
		"invalid yaml": "name: [a\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b.yaml", "name: beta\ndescription: B\nmessage: true\nreply: b\n")
	write(t, dir, "a.yml", "name: alpha\ndescription: A\nslash: true\nreply: a\n")
	write(t, dir, "nested/c.yml", "name: gamma\ndescription: C\nmention_reply: hi\n")
	write(t, dir, "broken.yml", "name: [\n")
	write(t, dir, "notes.txt", "name: ignored\n")

	cmds, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yml")

	var names []string
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names)
}

func TestLoadDirEdgeCases(t *testing.T) {
	cmds, err := LoadDir("")
	assert.NoError(t, err)
	assert.Empty(t, cmds)

	_, err = LoadDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestShippedManifests(t *testing.T) {
	cmds, err := LoadDir(filepath.Join("..", "..", "commands"))
	require.NoError(t, err)
	require.Len(t, cmds, 3)

	reg := router.NewRegistry(zerolog.Nop(), cmds...)
	for _, c := range reg.Commands() {
		_, err := c.Validate()
		assert.NoError(t, err, c.Name)
	}
	assert.True(t, reg.IsSlashCommand("announce"))
	assert.False(t, reg.IsMessageCommand("announce"))
	assert.Len(t, reg.ButtonClaimants("rules-ack"), 1)
}

func TestRenderLeavesUserTextAlone(t *testing.T) {
	tests := []struct {
		name string
		text string
		in   *router.Interaction
		want string
	}{
		{
			name: "missing option renders empty",
			text: "rolled {option:sides}!",
			in:   &router.Interaction{},
			want: "rolled !",
		},
		{
			name: "placeholder typed in args survives",
			text: "{user} said {args}",
			in:   &router.Interaction{Author: router.Author{DisplayName: "Ford"}, Args: []string{"{option:x}", "{user}"}},
			want: "Ford said {option:x} {user}",
		},
		{
			name: "placeholder inside an option value survives",
			text: "📢 {option:text} {option:missing}",
			in:   &router.Interaction{Options: map[string]any{"text": "see {option:missing}"}},
			want: "📢 see {option:missing} ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(tt.text, tt.in))
		})
	}
}
