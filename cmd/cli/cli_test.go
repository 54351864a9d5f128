package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/keshon/dispatchbot/internal/commands"
	"github.com/keshon/dispatchbot/internal/router"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *router.Registry {
	stop := &router.Command{
		Name:      "playsound",
		ButtonIDs: []string{"playsound-stop"},
		ButtonsHandler: func(context.Context, *router.Interaction) (bool, error) {
			return true, nil
		},
	}
	return router.NewRegistry(zerolog.Nop(), append(commands.Builtins(commands.Options{}), stop)...)
}

func TestClassify(t *testing.T) {
	reg := testRegistry()
	base := classifyFlags{prefix: "!", botName: "Marvin", botID: "42"}

	tests := []struct {
		name    string
		flags   func(f classifyFlags) classifyFlags
		content string
		want    router.Classification
	}{
		{"message command", nil, "!ping now", router.MessageCommand},
		{"unknown command falls through", nil, "!nope", router.PlainMessage},
		{"mention by name", nil, "hey Marvin", router.Mention},
		{"mention by id", func(f classifyFlags) classifyFlags { f.mentions = []string{"42"}; return f }, "hi", router.Mention},
		{"direct message", func(f classifyFlags) classifyFlags { f.dm = true; return f }, "hello", router.DirectMessage},
		{"slash", func(f classifyFlags) classifyFlags { f.slash = "help"; return f }, "", router.SlashCommand},
		{"unknown slash", func(f classifyFlags) classifyFlags { f.slash = "nope"; return f }, "", router.Unclassified},
		{"button", func(f classifyFlags) classifyFlags { f.button = "playsound-stop"; return f }, "", router.Button},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			if tt.flags != nil {
				f = tt.flags(f)
			}
			assert.Equal(t, tt.want, classify(reg, f, tt.content).Classification)
		})
	}
}

func TestWriteClassification(t *testing.T) {
	reg := testRegistry()
	var buf bytes.Buffer

	in := classify(reg, classifyFlags{prefix: "!", button: "playsound-stop"}, "")
	require.NoError(t, writeClassification(&buf, reg, in))
	assert.Equal(t, "classification: button\nclaimants: playsound\n", buf.String())

	buf.Reset()
	in = classify(reg, classifyFlags{prefix: "!"}, "!ping fast")
	require.NoError(t, writeClassification(&buf, reg, in))
	assert.Equal(t, "classification: message_command\ncommand: ping\nargs: fast\n", buf.String())
}

func TestWriteList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeList(&buf, testRegistry().Commands(), "!"))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "/ping")
	assert.Contains(t, out, "!help")
	assert.Contains(t, out, "playsound-stop")
	assert.Contains(t, out, "mention,dm")
}
