package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/keshon/dispatchbot/internal/router"
	"github.com/spf13/cobra"
)

type classifyFlags struct {
	dm       bool
	button   string
	slash    string
	prefix   string
	botName  string
	botID    string
	mentions []string
}

var cf classifyFlags

var classifyCmd = &cobra.Command{
	Use:   "classify [content]",
	Short: "Show how an event would be routed",
	Long:  "Classifies a message, slash command or button click against the loaded registry and prints the result.",
	Example: `  dispatchctl classify '!ping'
  dispatchctl classify --dm 'hello there'
  dispatchctl classify --slash help
  dispatchctl classify --button playsound-stop`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, cfg, err := loadRegistry()
		if err != nil {
			return err
		}
		flags := cf
		if flags.prefix == "" {
			flags.prefix = cfg.Prefix
		}
		if flags.botName == "" {
			flags.botName = cfg.BotName
		}
		in := classify(reg, flags, strings.Join(args, " "))
		return writeClassification(cmd.OutOrStdout(), reg, in)
	},
}

func init() {
	f := classifyCmd.Flags()
	f.BoolVar(&cf.dm, "dm", false, "treat the event as a direct message")
	f.StringVar(&cf.button, "button", "", "classify a click on this button id")
	f.StringVar(&cf.slash, "slash", "", "classify a slash command with this name")
	f.StringVar(&cf.prefix, "prefix", "", "message command prefix (defaults to PREFIX)")
	f.StringVar(&cf.botName, "bot-name", "", "bot display name used for mentions (defaults to BOT_NAME)")
	f.StringVar(&cf.botID, "bot-id", "0", "bot user id used for mentions")
	f.StringSliceVar(&cf.mentions, "mention", nil, "user ids mentioned by the message")
	classifyCmd.MarkFlagsMutuallyExclusive("button", "slash")
	rootCmd.AddCommand(classifyCmd)
}

func classify(reg *router.Registry, f classifyFlags, content string) *router.Interaction {
	raw := router.RawEvent{
		Kind:       router.EventMessage,
		Author:     router.Author{UserID: "1", DisplayName: "cli"},
		Content:    content,
		ChannelID:  "cli",
		MentionIDs: f.mentions,
	}
	if !f.dm {
		raw.GuildID = "cli"
	}
	switch {
	case f.button != "":
		raw.Kind = router.EventComponent
		raw.ButtonID = f.button
	case f.slash != "":
		raw.Kind = router.EventCommand
		raw.CommandName = f.slash
	}
	self := router.Identity{UserID: f.botID, DisplayName: f.botName}
	return router.NewNormalizer(reg, f.prefix, self, nil).Normalize(raw)
}

func writeClassification(w io.Writer, reg *router.Registry, in *router.Interaction) error {
	fmt.Fprintf(w, "classification: %s\n", in.Classification)
	switch in.Classification {
	case router.SlashCommand, router.MessageCommand:
		fmt.Fprintf(w, "command: %s\n", in.CommandName)
		if len(in.Args) > 0 {
			fmt.Fprintf(w, "args: %s\n", strings.Join(in.Args, " "))
		}
	case router.Button:
		fmt.Fprintf(w, "claimants: %s\n", orDash(names(reg.ButtonClaimants(in.ButtonID))))
	case router.Mention, router.DirectMessage, router.PlainMessage:
		fmt.Fprintf(w, "listeners: %s\n", orDash(names(reg.Listeners(in.Classification))))
	}
	return nil
}

func names(cmds []*router.Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Name)
	}
	return out
}
