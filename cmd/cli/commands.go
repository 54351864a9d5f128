package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/keshon/dispatchbot/internal/discord"
	"github.com/keshon/dispatchbot/internal/router"
	"github.com/spf13/cobra"
)

var exportRaw bool

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Work with the registered commands",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered command and how it can be reached",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, cfg, err := loadRegistry()
		if err != nil {
			return err
		}
		return writeList(cmd.OutOrStdout(), reg.Commands(), cfg.Prefix)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the slash command definitions as JSON",
	Long:  "Prints the payload the bot would submit to Discord. With --raw the router's own definitions are printed instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, _, err := loadRegistry()
		if err != nil {
			return err
		}
		var payload any = discord.ApplicationCommands(reg.SlashDefinitions())
		if exportRaw {
			payload = reg.SlashDefinitions()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportRaw, "raw", false, "print router definitions instead of the Discord payload")
	commandsCmd.AddCommand(listCmd, exportCmd)
	rootCmd.AddCommand(commandsCmd)
}

func writeList(w io.Writer, cmds []*router.Command, prefix string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSLASH\tMESSAGE\tBUTTONS\tLISTENS\tROLES")
	for _, c := range cmds {
		slash, message := "-", "-"
		if c.IsSlashCommand {
			slash = "/" + c.Name
		}
		if c.IsMessageCommand {
			message = prefix + c.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Name, slash, message, orDash(c.ButtonIDs), orDash(listens(c)), orDash(c.RequiredRoles))
	}
	return tw.Flush()
}

func listens(c *router.Command) []string {
	var out []string
	if c.MentionHandler != nil {
		out = append(out, "mention")
	}
	if c.DMHandler != nil {
		out = append(out, "dm")
	}
	if c.MessageHandler != nil {
		out = append(out, "message")
	}
	return out
}

func orDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ",")
}
