package discord

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/dispatchbot/internal/router"
	"github.com/keshon/dispatchbot/pkg/retrylimit"
	"github.com/rs/zerolog"
)

var optionTypes = map[router.OptionType]discordgo.ApplicationCommandOptionType{
	router.OptionString:      discordgo.ApplicationCommandOptionString,
	router.OptionInteger:     discordgo.ApplicationCommandOptionInteger,
	router.OptionBoolean:     discordgo.ApplicationCommandOptionBoolean,
	router.OptionUser:        discordgo.ApplicationCommandOptionUser,
	router.OptionChannel:     discordgo.ApplicationCommandOptionChannel,
	router.OptionRole:        discordgo.ApplicationCommandOptionRole,
	router.OptionMentionable: discordgo.ApplicationCommandOptionMentionable,
	router.OptionNumber:      discordgo.ApplicationCommandOptionNumber,
	router.OptionAttachment:  discordgo.ApplicationCommandOptionAttachment,
}

// ApplicationCommands converts slash definitions to the platform shape.
func ApplicationCommands(defs []router.Definition) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, d := range defs {
		dm := d.AcceptDM
		cmd := &discordgo.ApplicationCommand{
			Type:         discordgo.ChatApplicationCommand,
			Name:         d.Name,
			Description:  d.Description,
			DMPermission: &dm,
		}
		if d.DefaultMemberPermissions != 0 {
			perms := d.DefaultMemberPermissions
			cmd.DefaultMemberPermissions = &perms
		}
		for _, o := range d.Options {
			opt := &discordgo.ApplicationCommandOption{
				Type:        optionTypes[o.Type],
				Name:        o.Name,
				Description: o.Description,
				Required:    o.Required,
			}
			for _, c := range o.Choices {
				opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
			}
			cmd.Options = append(cmd.Options, opt)
		}
		out = append(out, cmd)
	}
	return out
}

// definitionHash fingerprints a command set, ignoring ids, versions and order.
func definitionHash(cmds []*discordgo.ApplicationCommand) string {
	type option struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Type        int    `json:"type"`
		Required    bool   `json:"required"`
		Choices     []any  `json:"choices,omitempty"`
	}
	type command struct {
		Type        int      `json:"type"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		DM          bool     `json:"dm_permission"`
		Permissions int64    `json:"default_member_permissions"`
		Options     []option `json:"options,omitempty"`
	}

	norm := make([]command, 0, len(cmds))
	for _, c := range cmds {
		// Discord leaves unset fields out: chat type, DMs allowed, no permissions.
		nc := command{Type: int(c.Type), Name: c.Name, Description: c.Description, DM: true}
		if nc.Type == 0 {
			nc.Type = int(discordgo.ChatApplicationCommand)
		}
		if c.DMPermission != nil {
			nc.DM = *c.DMPermission
		}
		if c.DefaultMemberPermissions != nil {
			nc.Permissions = *c.DefaultMemberPermissions
		}
		for _, o := range c.Options {
			no := option{Name: o.Name, Description: o.Description, Type: int(o.Type), Required: o.Required}
			for _, ch := range o.Choices {
				no.Choices = append(no.Choices, []any{ch.Name, fmt.Sprint(ch.Value)})
			}
			nc.Options = append(nc.Options, no)
		}
		slices.SortFunc(nc.Options, func(a, b option) int { return strings.Compare(a.Name, b.Name) })
		norm = append(norm, nc)
	}
	slices.SortFunc(norm, func(a, b command) int { return strings.Compare(a.Name, b.Name) })

	data, _ := json.Marshal(norm)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

// commandAPI is the part of the session slash export uses.
type commandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Exporter submits slash definitions, skipping the call when nothing changed.
type Exporter struct {
	api     commandAPI
	limiter *retrylimit.AdaptiveLimiter
	policy  retrylimit.Policy
	log     zerolog.Logger
}

func newExporter(api commandAPI, log zerolog.Logger) *Exporter {
	policy := retrylimit.DefaultPolicy()
	policy.Status = restStatus
	policy.Log = &log
	return &Exporter{
		api:     api,
		limiter: retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
		policy:  policy,
		log:     log,
	}
}

// Export replaces the application's commands in guildID, or globally when guildID is empty.
// It reports whether a submission was made.
func (e *Exporter) Export(ctx context.Context, appID, guildID string, defs []router.Definition) (bool, error) {
	wanted := ApplicationCommands(defs)
	scope := guildID
	if scope == "" {
		scope = "global"
	}
	log := e.log.With().Str("scope", scope).Int("commands", len(wanted)).Logger()

	var existing []*discordgo.ApplicationCommand
	err := retrylimit.Do(ctx, e.limiter, e.policy, func() error {
		var err error
		existing, err = e.api.ApplicationCommands(appID, guildID, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		log.Warn().Err(err).Msg("Cannot list current slash commands, submitting anyway")
	} else if definitionHash(existing) == definitionHash(wanted) {
		log.Info().Msg("Slash commands unchanged")
		return false, nil
	}

	err = retrylimit.Do(ctx, e.limiter, e.policy, func() error {
		_, err := e.api.ApplicationCommandBulkOverwrite(appID, guildID, wanted, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return false, fmt.Errorf("overwrite slash commands: %w", err)
	}
	log.Info().Msg("Slash commands registered")
	if guildID == "" {
		log.Warn().Msg("Global slash commands can take up to an hour to show up")
	}
	return true, nil
}

// restStatus reads the HTTP status of a discordgo REST failure.
func restStatus(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode
	}
	return retrylimit.StatusOf(err)
}
