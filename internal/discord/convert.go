package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/dispatchbot/internal/router"
)

// roleNamer resolves a role id to its name, or "" when unknown.
type roleNamer func(guildID, roleID string) string

// messageEvent turns a gateway message into a raw router event.
func messageEvent(m *discordgo.MessageCreate, names roleNamer) router.RawEvent {
	raw := router.RawEvent{
		Kind:      router.EventMessage,
		Content:   m.Content,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
	}
	if m.Author != nil {
		raw.Author = router.Author{
			UserID:      m.Author.ID,
			DisplayName: displayName(m.Member, m.Author),
			IsBot:       m.Author.Bot,
		}
	}
	if m.GuildID != "" && m.Member != nil {
		raw.Author.Roles = memberRoles(m.GuildID, m.Member.Roles, names)
	}
	pinged := repliedTo(m.Message)
	for _, u := range m.Mentions {
		if u != nil && u.ID != pinged {
			raw.MentionIDs = append(raw.MentionIDs, u.ID)
		}
	}
	return raw
}

// repliedTo returns the author a reply pings implicitly, or "" when the
// message is not a reply or names that author in its text.
func repliedTo(m *discordgo.Message) string {
	if m.ReferencedMessage == nil || m.ReferencedMessage.Author == nil {
		return ""
	}
	id := m.ReferencedMessage.Author.ID
	if strings.Contains(m.Content, "<@"+id+">") || strings.Contains(m.Content, "<@!"+id+">") {
		return ""
	}
	return id
}

// interactionEvent turns a gateway interaction into a raw router event.
func interactionEvent(i *discordgo.InteractionCreate, names roleNamer) router.RawEvent {
	raw := router.RawEvent{
		Kind:      router.EventOther,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Locale:    string(i.Locale),
	}

	switch {
	case i.Member != nil && i.Member.User != nil:
		raw.Author = router.Author{
			UserID:      i.Member.User.ID,
			DisplayName: displayName(i.Member, i.Member.User),
			IsBot:       i.Member.User.Bot,
			Roles:       memberRoles(i.GuildID, i.Member.Roles, names),
		}
	case i.User != nil:
		raw.Author = router.Author{UserID: i.User.ID, DisplayName: i.User.Username, IsBot: i.User.Bot}
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.CommandType != discordgo.ChatApplicationCommand && data.CommandType != 0 {
			break
		}
		raw.Kind = router.EventCommand
		raw.CommandName = data.Name
		raw.Options = optionValues(data.Options)
	case discordgo.InteractionMessageComponent:
		raw.Kind = router.EventComponent
		raw.ButtonID = i.MessageComponentData().CustomID
	}
	return raw
}

func displayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user != nil {
		return user.Username
	}
	return ""
}

// memberRoles indexes a member's roles by id and, when known, by name.
func memberRoles(guildID string, ids []string, names roleNamer) router.RoleSet {
	roles := make([]router.Role, 0, len(ids))
	for _, id := range ids {
		r := router.Role{ID: id}
		if names != nil {
			r.Name = names(guildID, id)
		}
		roles = append(roles, r)
	}
	return router.NewRoleSet(roles...)
}

// optionValues flattens slash options, descending into subcommands.
// Integers arrive as JSON numbers and are returned as int64.
func optionValues(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]any {
	if len(opts) == 0 {
		return nil
	}
	out := make(map[string]any, len(opts))
	var walk func([]*discordgo.ApplicationCommandInteractionDataOption)
	walk = func(opts []*discordgo.ApplicationCommandInteractionDataOption) {
		for _, o := range opts {
			if o == nil {
				continue
			}
			switch o.Type {
			case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
				walk(o.Options)
			case discordgo.ApplicationCommandOptionInteger:
				if f, ok := o.Value.(float64); ok {
					out[o.Name] = int64(f)
					continue
				}
				out[o.Name] = o.Value
			default:
				out[o.Name] = o.Value
			}
		}
	}
	walk(opts)
	return out
}
