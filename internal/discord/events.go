package discord

import (
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Discord bot is running")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	raw := messageEvent(m, stateRoleName(s))
	raw.Sink = messageSink{api: s, channelID: m.ChannelID, guildID: m.GuildID, messageID: m.ID}
	b.dispatch(raw)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	raw := interactionEvent(i, stateRoleName(s))
	raw.Sink = interactionSink{api: s, interaction: i.Interaction}
	b.dispatch(raw)
}
