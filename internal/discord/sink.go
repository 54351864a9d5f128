package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/dispatchbot/internal/router"
)

// interactionAPI is the part of the session interaction replies go through.
type interactionAPI interface {
	InteractionRespond(i *discordgo.Interaction, r *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// channelAPI is the part of the session message replies go through.
type channelAPI interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// interactionSink answers slash commands and button clicks.
type interactionSink struct {
	api         interactionAPI
	interaction *discordgo.Interaction
}

func (s interactionSink) Reply(ctx context.Context, r router.Reply) error {
	data := &discordgo.InteractionResponseData{
		Content:    r.Content,
		Components: components(r.Components),
	}
	if r.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.api.InteractionRespond(s.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
}

func (s interactionSink) FollowUp(ctx context.Context, r router.Reply) error {
	params := &discordgo.WebhookParams{
		Content:    r.Content,
		Components: components(r.Components),
	}
	if r.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	_, err := s.api.FollowupMessageCreate(s.interaction, false, params, discordgo.WithContext(ctx))
	return err
}

// messageSink answers prefixed commands and plain messages in the same channel.
// Messages cannot be ephemeral; the flag is ignored.
type messageSink struct {
	api       channelAPI
	channelID string
	guildID   string
	messageID string
}

// Reply quotes the triggering message.
func (s messageSink) Reply(ctx context.Context, r router.Reply) error {
	_, err := s.api.ChannelMessageSendComplex(s.channelID, &discordgo.MessageSend{
		Content:    r.Content,
		Components: components(r.Components),
		Reference: &discordgo.MessageReference{
			MessageID: s.messageID,
			ChannelID: s.channelID,
			GuildID:   s.guildID,
		},
	}, discordgo.WithContext(ctx))
	return err
}

func (s messageSink) FollowUp(ctx context.Context, r router.Reply) error {
	_, err := s.api.ChannelMessageSendComplex(s.channelID, &discordgo.MessageSend{
		Content:    r.Content,
		Components: components(r.Components),
	}, discordgo.WithContext(ctx))
	return err
}
