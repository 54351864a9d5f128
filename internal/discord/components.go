package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/keshon/dispatchbot/internal/router"
)

const (
	buttonsPerRow = 5
	maxRows       = 5
)

var buttonStyles = map[router.ButtonStyle]discordgo.ButtonStyle{
	router.ButtonPrimary:   discordgo.PrimaryButton,
	router.ButtonSecondary: discordgo.SecondaryButton,
	router.ButtonSuccess:   discordgo.SuccessButton,
	router.ButtonDanger:    discordgo.DangerButton,
}

// components lays buttons out in action rows. Buttons past the platform limit are dropped.
func components(specs []router.ButtonSpec) []discordgo.MessageComponent {
	if len(specs) == 0 {
		return nil
	}
	var rows []discordgo.MessageComponent
	var row discordgo.ActionsRow
	for _, b := range specs {
		if len(row.Components) == buttonsPerRow {
			rows = append(rows, row)
			row = discordgo.ActionsRow{}
		}
		if len(rows) == maxRows {
			return rows
		}
		row.Components = append(row.Components, button(b))
	}
	return append(rows, row)
}

func button(b router.ButtonSpec) discordgo.Button {
	style, ok := buttonStyles[b.Style]
	if !ok {
		style = discordgo.PrimaryButton
	}
	label := b.Label
	if b.Emoji != "" {
		label = b.Emoji + " " + label
	}
	return discordgo.Button{
		Label:    label,
		Style:    style,
		CustomID: b.ID,
		Disabled: b.Disabled,
	}
}
