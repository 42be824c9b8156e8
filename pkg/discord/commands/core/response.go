package core

import (
	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/theme"
)

// ResponseType selects the prefix and color of a standard response.
type ResponseType int

const (
	ResponseSuccess ResponseType = iota
	ResponseError
	ResponseWarning
	ResponseInfo
	ResponseLoading
)

// Success sends an ephemeral success message.
func (r *Reply) Success(message string) error {
	return r.SendText(FormatMessage(message, ResponseSuccess), true)
}

// Error sends an ephemeral error message.
func (r *Reply) Error(message string) error {
	return r.SendText(FormatMessage(message, ResponseError), true)
}

// Warning sends an ephemeral warning.
func (r *Reply) Warning(message string) error {
	return r.SendText(FormatMessage(message, ResponseWarning), true)
}

// Info sends an ephemeral informational message.
func (r *Reply) Info(message string) error {
	return r.SendText(FormatMessage(message, ResponseInfo), true)
}

// Ephemeral sends content as is, visible only to the invoking user.
func (r *Reply) Ephemeral(content string) error {
	return r.SendText(content, true)
}

// EmbedResponse sends an ephemeral panel embed with optional components.
func (r *Reply) EmbedResponse(embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) error {
	return r.Send(&discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

// FormatMessage prefixes message with the emoji of responseType.
func FormatMessage(message string, responseType ResponseType) string {
	switch responseType {
	case ResponseSuccess:
		return "✅ " + message
	case ResponseError:
		return "❌ " + message
	case ResponseWarning:
		return "⚠️ " + message
	case ResponseInfo:
		return "ℹ️ " + message
	case ResponseLoading:
		return "⏳ " + message
	default:
		return message
	}
}

// PanelEmbed builds a themed embed for the bot's own panels.
func PanelEmbed(title, description string, responseType ResponseType) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorForType(responseType),
	}
}

func colorForType(responseType ResponseType) int {
	switch responseType {
	case ResponseSuccess:
		return theme.Success()
	case ResponseError:
		return theme.Error()
	case ResponseWarning:
		return theme.Warning()
	case ResponseInfo:
		return theme.Info()
	case ResponseLoading:
		return theme.Loading()
	default:
		return theme.Muted()
	}
}
