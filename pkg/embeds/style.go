package embeds

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ButtonStyle is the stored style name of a button.
type ButtonStyle string

const (
	StylePrimary   ButtonStyle = "primary"
	StyleSecondary ButtonStyle = "secondary"
	StyleSuccess   ButtonStyle = "success"
	StyleDanger    ButtonStyle = "danger"
	StyleLink      ButtonStyle = "link"
)

var buttonStyles = map[ButtonStyle]discordgo.ButtonStyle{
	StylePrimary:   discordgo.PrimaryButton,
	StyleSecondary: discordgo.SecondaryButton,
	StyleSuccess:   discordgo.SuccessButton,
	StyleDanger:    discordgo.DangerButton,
	StyleLink:      discordgo.LinkButton,
}

// ParseStyle validates an author-supplied style name.
func ParseStyle(s string) (ButtonStyle, error) {
	style := ButtonStyle(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := buttonStyles[style]; !ok {
		return "", NewValidationError("style", "**Invalid Style:** Style must be one of `primary`, `secondary`, `success`, `danger`, or `link`.")
	}
	return style, nil
}

// RenderStyle maps a stored style to the platform style. Unknown values
// render as primary instead of failing.
func RenderStyle(s string) discordgo.ButtonStyle {
	if bs, ok := buttonStyles[ButtonStyle(strings.ToLower(strings.TrimSpace(s)))]; ok {
		return bs
	}
	return discordgo.PrimaryButton
}
