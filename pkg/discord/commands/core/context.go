package core

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// BuildContext creates the handler context for one interaction.
func BuildContext(parent context.Context, session *discordgo.Session, i *discordgo.InteractionCreate) *Context {
	userID := extractUserID(i)
	return &Context{
		Ctx:         parent,
		Session:     session,
		Interaction: i,
		Reply:       NewReply(session, i.Interaction),
		Logger: log.DiscordLogger().With(
			"interaction_id", i.ID,
			"guild_id", i.GuildID,
			"user_id", userID,
		),
		GuildID: i.GuildID,
		UserID:  userID,
	}
}

// extractUserID extracts the user ID from the interaction
func extractUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	} else if i.User != nil {
		return i.User.ID
	}
	return ""
}

// GetSubCommandName extracts the subcommand name from the interaction
func GetSubCommandName(i *discordgo.InteractionCreate) string {
	options := i.ApplicationCommandData().Options
	if len(options) > 0 && options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return options[0].Name
	}
	return ""
}

// GetSubCommandOptions extracts the subcommand options from the interaction
func GetSubCommandOptions(i *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	if len(options) > 0 && options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return options[0].Options
	}
	return options
}

// HasFocusedOption finds the focused option of an autocomplete request,
// looking inside subcommands.
func HasFocusedOption(options []*discordgo.ApplicationCommandInteractionDataOption) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	for _, opt := range options {
		if opt.Focused {
			return opt, true
		}
		if opt.Type == discordgo.ApplicationCommandOptionSubCommand && len(opt.Options) > 0 {
			if focused, found := HasFocusedOption(opt.Options); found {
				return focused, true
			}
		}
	}
	return nil, false
}

// GetCommandPath returns the full command path (command + subcommand if present)
func GetCommandPath(i *discordgo.InteractionCreate) string {
	path := i.ApplicationCommandData().Name
	if subCmd := GetSubCommandName(i); subCmd != "" {
		path += " " + subCmd
	}
	return path
}

func IsAutocompleteInteraction(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionApplicationCommandAutocomplete
}

func IsSlashCommandInteraction(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionApplicationCommand
}

func IsComponentInteraction(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionMessageComponent
}
