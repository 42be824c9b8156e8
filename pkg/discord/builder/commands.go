// Package builder implements the /embed slash command group used to author
// embeds, their buttons and their channels.
package builder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands/core"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/sender"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/wizard"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
)

const commandName = "embed"

// EmbedCommands wires the /embed group into a CommandRouter.
type EmbedCommands struct {
	store  storage.EmbedStore
	wizard *wizard.Handler
	sender *sender.Sender
	now    func() time.Time
}

// NewEmbedCommands creates the registrar.
func NewEmbedCommands(store storage.EmbedStore, wiz *wizard.Handler, snd *sender.Sender) *EmbedCommands {
	return &EmbedCommands{store: store, wizard: wiz, sender: snd, now: time.Now}
}

// RegisterCommands registers /embed, its autocomplete and the wizard
// component route.
func (ec *EmbedCommands) RegisterCommands(router *core.CommandRouter) {
	group := core.NewGroupCommand(commandName, "Create and manage embeds", router.GetPermissionChecker())

	group.AddSubCommand(sub("create", "Create a new embed", ec.handleCreate, nameOption()))
	group.AddSubCommand(sub("edit", "Edit the content of an embed", ec.handleEdit, editOptions()...))
	group.AddSubCommand(sub("field_add", "Add a field to an embed", ec.handleFieldAdd,
		nameOption(),
		stringOption("field_name", "Field name", true),
		stringOption("value", "Field value", true),
		&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionBoolean, Name: "inline", Description: "Show the field inline"},
	))
	group.AddSubCommand(sub("field_remove", "Remove a field from an embed", ec.handleFieldRemove,
		nameOption(), indexOption("Field position, starting at 1")))
	group.AddSubCommand(sub("button_add", "Add a button to an embed", ec.handleButtonAdd,
		nameOption(),
		stringOption("label", "Button label", true),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "style",
			Description: "Button style",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "primary", Value: "primary"},
				{Name: "secondary", Value: "secondary"},
				{Name: "success", Value: "success"},
				{Name: "danger", Value: "danger"},
				{Name: "link", Value: "link"},
			},
		},
		stringOption("target", "Custom ID, or the URL for link buttons", true),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "row",
			Description: "Row from 0 to 4",
			MinValue:    floatPtr(0),
			MaxValue:    embeds.MaxButtonRow,
		},
	))
	group.AddSubCommand(sub("button_remove", "Remove a button from an embed", ec.handleButtonRemove,
		nameOption(), indexOption("Button position, starting at 1")))
	group.AddSubCommand(sub("actions", "Configure what a button does", ec.handleActions,
		nameOption(), buttonOption()))
	group.AddSubCommand(sub("rename", "Rename an embed", ec.handleRename,
		nameOption(), stringOption("new_name", "New name", true)))
	group.AddSubCommand(sub("delete", "Delete an embed", ec.handleDelete, nameOption()))
	group.AddSubCommand(sub("attach", "Send an embed to a channel", ec.handleAttach,
		nameOption(), channelOption()))
	group.AddSubCommand(sub("detach", "Stop sending an embed to a channel", ec.handleDetach,
		nameOption(), channelOption()))
	group.AddSubCommand(sub("clear_channels", "Detach every channel from an embed", ec.handleClearChannels, nameOption()))
	group.AddSubCommand(sub("list", "List the embeds of this server", ec.handleList,
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "page",
			Description: "Page to show, starting at 1",
			MinValue:    floatPtr(1),
		},
	))
	group.AddSubCommand(sub("preview", "Preview an embed", ec.handlePreview, nameOption()))
	group.AddSubCommand(sub("send", "Send an embed to its channels", ec.handleSend,
		nameOption(),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "method",
			Description: "Send as the bot or through a webhook",
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "bot", Value: string(sender.MethodBot)},
				{Name: "webhook", Value: string(sender.MethodWebhook)},
			},
		},
		stringOption("webhook_name", "Name shown on webhook messages", false),
		stringOption("avatar_url", "Avatar shown on webhook messages", false),
	))

	router.RegisterCommand(group)
	router.RegisterAutocomplete(commandName, ec)
	if ec.wizard != nil {
		router.RegisterComponent(wizard.CustomIDPrefix, ec.wizard)
	}
}

func sub(name, description string, handler func(*core.Context) error, options ...*discordgo.ApplicationCommandOption) core.SubCommand {
	return core.NewSimpleCommand(name, description, options, handler, true, true)
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func nameOption() *discordgo.ApplicationCommandOption {
	opt := stringOption("name", "Embed name", true)
	opt.Autocomplete = true
	return opt
}

func buttonOption() *discordgo.ApplicationCommandOption {
	opt := stringOption("button", "Button custom ID or position", true)
	opt.Autocomplete = true
	return opt
}

func indexOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "index",
		Description: description,
		Required:    true,
		MinValue:    floatPtr(1),
	}
}

func channelOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "channel",
		Description:  "Target channel",
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
	}
}

func floatPtr(f float64) *float64 { return &f }

func options(ctx *core.Context) *core.OptionExtractor {
	return core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))
}

// loadEmbed reads an embed or returns the not found message.
func (ec *EmbedCommands) loadEmbed(ctx *core.Context, name string) (*embeds.Definition, error) {
	def, err := ec.store.GetEmbed(ctx.Ctx, ctx.GuildID, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("load embed %s: %w", name, err)
	}
	return def, nil
}

// saveEmbed validates def, stores it and records the change.
func (ec *EmbedCommands) saveEmbed(ctx *core.Context, name string, def embeds.Definition, action string, fields logrus.Fields) error {
	if err := embeds.ValidateDefinition(def); err != nil {
		return userError(err)
	}
	if err := ec.store.SaveEmbed(ctx.Ctx, ctx.GuildID, name, def); err != nil {
		return fmt.Errorf("save embed %s: %w", name, err)
	}
	audit(ctx, action, name, fields)
	return nil
}

func audit(ctx *core.Context, action, name string, fields logrus.Fields) {
	f := logrus.Fields{"embed": name}
	for k, v := range fields {
		f[k] = v
	}
	log.AuditEvent(action, ctx.GuildID, ctx.UserID, f)
}

func notFound(name string) error {
	return core.NewCommandError(fmt.Sprintf("❌ Embed `%s` not found.", name), true)
}

// userError turns model errors into errors the router shows to the user.
func userError(err error) error {
	var verr *embeds.ValidationError
	var rerr *storage.RenameError
	switch {
	case errors.As(err, &verr):
		return core.NewValidationError(verr.Field, verr.Message)
	case errors.As(err, &rerr):
		return core.NewCommandError(rerr.Message, true)
	default:
		return err
	}
}

func embedName(ext *core.OptionExtractor) (string, error) {
	name, err := ext.StringRequired("name")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(name), nil
}
