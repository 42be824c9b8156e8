package builder

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands/core"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
	"github.com/small-frappuccino/embedbuilder/pkg/theme"
)

func (ec *EmbedCommands) handleActions(ctx *core.Context) error {
	ext := options(ctx)
	name, err := embedName(ext)
	if err != nil {
		return err
	}
	button, err := ext.StringRequired("button")
	if err != nil {
		return err
	}
	if ec.wizard == nil {
		return core.NewCommandError("❌ Button actions are not available.", true)
	}
	return ec.wizard.Start(ctx, name, button)
}

func (ec *EmbedCommands) handleRename(ctx *core.Context) error {
	ext := options(ctx)
	name, err := embedName(ext)
	if err != nil {
		return err
	}
	newName := ext.String("new_name")

	if err := storage.RenameEmbed(ctx.Ctx, ec.store, ctx.GuildID, name, newName); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(name)
		}
		return userError(err)
	}
	audit(ctx, "embed_rename", name, logrus.Fields{"new_name": newName})
	return ctx.Reply.Success(fmt.Sprintf("Renamed `%s` to `%s`.", name, newName))
}

func (ec *EmbedCommands) handleDelete(ctx *core.Context) error {
	name, err := embedName(options(ctx))
	if err != nil {
		return err
	}
	if _, err := ec.loadEmbed(ctx, name); err != nil {
		return err
	}
	if err := ec.store.DeleteEmbed(ctx.Ctx, ctx.GuildID, name); err != nil {
		return fmt.Errorf("delete embed %s: %w", name, err)
	}
	audit(ctx, "embed_delete", name, nil)
	return ctx.Reply.Success(fmt.Sprintf("Embed `%s` deleted.", name))
}

func (ec *EmbedCommands) handleAttach(ctx *core.Context) error {
	name, channelID, def, err := ec.channelTarget(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(def.Channels, channelID) {
		return ctx.Reply.Info(fmt.Sprintf("<#%s> is already attached to `%s`.", channelID, name))
	}
	if err := ec.store.AttachChannel(ctx.Ctx, ctx.GuildID, name, channelID); err != nil {
		return fmt.Errorf("attach channel: %w", err)
	}
	audit(ctx, "embed_attach", name, logrus.Fields{"channel_id": channelID})
	return ctx.Reply.Success(fmt.Sprintf("`%s` will be sent to <#%s>.", name, channelID))
}

func (ec *EmbedCommands) handleDetach(ctx *core.Context) error {
	name, channelID, def, err := ec.channelTarget(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(def.Channels, channelID) {
		return ctx.Reply.Warning(fmt.Sprintf("<#%s> is not attached to `%s`.", channelID, name))
	}
	if err := ec.store.DetachChannel(ctx.Ctx, ctx.GuildID, name, channelID); err != nil {
		return fmt.Errorf("detach channel: %w", err)
	}
	audit(ctx, "embed_detach", name, logrus.Fields{"channel_id": channelID})
	return ctx.Reply.Success(fmt.Sprintf("`%s` will no longer be sent to <#%s>.", name, channelID))
}

func (ec *EmbedCommands) channelTarget(ctx *core.Context) (string, string, *embeds.Definition, error) {
	ext := options(ctx)
	name, err := embedName(ext)
	if err != nil {
		return "", "", nil, err
	}
	channelID := ext.ChannelID("channel")
	if channelID == "" {
		return "", "", nil, core.NewValidationError("channel", "Please choose a channel.")
	}
	def, err := ec.loadEmbed(ctx, name)
	if err != nil {
		return "", "", nil, err
	}
	return name, channelID, def, nil
}

func (ec *EmbedCommands) handleClearChannels(ctx *core.Context) error {
	name, err := embedName(options(ctx))
	if err != nil {
		return err
	}
	def, err := ec.loadEmbed(ctx, name)
	if err != nil {
		return err
	}
	if len(def.Channels) == 0 {
		return ctx.Reply.Info(fmt.Sprintf("`%s` has no channels attached.", name))
	}
	if err := ec.store.ClearChannels(ctx.Ctx, ctx.GuildID, name); err != nil {
		return fmt.Errorf("clear channels: %w", err)
	}
	audit(ctx, "embed_clear_channels", name, logrus.Fields{"channels": def.Channels})
	return ctx.Reply.Success(fmt.Sprintf("Detached %d channel(s) from `%s`.", len(def.Channels), name))
}

func (ec *EmbedCommands) handleList(ctx *core.Context) error {
	all, err := ec.store.ListEmbeds(ctx.Ctx, ctx.GuildID)
	if err != nil {
		return fmt.Errorf("list embeds: %w", err)
	}
	if len(all) == 0 {
		return ctx.Reply.Info("No embeds yet. Create one with `/embed create`.")
	}

	names := embeds.SortedNames(all)
	pages := (len(names) + embeds.SelectPageSize - 1) / embeds.SelectPageSize
	page := int(options(ctx).Int("page"))
	if page < 1 {
		page = 1
	}
	if page > pages {
		return core.NewValidationError("page", fmt.Sprintf("Page %d does not exist. There are %d page(s).", page, pages))
	}
	start := (page - 1) * embeds.SelectPageSize
	end := min(start+embeds.SelectPageSize, len(names))

	var b strings.Builder
	for _, name := range names[start:end] {
		def := all[name]
		fmt.Fprintf(&b, "`%s` • %s chars • %d button(s) • %d channel(s)\n",
			name, humanize.Comma(int64(embeds.CharCount(def))), len(def.Buttons), len(def.Channels))
	}
	description := embeds.Truncate(strings.TrimSuffix(b.String(), "\n"), embeds.MaxDescriptionLength)

	panel := core.PanelEmbed(fmt.Sprintf("Embeds (%d)", len(all)), description, core.ResponseInfo)
	panel.Color = theme.EmbedList()
	if pages > 1 {
		panel.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d • use the page option to see more", page, pages)}
	}
	return ctx.Reply.EmbedResponse(panel)
}

func (ec *EmbedCommands) handlePreview(ctx *core.Context) error {
	name, err := embedName(options(ctx))
	if err != nil {
		return err
	}
	def, err := ec.loadEmbed(ctx, name)
	if err != nil {
		return err
	}
	preview, components := embeds.RenderMessage(*def)
	return ctx.Reply.Send(&discordgo.InteractionResponseData{
		Embeds:     preview,
		Components: components,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}
