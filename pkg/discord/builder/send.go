package builder

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands/core"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/sender"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

func (ec *EmbedCommands) handleSend(ctx *core.Context) error {
	ext := options(ctx)
	name, err := embedName(ext)
	if err != nil {
		return err
	}
	method, err := sender.ParseMethod(ext.String("method"))
	if err != nil {
		return core.NewValidationError("method", "**Invalid Method:** Use `bot` or `webhook`.")
	}
	avatarURL := ext.String("avatar_url")
	if err := checkURL("avatar_url", avatarURL); err != nil {
		return err
	}

	def, err := ec.loadEmbed(ctx, name)
	if err != nil {
		return err
	}
	targets, err := ec.store.ListChannels(ctx.Ctx, ctx.GuildID, name)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	if err := ctx.Reply.Defer(true); err != nil {
		return fmt.Errorf("defer send: %w", err)
	}

	preview, components := embeds.RenderMessage(*def)
	results := ec.sender.Send(ctx.Ctx, sender.Request{
		GuildID:          ctx.GuildID,
		CurrentChannelID: ctx.Interaction.ChannelID,
		Targets:          targets,
		Method:           method,
		WebhookName:      ext.String("webhook_name"),
		AvatarURL:        avatarURL,
		Embeds:           preview,
		Components:       components,
	})

	sent := 0
	for _, r := range results {
		if r.Sent() {
			sent++
		} else {
			ctx.Logger.Warn("Embed delivery failed", "embed", name, "channelID", r.ChannelID, "status", r.Status, "error", r.Err)
		}
	}
	audit(ctx, "embed_send", name, logrus.Fields{"method": string(method), "sent": sent, "failed": len(results) - sent})

	_, err = ctx.Reply.Followup(&discordgo.WebhookParams{
		Content: sender.Summarize(name, method, results),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}
