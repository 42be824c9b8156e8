package actions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/sender"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
)

// sendEmbeds posts the referenced embeds as a new message. Components come
// from the first embed that has buttons.
func (e *Engine) sendEmbeds(r *run, a embeds.SendEmbed) result {
	var (
		rendered   []*discordgo.MessageEmbed
		components []discordgo.MessageComponent
		missing    []string
	)
	for _, name := range a.EmbedNames {
		def, err := e.store.GetEmbed(r.ctx.Ctx, r.ctx.GuildID, name)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				r.logger.Warn("Failed to load embed for send", "target", name, "error", err)
			}
			missing = append(missing, name)
			continue
		}
		if len(rendered) >= embeds.MaxEmbedsPerMessage {
			continue
		}
		rendered = append(rendered, embeds.RenderEmbed(*def))
		if components == nil && def.HasButtons() {
			components = embeds.RenderComponents(def.Buttons)
		}
	}

	var lines []string
	if len(missing) > 0 {
		lines = append(lines, fmt.Sprintf("**%d embed(s) failed:** %s", len(missing), strings.Join(missing, ", ")))
	}
	if len(rendered) == 0 {
		lines = append(lines, "No valid embeds found to send")
		return result{summary: strings.Join(lines, "\n")}
	}

	data := &discordgo.InteractionResponseData{Embeds: rendered, Components: components}
	if a.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := r.ctx.Reply.Send(data); err != nil {
		r.logger.Warn("Failed to send embeds", "error", err)
		lines = append(lines, fmt.Sprintf("Failed to send embeds: %v", err))
		return result{summary: strings.Join(lines, "\n")}
	}

	// Once the embeds are out, missing names only reach the log.
	note := fmt.Sprintf("**Sent %d embed(s)**", len(rendered))
	if len(missing) > 0 {
		r.logger.Warn("Sent embeds with missing targets", "sent", len(rendered), "missing", missing)
		note += " • " + lines[0]
	}
	return result{note: note}
}

// editStrategy is one way of replacing the triggering message. ok is false
// when the strategy does not apply to this press.
type editStrategy struct {
	name string
	try  func(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (ok bool, err error)
}

// editEmbed replaces the triggering message with a stored embed, trying the
// interaction update, a direct message edit and finally an ephemeral
// followup.
func (e *Engine) editEmbed(r *run, a embeds.EditEmbed) result {
	def, err := e.store.GetEmbed(r.ctx.Ctx, r.ctx.GuildID, a.EmbedName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result{summary: fmt.Sprintf("Failed to edit: Embed `%s` not found.", a.EmbedName)}
		}
		r.logger.Warn("Failed to load embed for edit", "target", a.EmbedName, "error", err)
		return result{summary: fmt.Sprintf("Failed to edit: %v", err)}
	}

	embed := embeds.RenderEmbed(*def)
	components := embeds.RenderComponents(def.Buttons)
	if components == nil {
		components = []discordgo.MessageComponent{}
	}

	var forbidden bool
	for _, s := range e.editStrategies(r) {
		ok, err := s.try(embed, components)
		if !ok {
			continue
		}
		if err == nil {
			return result{note: fmt.Sprintf("edited via %s", s.name)}
		}
		if sender.IsForbidden(err) {
			forbidden = true
		}
		r.logger.Debug("Edit strategy failed", "strategy", s.name, "error", err)
	}

	if forbidden {
		return result{summary: "Failed to edit message: Missing Permissions."}
	}
	return result{summary: "An error occurred while trying to edit the message."}
}

func (e *Engine) editStrategies(r *run) []editStrategy {
	ctx := r.ctx
	return []editStrategy{
		{name: "interaction update", try: func(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (bool, error) {
			if ctx.Reply.Used() {
				return false, nil
			}
			return true, ctx.Reply.Update(&discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: components,
			})
		}},
		{name: "message edit", try: func(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (bool, error) {
			msg := ctx.Interaction.Message
			if msg == nil || msg.ID == "" {
				return false, nil
			}
			channelID := msg.ChannelID
			if channelID == "" {
				channelID = ctx.Interaction.ChannelID
			}
			embedList := []*discordgo.MessageEmbed{embed}
			_, err := ctx.Session.ChannelMessageEditComplex(&discordgo.MessageEdit{
				ID:         msg.ID,
				Channel:    channelID,
				Embeds:     &embedList,
				Components: &components,
			}, requestContext(ctx.Ctx))
			return true, err
		}},
		{name: "followup", try: func(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (bool, error) {
			_, err := ctx.Reply.Followup(&discordgo.WebhookParams{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: components,
				Flags:      discordgo.MessageFlagsEphemeral,
			})
			return true, err
		}},
	}
}
