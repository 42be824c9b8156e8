package actions

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/roles"
)

// applyRoles grants or revokes roleIDs on the pressing member. Roles the bot
// cannot manage and roles already in the target state are skipped. The
// summary is silent when the button also shows an embed.
func (e *Engine) applyRoles(r *run, roleIDs []string, add bool) (result, error) {
	if len(roleIDs) == 0 {
		return result{}, nil
	}
	ctx := r.ctx
	member := ctx.Member()
	if member == nil || member.User == nil {
		return result{}, fmt.Errorf("interaction has no member")
	}

	guildRoles, err := e.roles.GuildRoles(ctx.Ctx, ctx.GuildID)
	if err != nil {
		return result{}, err
	}
	botTop, err := e.roles.BotTopPosition(ctx.Ctx, ctx.GuildID, guildRoles)
	if err != nil {
		return result{}, err
	}

	reason := fmt.Sprintf("Button action from embed '%s'", r.embedName)
	var done, failed []string
	for _, id := range roleIDs {
		role := guildRoles[id]
		if !roles.Manageable(role, ctx.GuildID, botTop) {
			r.logger.Debug("Skipping invalid or unmanageable role", "role_id", id)
			continue
		}
		has := slices.Contains(member.Roles, id)
		if add == has {
			continue
		}

		opts := []discordgo.RequestOption{discordgo.WithAuditLogReason(reason), requestContext(ctx.Ctx)}
		if add {
			err = ctx.Session.GuildMemberRoleAdd(ctx.GuildID, member.User.ID, id, opts...)
		} else {
			err = ctx.Session.GuildMemberRoleRemove(ctx.GuildID, member.User.ID, id, opts...)
		}
		if err != nil {
			r.logger.Warn("Role update failed", "role_id", id, "add", add, "error", err)
			failed = append(failed, id)
			continue
		}
		done = append(done, id)
	}

	if r.hasEmbedAction {
		return result{}, nil
	}
	return result{summary: roleSummary(done, failed, add)}, nil
}

func roleSummary(done, failed []string, add bool) string {
	var parts []string
	if len(done) > 0 {
		verb := "Removed"
		if add {
			verb = "Added"
		}
		parts = append(parts, fmt.Sprintf("**%s Roles:** %s", verb, mentions(done)))
	}
	if len(failed) > 0 {
		verb := "remove"
		if add {
			verb = "add"
		}
		parts = append(parts, fmt.Sprintf("**Failed to %s:** %s", verb, mentions(failed)))
	}
	return strings.Join(parts, " • ")
}

func mentions(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = roles.Mention(id)
	}
	return strings.Join(out, ", ")
}
