// Package roles resolves guild roles and which of them the bot can manage.
package roles

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Resolver reads roles from the state cache and falls back to REST.
type Resolver struct {
	session *discordgo.Session
}

// NewResolver creates a Resolver backed by session.
func NewResolver(session *discordgo.Session) *Resolver {
	return &Resolver{session: session}
}

// GuildRoles returns every role of guildID keyed by id.
func (r *Resolver) GuildRoles(ctx context.Context, guildID string) (map[string]*discordgo.Role, error) {
	if r.session.State != nil {
		if g, err := r.session.State.Guild(guildID); err == nil && g != nil && len(g.Roles) > 0 {
			return index(g.Roles), nil
		}
	}
	list, err := r.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch roles of guild %s: %w", guildID, err)
	}
	return index(list), nil
}

// IDs returns the ids of every role in guildID.
func (r *Resolver) IDs(ctx context.Context, guildID string) (map[string]struct{}, error) {
	all, err := r.GuildRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(all))
	for id := range all {
		out[id] = struct{}{}
	}
	return out, nil
}

// BotTopPosition returns the highest position among the bot's roles.
func (r *Resolver) BotTopPosition(ctx context.Context, guildID string, guildRoles map[string]*discordgo.Role) (int, error) {
	if r.session.State == nil || r.session.State.User == nil {
		return 0, fmt.Errorf("bot user unknown")
	}
	botID := r.session.State.User.ID

	var member *discordgo.Member
	if m, err := r.session.State.Member(guildID, botID); err == nil && m != nil {
		member = m
	} else {
		m, err := r.session.GuildMember(guildID, botID, discordgo.WithContext(ctx))
		if err != nil {
			return 0, fmt.Errorf("fetch bot member: %w", err)
		}
		member = m
	}

	top := 0
	for _, id := range member.Roles {
		if role, ok := guildRoles[id]; ok && role.Position > top {
			top = role.Position
		}
	}
	return top, nil
}

// Manageable reports whether the bot can grant role: it must sit below the
// bot's top role, not be managed by an integration and not be @everyone.
func Manageable(role *discordgo.Role, guildID string, botTop int) bool {
	return role != nil && role.ID != guildID && !role.Managed && role.Position < botTop
}

// Mention formats a role mention.
func Mention(id string) string {
	return "<@&" + id + ">"
}

func index(list []*discordgo.Role) map[string]*discordgo.Role {
	out := make(map[string]*discordgo.Role, len(list))
	for _, r := range list {
		if r != nil {
			out[r.ID] = r
		}
	}
	return out
}
