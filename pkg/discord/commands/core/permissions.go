package core

import (
	"github.com/bwmarrin/discordgo"
)

// PermissionChecker decides who may run restricted commands. Members need
// Manage Server or Administrator; the guild owner always passes.
type PermissionChecker struct {
	session *discordgo.Session
}

func NewPermissionChecker(session *discordgo.Session) *PermissionChecker {
	return &PermissionChecker{session: session}
}

// HasPermission checks the permissions resolved on the interaction.
func (pc *PermissionChecker) HasPermission(i *discordgo.InteractionCreate) bool {
	if i.GuildID == "" || i.Member == nil {
		return false
	}
	if i.Member.Permissions&(discordgo.PermissionManageGuild|discordgo.PermissionAdministrator) != 0 {
		return true
	}
	return i.Member.User != nil && pc.IsOwner(i.GuildID, i.Member.User.ID)
}

// IsOwner checks the guild owner using the state cache only.
func (pc *PermissionChecker) IsOwner(guildID, userID string) bool {
	if pc.session == nil || pc.session.State == nil || guildID == "" {
		return false
	}
	g, err := pc.session.State.Guild(guildID)
	if err != nil || g == nil {
		return false
	}
	return g.OwnerID == userID
}
