package storage

import (
	"context"
	"errors"
	"slices"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

var (
	// ErrNotFound is returned when an embed or button does not exist.
	ErrNotFound = errors.New("not found")

	errNotInitialized = errors.New("store not initialized")
)

// EmbedStore persists per-guild embed definitions, their buttons' action
// lists and the channels each embed is attached to. Writes are last writer
// wins; nothing spans more than one call atomically.
type EmbedStore interface {
	GetEmbed(ctx context.Context, guildID, name string) (*embeds.Definition, error)
	SaveEmbed(ctx context.Context, guildID, name string, def embeds.Definition) error
	DeleteEmbed(ctx context.Context, guildID, name string) error
	ListEmbeds(ctx context.Context, guildID string) (map[string]embeds.Definition, error)

	FindButton(ctx context.Context, guildID, customID string) (embeds.Button, string, error)
	ListActions(ctx context.Context, guildID, embedName, customID string) ([]embeds.Action, error)
	ReplaceActions(ctx context.Context, guildID, embedName, customID string, actions []embeds.Action) error
	GetOpposingActionRoles(ctx context.Context, guildID, embedName, customID string, kind embeds.ActionKind) ([]string, error)

	AttachChannel(ctx context.Context, guildID, name, channelID string) error
	DetachChannel(ctx context.Context, guildID, name, channelID string) error
	ClearChannels(ctx context.Context, guildID, name string) error
	ListChannels(ctx context.Context, guildID, name string) ([]string, error)

	ListGuilds(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}

// findButton scans embeds in name order and returns the first button with
// customID.
func findButton(all map[string]embeds.Definition, customID string) (embeds.Button, string, bool) {
	if customID == "" {
		return embeds.Button{}, "", false
	}
	for _, name := range embeds.SortedNames(all) {
		def := all[name]
		if i := def.FindButton(customID); i >= 0 {
			return def.Buttons[i].Clone(), name, true
		}
	}
	return embeds.Button{}, "", false
}

func buttonActions(def *embeds.Definition, customID string) ([]embeds.Action, error) {
	i := def.FindButton(customID)
	if i < 0 {
		return nil, ErrNotFound
	}
	return slices.Clone(def.Buttons[i].Actions), nil
}

// withActions returns def's buttons with the actions of customID replaced.
func withActions(def *embeds.Definition, customID string, actions []embeds.Action) ([]embeds.Button, error) {
	i := def.FindButton(customID)
	if i < 0 {
		return nil, ErrNotFound
	}
	buttons := make([]embeds.Button, len(def.Buttons))
	copy(buttons, def.Buttons)
	buttons[i].Actions = slices.Clone(actions)
	return buttons, nil
}

func opposingRoles(actions []embeds.Action, kind embeds.ActionKind) []string {
	opposite := kind.Opposite()
	if opposite == "" {
		return nil
	}
	var out []string
	for _, a := range actions {
		if a.Kind() == opposite {
			out = append(out, embeds.RoleIDs(a)...)
		}
	}
	return out
}

func addUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
