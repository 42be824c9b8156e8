package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

// RenameError is a user-facing rename rejection.
type RenameError struct {
	Message string
}

func (e *RenameError) Error() string { return e.Message }

// RenameEmbed moves an embed and its channels to a new name. The new entry
// is written first and the old one deleted afterwards; an interruption
// between the two leaves both names present.
func RenameEmbed(ctx context.Context, store EmbedStore, guildID, from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return &RenameError{Message: "⚠️ The new name cannot be empty."}
	}
	if to == from {
		return &RenameError{Message: "⚠️ The new name is the same as the current name."}
	}
	if err := embeds.ValidateEmbedName(to); err != nil {
		return &RenameError{Message: "⚠️ " + err.Error()}
	}

	def, err := store.GetEmbed(ctx, guildID, from)
	if err != nil {
		return err
	}
	if _, err := store.GetEmbed(ctx, guildID, to); err == nil {
		return &RenameError{Message: fmt.Sprintf("❌ An embed named `%s` already exists.", to)}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := store.SaveEmbed(ctx, guildID, to, *def); err != nil {
		return fmt.Errorf("save renamed embed: %w", err)
	}
	for _, ch := range def.Channels {
		if err := store.AttachChannel(ctx, guildID, to, ch); err != nil {
			return fmt.Errorf("copy channel %s: %w", ch, err)
		}
	}
	if err := store.DeleteEmbed(ctx, guildID, from); err != nil {
		return fmt.Errorf("delete old embed: %w", err)
	}
	return nil
}
