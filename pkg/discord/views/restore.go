// Package views re-arms the buttons of stored embeds after a restart.
//
// Buttons are resolved by custom id on every press, so nothing has to be
// registered per message; the scan only reports what is live and flags
// custom ids shared by several embeds.
package views

import (
	"context"
	"fmt"
	"sort"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
)

// Duplicate is a custom id used by more than one button in a guild. Owners
// are sorted by embed name; the first one handles presses.
type Duplicate struct {
	GuildID  string
	CustomID string
	Owners   []string
}

// Report summarizes a restore scan.
type Report struct {
	Guilds     int
	Embeds     int
	Buttons    int
	Duplicates []Duplicate
}

// Restore scans every guild's embeds and counts the buttons that can be
// pressed. A guild that fails to load is logged and skipped.
func Restore(ctx context.Context, store storage.EmbedStore) (Report, error) {
	guilds, err := store.ListGuilds(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list guilds: %w", err)
	}

	logger := log.ApplicationLogger()
	var report Report
	for _, guildID := range guilds {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		all, err := store.ListEmbeds(ctx, guildID)
		if err != nil {
			logger.Warn("Failed to load embeds for view restore", "guildID", guildID, "error", err)
			continue
		}
		report.Guilds++

		owners := make(map[string][]string)
		for _, name := range embeds.SortedNames(all) {
			def := all[name]
			live := 0
			for _, b := range def.Buttons {
				if b.IsLink() || b.CustomID == "" {
					continue
				}
				live++
				owners[b.CustomID] = appendOnce(owners[b.CustomID], name)
			}
			if live > 0 {
				report.Embeds++
				report.Buttons += live
			}
		}

		ids := make([]string, 0, len(owners))
		for id, names := range owners {
			if len(names) > 1 {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		for _, id := range ids {
			d := Duplicate{GuildID: guildID, CustomID: id, Owners: owners[id]}
			report.Duplicates = append(report.Duplicates, d)
			logger.Warn("Duplicate button custom_id; the first embed handles presses",
				"guildID", guildID, "customID", id, "embeds", d.Owners, "handler", d.Owners[0])
		}
	}

	logger.Info("Restored persistent views",
		"guilds", report.Guilds, "embeds", report.Embeds, "buttons", report.Buttons, "duplicates", len(report.Duplicates))
	return report, nil
}

func appendOnce(list []string, v string) []string {
	if n := len(list); n > 0 && list[n-1] == v {
		return list
	}
	return append(list, v)
}
