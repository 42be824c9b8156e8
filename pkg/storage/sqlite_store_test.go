package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

func newTempStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewSQLiteStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func sampleEmbed() embeds.Definition {
	row := 1
	return embeds.Definition{
		Title:       "Welcome",
		Description: "Pick your roles",
		Color:       0x5865f2,
		Author:      &embeds.Author{Name: "Staff", IconURL: "https://example.com/a.png"},
		Fields:      []embeds.Field{{Name: "Rules", Value: "Be nice", Inline: true}},
		Buttons: []embeds.Button{
			{
				Label:    "Member",
				Style:    "success",
				CustomID: "member",
				Row:      &row,
				Actions: []embeds.Action{
					embeds.AddRoles{RoleIDs: []string{"1234567890123456789"}},
					embeds.SendEmbed{EmbedNames: []string{"rules"}, Ephemeral: true},
				},
			},
			{Label: "Docs", Style: "link", URL: "https://example.com"},
		},
	}
}

func TestSchemaInitialized(t *testing.T) {
	store := newTempStore(t)
	rows, err := store.db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	if err != nil {
		t.Fatalf("query schema: %v", err)
	}
	defer rows.Close()

	required := map[string]bool{"embeds": false, "embed_channels": false}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if _, ok := required[name]; ok {
			required[name] = true
		}
	}
	for k, ok := range required {
		if !ok {
			t.Fatalf("expected table %s to exist", k)
		}
	}
}

func TestSaveAndGetEmbedRoundTrip(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	if _, err := store.GetEmbed(ctx, "g", "welcome"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	want := sampleEmbed()
	if err := store.SaveEmbed(ctx, "g", "welcome", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.GetEmbed(ctx, "g", "welcome")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *got, want)
	}
}

func TestSaveEmbedDefaultsButtons(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	if err := store.SaveEmbed(ctx, "g", "bare", embeds.Definition{Title: "t"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	var raw string
	if err := store.db.QueryRow(`SELECT config FROM embeds WHERE name='bare'`).Scan(&raw); err != nil {
		t.Fatalf("select: %v", err)
	}
	if want := `"buttons":[]`; !strings.Contains(raw, want) {
		t.Fatalf("expected %s in %s", want, raw)
	}
}

func TestAttachChannelIsIdempotent(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	if err := store.SaveEmbed(ctx, "g", "e", embeds.Empty()); err != nil {
		t.Fatalf("save: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.AttachChannel(ctx, "g", "e", "c1"); err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
	}
	chans, err := store.ListChannels(ctx, "g", "e")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(chans, []string{"c1"}) {
		t.Fatalf("expected single channel, got %v", chans)
	}

	if err := store.AttachChannel(ctx, "g", "e", "c2"); err != nil {
		t.Fatalf("attach c2: %v", err)
	}
	if err := store.DetachChannel(ctx, "g", "e", "c1"); err != nil {
		t.Fatalf("detach: %v", err)
	}
	chans, _ = store.ListChannels(ctx, "g", "e")
	if !reflect.DeepEqual(chans, []string{"c2"}) {
		t.Fatalf("expected [c2] after detach, got %v", chans)
	}

	if err := store.ClearChannels(ctx, "g", "e"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	chans, _ = store.ListChannels(ctx, "g", "e")
	if len(chans) != 0 {
		t.Fatalf("expected no channels after clear, got %v", chans)
	}

	if err := store.AttachChannel(ctx, "g", "missing", "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound attaching to missing embed, got %v", err)
	}
}

func TestSaveEmbedKeepsChannels(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	_ = store.SaveEmbed(ctx, "g", "e", embeds.Empty())
	_ = store.AttachChannel(ctx, "g", "e", "c1")

	edited := embeds.Empty()
	edited.Title = "Edited"
	if err := store.SaveEmbed(ctx, "g", "e", edited); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.GetEmbed(ctx, "g", "e")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Edited" || !reflect.DeepEqual(got.Channels, []string{"c1"}) {
		t.Fatalf("unexpected embed after save: %+v", got)
	}
}

func TestRenameRoundTrip(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	_ = store.SaveEmbed(ctx, "g", "A", sampleEmbed())
	_ = store.AttachChannel(ctx, "g", "A", "c1")
	before, err := store.GetEmbed(ctx, "g", "A")
	if err != nil {
		t.Fatalf("get A: %v", err)
	}

	if err := RenameEmbed(ctx, store, "g", "A", "B"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	after, err := store.GetEmbed(ctx, "g", "B")
	if err != nil {
		t.Fatalf("get B: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("rename changed the embed:\nbefore %+v\n after %+v", before, after)
	}
	if _, err := store.GetEmbed(ctx, "g", "A"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected A to be gone, got %v", err)
	}
}

func TestRenameRejections(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()
	_ = store.SaveEmbed(ctx, "g", "A", embeds.Empty())
	_ = store.SaveEmbed(ctx, "g", "B", embeds.Empty())

	tests := []struct {
		name, from, to string
	}{
		{"empty", "A", "  "},
		{"same", "A", "A"},
		{"exists", "A", "B"},
		{"dotted", "A", "a.b"},
	}
	for _, tt := range tests {
		var rerr *RenameError
		if err := RenameEmbed(ctx, store, "g", tt.from, tt.to); !errors.As(err, &rerr) {
			t.Fatalf("%s: expected RenameError, got %v", tt.name, err)
		}
	}
	if err := RenameEmbed(ctx, store, "g", "missing", "C"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing source, got %v", err)
	}
}

func TestFindButtonFirstMatchByName(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	dup := embeds.Button{Label: "x", Style: "primary", CustomID: "shared"}
	zeta := embeds.Empty()
	zeta.Buttons = []embeds.Button{dup}
	alpha := embeds.Empty()
	alpha.Buttons = []embeds.Button{dup}
	_ = store.SaveEmbed(ctx, "g", "zeta", zeta)
	_ = store.SaveEmbed(ctx, "g", "alpha", alpha)

	_, owner, err := store.FindButton(ctx, "g", "shared")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if owner != "alpha" {
		t.Fatalf("expected first match alpha, got %s", owner)
	}
	if _, _, err := store.FindButton(ctx, "g", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceActionsAndOpposingRoles(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()
	_ = store.SaveEmbed(ctx, "g", "welcome", sampleEmbed())

	next := []embeds.Action{
		embeds.RemoveRoles{RoleIDs: []string{"7"}},
		embeds.AddRoles{RoleIDs: []string{"8"}},
	}
	if err := store.ReplaceActions(ctx, "g", "welcome", "member", next); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := store.ListActions(ctx, "g", "welcome", "member")
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if !reflect.DeepEqual(got, next) {
		t.Fatalf("actions mismatch: got %v want %v", got, next)
	}

	opp, err := store.GetOpposingActionRoles(ctx, "g", "welcome", "member", embeds.KindAddRoles)
	if err != nil || !reflect.DeepEqual(opp, []string{"7"}) {
		t.Fatalf("opposing roles: %v %v", opp, err)
	}

	if err := store.ReplaceActions(ctx, "g", "welcome", "ghost", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing button, got %v", err)
	}
	if err := store.ReplaceActions(ctx, "g", "ghost", "member", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing embed, got %v", err)
	}
}

func TestListGuildsAndDelete(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()
	_ = store.SaveEmbed(ctx, "g2", "a", embeds.Empty())
	_ = store.SaveEmbed(ctx, "g1", "a", embeds.Empty())
	_ = store.AttachChannel(ctx, "g1", "a", "c")

	guilds, err := store.ListGuilds(ctx)
	if err != nil || !reflect.DeepEqual(guilds, []string{"g1", "g2"}) {
		t.Fatalf("list guilds: %v %v", guilds, err)
	}

	if err := store.DeleteEmbed(ctx, "g1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM embed_channels WHERE guild_id='g1'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected channels to cascade on delete, got %d", n)
	}
}

func TestUninitializedStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	if _, err := store.ListEmbeds(context.Background(), "g"); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}
