package builder

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/small-frappuccino/embedbuilder/internal/discordtest"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands/core"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/roles"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/sender"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/wizard"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
)

type fixture struct {
	router  *core.CommandRouter
	store   *storage.SQLiteStore
	session *discordgo.Session
	srv     *discordtest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	session, srv := discordtest.NewSession(t)

	store := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "builder.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	wiz := wizard.NewHandler(store, roles.NewResolver(session), wizard.NewRegistry(8, wizard.DefaultTTL))
	ec := NewEmbedCommands(store, wiz, sender.New(session, ""))
	ec.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	router := core.NewCommandRouter(context.Background(), session)
	ec.RegisterCommands(router)
	return &fixture{router: router, store: store, session: session, srv: srv}
}

func admin() *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: "admin"}, Permissions: discordgo.PermissionManageGuild}
}

func str(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v}
}

func num(name string, v int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(v)}
}

func channel(id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: "channel", Type: discordgo.ApplicationCommandOptionChannel, Value: id}
}

func commandData(sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) discordgo.ApplicationCommandInteractionData {
	return discordgo.ApplicationCommandInteractionData{
		Name: commandName,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: sub, Type: discordgo.ApplicationCommandOptionSubCommand, Options: opts},
		},
	}
}

// runAs invokes /embed sub and returns the last interaction response.
func (f *fixture) runAs(t *testing.T, member *discordgo.Member, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) discordtest.Response {
	t.Helper()
	before := len(f.srv.InteractionResponses(t))
	f.router.HandleInteraction(f.session, discordtest.CommandInteraction("g1", member, commandData(sub, opts...)))
	resps := f.srv.InteractionResponses(t)
	require.Greater(t, len(resps), before, "no interaction response for %s", sub)
	return resps[len(resps)-1]
}

func (f *fixture) run(t *testing.T, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) string {
	t.Helper()
	resp := f.runAs(t, admin(), sub, opts...)
	require.NotNil(t, resp.Data)
	assert.True(t, resp.Data.Ephemeral(), "%s reply should be ephemeral", sub)
	return resp.Data.Content
}

func (f *fixture) embed(t *testing.T, name string) *embeds.Definition {
	t.Helper()
	def, err := f.store.GetEmbed(context.Background(), "g1", name)
	require.NoError(t, err)
	return def
}

func TestCreateAndList(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "ℹ️ No embeds yet. Create one with `/embed create`.", f.run(t, "list"))
	assert.Equal(t, "✅ Embed `rules` created. Use `/embed edit` to change it.", f.run(t, "create", str("name", "rules")))
	assert.Equal(t, "❌ An embed named `rules` already exists.", f.run(t, "create", str("name", "rules")))
	assert.Equal(t, "❌ Embed names cannot contain `.`.", f.run(t, "create", str("name", "a.b")))

	assert.Equal(t, embeds.Empty().Title, f.embed(t, "rules").Title)

	resp := f.runAs(t, admin(), "list")
	require.Len(t, resp.Data.Embeds, 1)
	assert.Equal(t, "Embeds (1)", resp.Data.Embeds[0].Title)
	assert.Contains(t, resp.Data.Embeds[0].Description, "`rules` •")
	assert.Contains(t, resp.Data.Embeds[0].Description, "0 button(s) • 0 channel(s)")
}

func TestListPagesLargeGuilds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 120; i++ {
		name := fmt.Sprintf("announcement-template-number-%03d-ab", i)
		require.NoError(t, f.store.SaveEmbed(ctx, "g1", name, embeds.Definition{Title: "Announcement", Description: strings.Repeat("d", 400)}))
	}

	first := f.runAs(t, admin(), "list")
	require.Len(t, first.Data.Embeds, 1)
	panel := first.Data.Embeds[0]
	assert.Equal(t, "Embeds (120)", panel.Title)
	assert.LessOrEqual(t, utf8.RuneCountInString(panel.Description), embeds.MaxDescriptionLength)
	assert.Equal(t, embeds.SelectPageSize, strings.Count(panel.Description, "\n")+1)
	assert.Contains(t, panel.Description, "`announcement-template-number-000-ab`")
	assert.NotContains(t, panel.Description, "`announcement-template-number-025-ab`")
	require.NotNil(t, panel.Footer)
	assert.Equal(t, "Page 1/5 • use the page option to see more", panel.Footer.Text)

	last := f.runAs(t, admin(), "list", num("page", 5)).Data.Embeds[0]
	assert.Equal(t, 20, strings.Count(last.Description, "\n")+1)
	assert.Contains(t, last.Description, "`announcement-template-number-119-ab`")
	assert.Equal(t, "Page 5/5 • use the page option to see more", last.Footer.Text)

	assert.Equal(t, "❌ Page 6 does not exist. There are 5 page(s).", f.run(t, "list", num("page", 6)))
}

func TestCommandsRequireManageServer(t *testing.T) {
	f := newFixture(t)
	member := &discordgo.Member{User: &discordgo.User{ID: "someone"}}

	resp := f.runAs(t, member, "create", str("name", "rules"))
	assert.Equal(t, "❌ You do not have permission to use this command", resp.Data.Content)

	_, err := f.store.GetEmbed(context.Background(), "g1", "rules")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEditAppliesOptions(t *testing.T) {
	f := newFixture(t)
	f.run(t, "create", str("name", "rules"))

	resp := f.runAs(t, admin(), "edit",
		str("name", "rules"),
		str("title", "Server Rules"),
		str("color", "red"),
		str("timestamp", "today"),
		str("author", "Staff"),
		str("footer", "Be nice"),
		str("thumbnail", "https://example.com/t.png"),
	)
	assert.Equal(t, "✅ Embed `rules` updated.", resp.Data.Content)
	require.Len(t, resp.Data.Embeds, 1)
	assert.Equal(t, "Server Rules", resp.Data.Embeds[0].Title)

	def := f.embed(t, "rules")
	assert.Equal(t, "Server Rules", def.Title)
	assert.Equal(t, 0xe74c3c, def.Color)
	assert.Equal(t, "2024-01-02T03:04:05Z", def.Timestamp)
	require.NotNil(t, def.Author)
	assert.Equal(t, "Staff", def.Author.Name)
	require.NotNil(t, def.Footer)
	assert.Equal(t, "Be nice", def.Footer.Text)
	require.NotNil(t, def.Thumbnail)

	f.run(t, "edit", str("name", "rules"), str("author", "none"), str("thumbnail", "none"), str("timestamp", "none"))
	def = f.embed(t, "rules")
	assert.Nil(t, def.Author)
	assert.Nil(t, def.Thumbnail)
	assert.Empty(t, def.Timestamp)
	assert.Equal(t, "Server Rules", def.Title)
}

func TestEditRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	f.run(t, "create", str("name", "rules"))

	assert.Equal(t, "⚠️ Nothing to change. Pass at least one field to edit.", f.run(t, "edit", str("name", "rules")))
	assert.Equal(t, "❌ Invalid color format: `nope`", f.run(t, "edit", str("name", "rules"), str("color", "nope")))
	assert.Contains(t, f.run(t, "edit", str("name", "rules"), str("image", "ftp://x")), "**Invalid URL:** `image`")
	assert.Contains(t, f.run(t, "edit", str("name", "rules"), str("title", strings.Repeat("x", 257))), "**Too Long:**")
	assert.Equal(t, "❌ Embed `ghost` not found.", f.run(t, "edit", str("name", "ghost"), str("title", "x")))

	assert.Equal(t, embeds.Empty().Title, f.embed(t, "rules").Title)
}

func TestFieldsAddAndRemove(t *testing.T) {
	f := newFixture(t)
	f.run(t, "create", str("name", "rules"))

	assert.Equal(t, "✅ Field added to `rules` (1/25).", f.run(t, "field_add", str("name", "rules"), str("field_name", "One"), str("value", "first")))
	f.run(t, "field_add", str("name", "rules"), str("field_name", "Two"), str("value", "second"))
	assert.Equal(t, "❌ **Invalid Field:** Fields need both a name and a value.",
		f.run(t, "field_add", str("name", "rules"), str("field_name", "Three")))

	assert.Equal(t, "❌ **Invalid Index:** Field index must be between 1 and 2.",
		f.run(t, "field_remove", str("name", "rules"), num("index", 3)))
	assert.Equal(t, "✅ Removed field `One` from `rules`.", f.run(t, "field_remove", str("name", "rules"), num("index", 1)))

	def := f.embed(t, "rules")
	require.Len(t, def.Fields, 1)
	assert.Equal(t, "Two", def.Fields[0].Name)
}

func TestButtonsAddAndRemove(t *testing.T) {
	f := newFixture(t)
	f.run(t, "create", str("name", "panel"))

	assert.Equal(t, "✅ Button `Join` added to `panel`. Use `/embed actions` to choose what it does.",
		f.run(t, "button_add", str("name", "panel"), str("label", "Join"), str("style", "success"), str("target", "join"), num("row", 1)))
	assert.Equal(t, "✅ Button `Docs` added to `panel`.",
		f.run(t, "button_add", str("name", "panel"), str("label", "Docs"), str("style", "link"), str("target", "https://example.com")))
	assert.Contains(t, f.run(t, "button_add", str("name", "panel"), str("label", "Again"), str("style", "primary"), str("target", "join")),
		"**Duplicate Custom ID:**")
	assert.Contains(t, f.run(t, "button_add", str("name", "panel"), str("label", "Bad"), str("style", "primary"), str("target", "eb:wiz:x")),
		"cannot start with `eb:`")
	assert.Contains(t, f.run(t, "button_add", str("name", "panel"), str("label", "Bad"), str("style", "link"), str("target", "example.com")),
		"**Invalid URL:**")

	def := f.embed(t, "panel")
	require.Len(t, def.Buttons, 2)
	require.NotNil(t, def.Buttons[0].Row)
	assert.Equal(t, 1, *def.Buttons[0].Row)
	assert.Equal(t, "https://example.com", def.Buttons[1].URL)

	assert.Equal(t, "✅ Removed button `Join` from `panel`.", f.run(t, "button_remove", str("name", "panel"), num("index", 1)))
	def = f.embed(t, "panel")
	require.Len(t, def.Buttons, 1)
	assert.Equal(t, "Docs", def.Buttons[0].Label)
}

func TestRenameAndDelete(t *testing.T) {
	f := newFixture(t)
	f.run(t, "create", str("name", "a"))
	f.run(t, "create", str("name", "b"))

	assert.Equal(t, "❌ An embed named `b` already exists.", f.run(t, "rename", str("name", "a"), str("new_name", "b")))
	assert.Equal(t, "❌ Embed `ghost` not found.", f.run(t, "rename", str("name", "ghost"), str("new_name", "c")))
	assert.Equal(t, "✅ Renamed `a` to `c`.", f.run(t, "rename", str("name", "a"), str("new_name", "c")))
	f.embed(t, "c")

	assert.Equal(t, "✅ Embed `c` deleted.", f.run(t, "delete", str("name", "c")))
	assert.Equal(t, "❌ Embed `c` not found.", f.run(t, "delete", str("name", "c")))
}

func TestChannelAttachment(t *testing.T) {
	f := newFixture(t)
	f.run(t, "create", str("name", "rules"))

	assert.Equal(t, "✅ `rules` will be sent to <#c1>.", f.run(t, "attach", str("name", "rules"), channel("c1")))
	assert.Equal(t, "ℹ️ <#c1> is already attached to `rules`.", f.run(t, "attach", str("name", "rules"), channel("c1")))
	f.run(t, "attach", str("name", "rules"), channel("c2"))

	assert.Equal(t, "⚠️ <#c3> is not attached to `rules`.", f.run(t, "detach", str("name", "rules"), channel("c3")))
	assert.Equal(t, "✅ `rules` will no longer be sent to <#c1>.", f.run(t, "detach", str("name", "rules"), channel("c1")))
	assert.Equal(t, []string{"c2"}, f.embed(t, "rules").Channels)

	assert.Equal(t, "✅ Detached 1 channel(s) from `rules`.", f.run(t, "clear_channels", str("name", "rules")))
	assert.Equal(t, "ℹ️ `rules` has no channels attached.", f.run(t, "clear_channels", str("name", "rules")))
}

func TestPreviewRendersButtons(t *testing.T) {
	f := newFixture(t)
	f.run(t, "create", str("name", "panel"))
	f.run(t, "button_add", str("name", "panel"), str("label", "Join"), str("style", "success"), str("target", "join"))

	resp := f.runAs(t, admin(), "preview", str("name", "panel"))
	require.Len(t, resp.Data.Embeds, 1)
	assert.Equal(t, embeds.Empty().Title, resp.Data.Embeds[0].Title)
	assert.Equal(t, []string{"join"}, resp.Data.CustomIDs())
}

func TestSendReportsPerChannel(t *testing.T) {
	f := newFixture(t)
	f.srv.Handle(http.MethodGet, "/channels/c1", http.StatusOK, `{"id":"c1","guild_id":"g1"}`)
	f.srv.Handle(http.MethodPost, "/channels/c1/messages", http.StatusOK, `{"id":"m1"}`)
	f.srv.Handle(http.MethodGet, "/channels/c2", http.StatusNotFound, `{"message":"Unknown Channel","code":10003}`)

	f.run(t, "create", str("name", "rules"))
	f.run(t, "attach", str("name", "rules"), channel("c1"))
	f.run(t, "attach", str("name", "rules"), channel("c2"))

	resp := f.runAs(t, admin(), "send", str("name", "rules"))
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, resp.Type)

	sent := f.srv.Messages(t, http.MethodPost, "/channels/c1/messages")
	require.Len(t, sent, 1)
	assert.Equal(t, embeds.Empty().Title, sent[0].Embeds[0].Title)

	followups := f.srv.Followups(t)
	require.NotEmpty(t, followups)
	summary := followups[len(followups)-1]
	assert.True(t, summary.Ephemeral())
	assert.Contains(t, summary.Content, "✅ Embed `rules` sent to 1 channel(s).")
	assert.Contains(t, summary.Content, "<#c2> (channel not found)")
}

func TestSendToCurrentChannelWhenUnattached(t *testing.T) {
	f := newFixture(t)
	f.srv.Handle(http.MethodPost, "/channels/channel/messages", http.StatusOK, `{"id":"m9"}`)
	f.run(t, "create", str("name", "rules"))

	f.runAs(t, admin(), "send", str("name", "rules"))
	require.Len(t, f.srv.Messages(t, http.MethodPost, "/channels/channel/messages"), 1)

	followups := f.srv.Followups(t)
	require.NotEmpty(t, followups)
	assert.Contains(t, followups[len(followups)-1].Content, "sent to 1 channel(s)")

	resp := f.runAs(t, admin(), "send", str("name", "rules"), str("method", "pigeon"))
	assert.Equal(t, "❌ **Invalid Method:** Use `bot` or `webhook`.", resp.Data.Content)
}

func TestActionsOpensWizard(t *testing.T) {
	f := newFixture(t)
	f.run(t, "create", str("name", "panel"))
	f.run(t, "button_add", str("name", "panel"), str("label", "Join"), str("style", "success"), str("target", "join"))

	resp := f.runAs(t, admin(), "actions", str("name", "panel"), str("button", "join"))
	require.NotEmpty(t, resp.Data.CustomIDs())
	assert.True(t, strings.HasPrefix(resp.Data.CustomIDs()[0], wizard.CustomIDPrefix))

	assert.Equal(t, "❌ Embed `ghost` not found.", f.run(t, "actions", str("name", "ghost"), str("button", "join")))
}

func TestAutocomplete(t *testing.T) {
	f := newFixture(t)
	f.run(t, "create", str("name", "welcome"))
	f.run(t, "create", str("name", "rules"))
	f.run(t, "button_add", str("name", "rules"), str("label", "Accept"), str("style", "success"), str("target", "accept"))
	f.run(t, "button_add", str("name", "rules"), str("label", "Docs"), str("style", "link"), str("target", "https://example.com"))

	complete := func(opts ...*discordgo.ApplicationCommandInteractionDataOption) []discordgo.ApplicationCommandOptionChoice {
		t.Helper()
		ic := discordtest.CommandInteraction("g1", admin(), commandData("actions", opts...))
		ic.Type = discordgo.InteractionApplicationCommandAutocomplete
		f.router.HandleInteraction(f.session, ic)

		reqs := f.srv.Requests(http.MethodPost, "/callback")
		require.NotEmpty(t, reqs)
		var resp struct {
			Type discordgo.InteractionResponseType `json:"type"`
			Data struct {
				Choices []discordgo.ApplicationCommandOptionChoice `json:"choices"`
			} `json:"data"`
		}
		require.NoError(t, reqs[len(reqs)-1].Decode(&resp))
		assert.Equal(t, discordgo.InteractionApplicationCommandAutocompleteResult, resp.Type)
		return resp.Data.Choices
	}

	focused := str("name", "ru")
	focused.Focused = true
	choices := complete(focused)
	require.Len(t, choices, 1)
	assert.Equal(t, "rules", choices[0].Value)

	button := str("button", "")
	button.Focused = true
	choices = complete(str("name", "rules"), button)
	require.Len(t, choices, 2)
	assert.Equal(t, "1. Accept (accept)", choices[0].Name)
	assert.Equal(t, "accept", choices[0].Value)
	assert.Equal(t, "2. Docs (link)", choices[1].Name)
	assert.Equal(t, "2", choices[1].Value)
}
