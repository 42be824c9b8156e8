package wizard

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

func rowItems(t *testing.T, v View, row int) []discordgo.MessageComponent {
	t.Helper()
	require.Greater(t, len(v.Components), row)
	r, ok := v.Components[row].(discordgo.ActionsRow)
	require.True(t, ok, "component %d is %T", row, v.Components[row])
	return r.Components
}

func selectAt(t *testing.T, v View, row int) discordgo.SelectMenu {
	t.Helper()
	m, ok := rowItems(t, v, row)[0].(discordgo.SelectMenu)
	require.True(t, ok)
	return m
}

func TestComponentIDRoundTrip(t *testing.T) {
	id, component, ok := ParseComponentID(ComponentID("abc-123", ComponentSubmit))
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)
	assert.Equal(t, ComponentSubmit, component)

	for _, bad := range []string{"btn", "eb:wiz:", "eb:wiz:abc", "eb:wiz::submit"} {
		_, _, ok := ParseComponentID(bad)
		assert.False(t, ok, bad)
	}
}

func TestRenderChooseEnablesNextAfterKind(t *testing.T) {
	s := opened(t)
	v := Render(s)
	menu := selectAt(t, v, 0)
	assert.Equal(t, "eb:wiz:sid:kind", menu.CustomID)
	assert.Len(t, menu.Options, len(embeds.Kinds))
	next := rowItems(t, v, 1)[0].(discordgo.Button)
	assert.True(t, next.Disabled)

	s = step(t, s, ChooseKind{Kind: embeds.KindSendEmbed})
	v = Render(s)
	next = rowItems(t, v, 1)[0].(discordgo.Button)
	assert.False(t, next.Disabled)
	for _, o := range selectAt(t, v, 0).Options {
		assert.Equal(t, o.Value == string(embeds.KindSendEmbed), o.Default, o.Value)
	}
}

func TestRenderRolesPrechecksSelection(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindAddRoles},
		Next{Actions: []embeds.Action{embeds.AddRoles{RoleIDs: []string{"r1", "r2"}}}})
	menu := selectAt(t, Render(s), 0)
	assert.Equal(t, discordgo.RoleSelectMenu, menu.MenuType)
	require.Len(t, menu.DefaultValues, 2)
	assert.Equal(t, "r1", menu.DefaultValues[0].ID)
	require.NotNil(t, menu.MinValues)
	assert.Equal(t, 0, *menu.MinValues)
}

func TestRenderMultiEmbed(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindSendEmbed},
		Next{Counts: map[string]int{"a": 1000, "b": 5500, "c": 20}},
		SelectEmbeds{Names: []string{"a"}})
	v := Render(s)

	menu := selectAt(t, v, 0)
	var values []string
	for _, o := range menu.Options {
		values = append(values, o.Value)
	}
	assert.Equal(t, []string{"a", "c"}, values, "b exceeds the remaining budget")
	assert.Equal(t, 2, menu.MaxValues)
	assert.Equal(t, "Selected • 1,000 chars", menu.Options[0].Description)
	assert.Equal(t, "20 chars • 5,000 remaining", menu.Options[1].Description)
	assert.Contains(t, v.Content, "1,000/6,000 (5,000 remaining)")
	assert.Len(t, v.Components, 2, "no pager for a single page")
}

func TestRenderMultiEmbedPagerAndPlaceholder(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindSendEmbed}, Next{Counts: manyCounts(30, 1)})
	v := Render(s)
	require.Len(t, v.Components, 3)
	pager := rowItems(t, v, 1)
	assert.True(t, pager[0].(discordgo.Button).Disabled)
	assert.False(t, pager[1].(discordgo.Button).Disabled)
	assert.Equal(t, embeds.MaxEmbedsPerMessage, selectAt(t, v, 0).MaxValues)

	empty := step(t, opened(t), ChooseKind{Kind: embeds.KindSendEmbed}, Next{})
	menu := selectAt(t, Render(empty), 0)
	assert.True(t, menu.Disabled)
	require.Len(t, menu.Options, 1)
	assert.Equal(t, placeholderValue, menu.Options[0].Value)
}

func TestRenderCommittedClearsComponents(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindEditEmbed},
		Next{Counts: map[string]int{"page2": 10}}, SelectSingle{Name: "page2"}, Submit{})
	v := Render(s)
	assert.NotNil(t, v.Components)
	assert.Empty(t, v.Components)
	assert.Equal(t, "✅ Button `btn` will now **edit the message** and display the `page2` embed when clicked.", v.Content)
}
