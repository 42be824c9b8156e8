package wizard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

func opened(t *testing.T) State {
	t.Helper()
	s, err := Open("sid", "panel", embeds.Button{Label: "Go", Style: "primary", CustomID: "btn"})
	require.NoError(t, err)
	return s
}

func step(t *testing.T, s State, events ...Event) State {
	t.Helper()
	for _, ev := range events {
		next, err := Transition(s, ev)
		require.NoError(t, err, "event %T", ev)
		s = next
	}
	return s
}

func manyCounts(n, each int) map[string]int {
	out := make(map[string]int, n)
	for i := 0; i < n; i++ {
		out[fmt.Sprintf("e%02d", i)] = each
	}
	return out
}

func TestOpenRefusesButtonsWithoutCustomID(t *testing.T) {
	_, err := Open("sid", "panel", embeds.Button{Label: "Docs", Style: "link", URL: "https://example.com"})
	assert.ErrorIs(t, err, ErrNotConfigurable)

	_, err = Open("sid", "panel", embeds.Button{Label: "Odd", Style: "primary"})
	assert.ErrorIs(t, err, ErrNotConfigurable)
}

func TestChooseKindAndNext(t *testing.T) {
	s := opened(t)

	_, err := Transition(s, Next{})
	assert.ErrorIs(t, err, ErrNoKind)

	_, err = Transition(s, ChooseKind{Kind: "launch_rockets"})
	assert.ErrorIs(t, err, ErrUnexpectedEvent)

	s = step(t, s, ChooseKind{Kind: embeds.KindAddRoles})
	assert.Equal(t, StepChooseActionType, s.Step)
	assert.Equal(t, embeds.KindAddRoles, s.Kind)

	s = step(t, s, Next{Actions: []embeds.Action{
		embeds.RemoveRoles{RoleIDs: []string{"r9"}},
		embeds.AddRoles{RoleIDs: []string{"r1", "r2"}},
	}})
	assert.Equal(t, StepRoleSelection, s.Step)
	assert.Equal(t, []string{"r1", "r2"}, s.Roles)
}

func TestBackDiscardsSelection(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindAddRoles}, Next{}, SelectRoles{RoleIDs: []string{"r1"}})

	back := step(t, s, Back{})
	assert.Equal(t, StepChooseActionType, back.Step)
	assert.Equal(t, embeds.KindAddRoles, back.Kind)
	assert.Empty(t, back.Roles)
	assert.Equal(t, "sid", back.ID)

	_, err := Transition(back, Back{})
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
}

func TestTransitionDoesNotModifyInput(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindAddRoles}, Next{}, SelectRoles{RoleIDs: []string{"r1", "r2"}})
	_ = step(t, s, SelectRoles{RoleIDs: []string{"r3"}})
	assert.Equal(t, []string{"r1", "r2"}, s.Roles)
}

func TestRoleSubmitResolvesConflictsAndInvalidRoles(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindAddRoles}, Next{},
		SelectRoles{RoleIDs: []string{"r1", "r2", "r3", "gone", "r1"}})

	s = step(t, s, Submit{
		GuildRoles: map[string]struct{}{"r1": {}, "r2": {}, "r3": {}},
		Opposing:   []string{"r2"},
	})
	require.Equal(t, StepCommitted, s.Step)
	require.NotNil(t, s.Outcome)

	o := *s.Outcome
	assert.Equal(t, []string{"r1", "r3"}, o.Applied)
	assert.Equal(t, []string{"r2"}, o.Conflicts)
	assert.Equal(t, 1, o.Invalid)
	assert.Equal(t, embeds.AddRoles{RoleIDs: []string{"r1", "r3"}}, o.Action)

	existing := []embeds.Action{
		embeds.AddRoles{RoleIDs: []string{"old"}},
		embeds.SendEmbed{EmbedNames: []string{"info"}},
		embeds.RemoveRoles{RoleIDs: []string{"r2"}},
	}
	got := ApplyOutcome(existing, o)
	assert.Equal(t, []embeds.Action{
		embeds.SendEmbed{EmbedNames: []string{"info"}},
		embeds.RemoveRoles{RoleIDs: []string{"r2"}},
		embeds.AddRoles{RoleIDs: []string{"r1", "r3"}},
	}, got)
}

func TestRoleSubmitWithNothingLeftRemovesAction(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindRemoveRoles}, Next{},
		SelectRoles{RoleIDs: []string{"r1"}},
		Submit{GuildRoles: map[string]struct{}{"r1": {}}, Opposing: []string{"r1"}})

	assert.Nil(t, s.Outcome.Action)
	got := ApplyOutcome([]embeds.Action{embeds.RemoveRoles{RoleIDs: []string{"r5"}}}, *s.Outcome)
	assert.Empty(t, got)
}

func TestMultiEmbedBudget(t *testing.T) {
	counts := map[string]int{"a": 3000, "b": 2500, "c": 1000, "d": 400}
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindSendEmbed}, Next{Counts: counts})
	require.Equal(t, StepMultiEmbedSelection, s.Step)

	s = step(t, s, SelectEmbeds{Names: []string{"a", "b", "c", "d"}})
	assert.Equal(t, []string{"a", "b", "d"}, s.Embeds, "c no longer fits once a and b are chosen")

	compatible, remaining := s.Compatible()
	assert.Equal(t, 100, remaining)
	assert.NotContains(t, compatible, "c")
	assert.Contains(t, compatible, "d", "selected embeds stay compatible")
}

func TestMultiEmbedSelectionIsCapped(t *testing.T) {
	counts := manyCounts(12, 10)
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindSendEmbed}, Next{Counts: counts})

	s = step(t, s, SelectEmbeds{Names: embeds.SortedNames(counts)})
	assert.Len(t, s.Embeds, embeds.MaxEmbedsPerMessage)
}

func TestMultiEmbedReselectKeepsOtherPages(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindSendEmbed}, Next{Counts: manyCounts(30, 10)})
	assert.Equal(t, 2, s.PageCount())

	s = step(t, s, SelectEmbeds{Names: []string{"e00", "e01"}}, NextPage{})
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, []string{"e25", "e26", "e27", "e28", "e29"}, s.Visible())

	s = step(t, s, SelectEmbeds{Names: []string{"e26", "e00"}})
	assert.Equal(t, []string{"e00", "e01", "e26"}, s.Embeds)

	s = step(t, s, SelectEmbeds{})
	assert.Equal(t, []string{"e00", "e01"}, s.Embeds)

	s = step(t, s, NextPage{})
	assert.Equal(t, 1, s.Page, "paging stops at the last page")
	s = step(t, s, PrevPage{}, PrevPage{})
	assert.Equal(t, 0, s.Page)
}

func TestMultiEmbedSubmit(t *testing.T) {
	counts := map[string]int{"a": 1000, "b": 234}
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindSendEmbed},
		Next{
			Actions: []embeds.Action{embeds.SendEmbed{EmbedNames: []string{"b", "deleted"}}},
			Counts:  counts,
		})
	assert.Equal(t, []string{"b"}, s.Embeds, "names of deleted embeds are dropped")

	s = step(t, s, SelectEmbeds{Names: []string{"a", "b"}}, Submit{})
	o := s.Outcome
	require.NotNil(t, o)
	assert.Equal(t, embeds.SendEmbed{EmbedNames: []string{"a", "b"}, Ephemeral: true}, o.Action)
	assert.Equal(t, 1234, o.Chars)
	assert.Contains(t, o.Message("btn"), "1,234/6,000 (4,766 remaining)")
}

func TestMultiEmbedEmptySubmitRemovesAction(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindSendEmbed},
		Next{Actions: []embeds.Action{embeds.SendEmbed{EmbedNames: []string{"a"}}}, Counts: map[string]int{"a": 1}},
		SelectEmbeds{}, Submit{})

	assert.Nil(t, s.Outcome.Action)
	assert.Equal(t, "ℹ️ **Send embed action removed** from button `btn`.", s.Outcome.Message("btn"))
}

func TestSingleEmbedSelection(t *testing.T) {
	counts := manyCounts(30, 5000)
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindEditEmbed},
		Next{Actions: []embeds.Action{embeds.EditEmbed{EmbedName: "e27"}}, Counts: counts})
	require.Equal(t, StepSingleEmbedSelection, s.Step)
	assert.Equal(t, "e27", s.Single)
	assert.Equal(t, 1, s.Page, "opens on the page of the stored embed")
	assert.Equal(t, 2, s.PageCount(), "no budget applies to single selection")

	s = step(t, s, SelectSingle{Name: "e03"}, Submit{})
	assert.Equal(t, embeds.EditEmbed{EmbedName: "e03"}, s.Outcome.Action)
}

func TestSingleEmbedEmptySubmitClears(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindEditEmbed},
		Next{Actions: []embeds.Action{embeds.EditEmbed{EmbedName: "a"}}, Counts: map[string]int{"a": 1}},
		SelectSingle{}, Submit{})
	assert.Nil(t, s.Outcome.Action)
}

func TestCommittedAcceptsNothing(t *testing.T) {
	s := step(t, opened(t), ChooseKind{Kind: embeds.KindEditEmbed}, Next{}, Submit{})
	_, err := Transition(s, Back{})
	assert.ErrorIs(t, err, ErrFinished)
}

func TestEventsOutsideTheirStep(t *testing.T) {
	s := opened(t)
	for _, ev := range []Event{SelectRoles{}, SelectEmbeds{}, SelectSingle{}, PrevPage{}, NextPage{}, Submit{}} {
		_, err := Transition(s, ev)
		assert.ErrorIs(t, err, ErrUnexpectedEvent, "%T", ev)
	}
}

func TestRoleOutcomeMessage(t *testing.T) {
	o := Outcome{
		Kind:      embeds.KindAddRoles,
		Applied:   []string{"r1"},
		Conflicts: []string{"r2"},
		Invalid:   2,
	}
	want := "✅ **1 roles** will be **added to** users when they click `btn`:\n<@&r1>\n" +
		"\n⚠️ **1 roles** were ignored due to conflicts with **remove_roles**:\n<@&r2>\n" +
		"\n⚠️ **2 roles** were ignored (deleted or inaccessible)."
	assert.Equal(t, want, o.Message("btn"))

	empty := Outcome{Kind: embeds.KindRemoveRoles}
	assert.Equal(t, "ℹ️ No roles configured for **removal** on button `btn`.", empty.Message("btn"))
}
