package wizard

import (
	"fmt"
	"slices"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

// Event is an input to Transition.
type Event interface {
	isEvent()
}

// ChooseKind records the action kind picked on the first screen.
type ChooseKind struct {
	Kind embeds.ActionKind
}

// Next enters the selection step of the chosen kind. The handler loads the
// snapshot from the store right before the transition.
type Next struct {
	Actions []embeds.Action
	Counts  map[string]int
}

// Back returns to the first screen. The current selection is discarded.
type Back struct{}

// SelectRoles replaces the role selection.
type SelectRoles struct {
	RoleIDs []string
}

// SelectEmbeds is a re-submission of the multi-embed select on the current
// page.
type SelectEmbeds struct {
	Names []string
}

// SelectSingle sets the single-embed selection; an empty name clears it.
type SelectSingle struct {
	Name string
}

// PrevPage and NextPage move through the paged select.
type (
	PrevPage struct{}
	NextPage struct{}
)

// Submit commits the selection. GuildRoles and Opposing are only read for
// role kinds.
type Submit struct {
	GuildRoles map[string]struct{}
	Opposing   []string
}

func (ChooseKind) isEvent()   {}
func (Next) isEvent()         {}
func (Back) isEvent()         {}
func (SelectRoles) isEvent()  {}
func (SelectEmbeds) isEvent() {}
func (SelectSingle) isEvent() {}
func (PrevPage) isEvent()     {}
func (NextPage) isEvent()     {}
func (Submit) isEvent()       {}

// Transition applies ev to s and returns the new state. s is never
// modified. On error the returned state equals s.
func Transition(s State, ev Event) (State, error) {
	if s.Step == StepCommitted {
		return s, ErrFinished
	}
	next := s.Clone()

	switch e := ev.(type) {
	case ChooseKind:
		if s.Step != StepChooseActionType {
			return s, unexpected(s, ev)
		}
		if !e.Kind.Valid() {
			return s, fmt.Errorf("%w: unknown action type %q", ErrUnexpectedEvent, e.Kind)
		}
		next.Kind = e.Kind
		return next, nil

	case Next:
		if s.Step != StepChooseActionType {
			return s, unexpected(s, ev)
		}
		if s.Kind == "" {
			return s, ErrNoKind
		}
		return enter(next, e), nil

	case Back:
		if s.Step == StepChooseActionType {
			return s, unexpected(s, ev)
		}
		return State{
			ID:        s.ID,
			EmbedName: s.EmbedName,
			CustomID:  s.CustomID,
			Step:      StepChooseActionType,
			Kind:      s.Kind,
		}, nil

	case SelectRoles:
		if s.Step != StepRoleSelection {
			return s, unexpected(s, ev)
		}
		next.Roles = dedupe(e.RoleIDs, MaxRoleSelection)
		return next, nil

	case SelectEmbeds:
		if s.Step != StepMultiEmbedSelection {
			return s, unexpected(s, ev)
		}
		next.Embeds = reselect(s, e.Names)
		next.Page = clampPage(next.Page, next.PageCount())
		return next, nil

	case SelectSingle:
		if s.Step != StepSingleEmbedSelection {
			return s, unexpected(s, ev)
		}
		if _, ok := s.Counts[e.Name]; ok {
			next.Single = e.Name
		} else {
			next.Single = ""
		}
		return next, nil

	case PrevPage:
		if s.Step != StepMultiEmbedSelection && s.Step != StepSingleEmbedSelection {
			return s, unexpected(s, ev)
		}
		next.Page = clampPage(s.Page-1, s.PageCount())
		return next, nil

	case NextPage:
		if s.Step != StepMultiEmbedSelection && s.Step != StepSingleEmbedSelection {
			return s, unexpected(s, ev)
		}
		next.Page = clampPage(s.Page+1, s.PageCount())
		return next, nil

	case Submit:
		var o Outcome
		switch s.Step {
		case StepRoleSelection:
			o = roleOutcome(s, e)
		case StepMultiEmbedSelection:
			o = sendOutcome(s)
		case StepSingleEmbedSelection:
			o = editOutcome(s)
		default:
			return s, unexpected(s, ev)
		}
		next.Step = StepCommitted
		next.Outcome = &o
		return next, nil

	default:
		return s, unexpected(s, ev)
	}
}

func unexpected(s State, ev Event) error {
	return fmt.Errorf("%w: %T on %s", ErrUnexpectedEvent, ev, s.Step)
}

// enter moves to the selection step of s.Kind, preselecting what is stored.
func enter(s State, e Next) State {
	s.Page = 0
	s.Roles, s.Embeds, s.Single = nil, nil, ""
	existing, _ := embeds.FindAction(e.Actions, s.Kind)

	switch s.Kind {
	case embeds.KindAddRoles, embeds.KindRemoveRoles:
		s.Step = StepRoleSelection
		s.Counts = nil
		if existing != nil {
			s.Roles = dedupe(embeds.RoleIDs(existing), MaxRoleSelection)
		}

	case embeds.KindSendEmbed:
		s.Step = StepMultiEmbedSelection
		s.Counts = copyCounts(e.Counts)
		if a, ok := existing.(embeds.SendEmbed); ok {
			// Names of deleted embeds are dropped; the rest must still fit.
			s.Embeds = admit(s.Counts, nil, a.EmbedNames)
		}

	case embeds.KindEditEmbed:
		s.Step = StepSingleEmbedSelection
		s.Counts = copyCounts(e.Counts)
		if a, ok := existing.(embeds.EditEmbed); ok {
			if _, found := s.Counts[a.EmbedName]; found {
				s.Single = a.EmbedName
				s.Page = slices.Index(embeds.SortedNames(s.Counts), a.EmbedName) / embeds.SelectPageSize
			}
		}
	}
	return s
}

// reselect applies a re-submission of the current page: choices visible on
// the page are replaced by names, selections from other pages are kept.
func reselect(s State, names []string) []string {
	visible := s.Visible()
	onPage := make(map[string]struct{}, len(visible))
	for _, n := range visible {
		onPage[n] = struct{}{}
	}

	var kept []string
	for _, n := range s.Embeds {
		if _, ok := onPage[n]; !ok {
			kept = append(kept, n)
		}
	}

	var chosen []string
	for _, n := range names {
		if _, ok := onPage[n]; ok {
			chosen = append(chosen, n)
		}
	}
	return admit(s.Counts, kept, chosen)
}

// admit appends each candidate to selected while it exists, is not yet
// selected, fits the remaining budget and the selection has room.
func admit(counts map[string]int, selected, candidates []string) []string {
	out := slices.Clone(selected)
	used := embeds.Used(counts, out)
	for _, n := range candidates {
		if len(out) >= embeds.MaxEmbedsPerMessage {
			break
		}
		count, ok := counts[n]
		if !ok || slices.Contains(out, n) {
			continue
		}
		if used+count > embeds.MaxEmbedChars {
			continue
		}
		out = append(out, n)
		used += count
	}
	return out
}

func dedupe(ids []string, limit int) []string {
	var out []string
	for _, id := range ids {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, id)
	}
	return out
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
