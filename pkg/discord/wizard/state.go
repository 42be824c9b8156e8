// Package wizard implements the multi-step flow that configures one action
// of a stored button. The flow is a pure state machine: Transition moves a
// State forward on an Event and Render turns a State into a message.
package wizard

import (
	"errors"
	"slices"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

// Step is the screen a wizard session is on.
type Step int

const (
	StepChooseActionType Step = iota
	StepRoleSelection
	StepMultiEmbedSelection
	StepSingleEmbedSelection
	StepCommitted
)

func (s Step) String() string {
	switch s {
	case StepChooseActionType:
		return "choose_action_type"
	case StepRoleSelection:
		return "role_selection"
	case StepMultiEmbedSelection:
		return "multi_embed_selection"
	case StepSingleEmbedSelection:
		return "single_embed_selection"
	case StepCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// MaxRoleSelection is the most roles a role select returns.
const MaxRoleSelection = 25

var (
	// ErrNotConfigurable is returned for buttons that cannot carry actions.
	ErrNotConfigurable = errors.New("this button has no custom_id and cannot have actions")
	// ErrNoKind is returned when Next is pressed before a kind is chosen.
	ErrNoKind = errors.New("no action type selected")
	// ErrUnexpectedEvent is returned for events the current step does not accept.
	ErrUnexpectedEvent = errors.New("event not valid for this step")
	// ErrFinished is returned for any event after the session committed.
	ErrFinished = errors.New("wizard already finished")
)

// State is the full state of one wizard session.
type State struct {
	// ID is the session id embedded in component custom ids.
	ID        string
	EmbedName string
	CustomID  string

	Step Step
	Kind embeds.ActionKind

	// Selection of the current step. Only the field of the current step is
	// meaningful.
	Roles  []string
	Embeds []string
	Single string
	Page   int

	// Counts holds the character count of every embed of the guild, loaded
	// when an embed step is entered.
	Counts map[string]int

	// Outcome is set once the session is committed.
	Outcome *Outcome
}

// Open starts a wizard for button of embedName. Link buttons and buttons
// without a custom id are refused.
func Open(id, embedName string, button embeds.Button) (State, error) {
	if button.IsLink() || button.CustomID == "" {
		return State{}, ErrNotConfigurable
	}
	return State{
		ID:        id,
		EmbedName: embedName,
		CustomID:  button.CustomID,
		Step:      StepChooseActionType,
	}, nil
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Roles = slices.Clone(s.Roles)
	out.Embeds = slices.Clone(s.Embeds)
	if s.Counts != nil {
		out.Counts = make(map[string]int, len(s.Counts))
		for k, v := range s.Counts {
			out.Counts[k] = v
		}
	}
	if s.Outcome != nil {
		o := *s.Outcome
		out.Outcome = &o
	}
	return out
}

// Compatible returns the embeds selectable on the multi-embed step and the
// remaining character budget.
func (s State) Compatible() (map[string]int, int) {
	return embeds.CompatibleCounts(s.Counts, s.Embeds)
}

// pageSource is the sorted list paged on the current step.
func (s State) pageSource() []string {
	switch s.Step {
	case StepMultiEmbedSelection:
		compatible, _ := s.Compatible()
		return embeds.SortedNames(compatible)
	case StepSingleEmbedSelection:
		return embeds.SortedNames(s.Counts)
	default:
		return nil
	}
}

// PageCount returns the number of pages of the current step, at least one.
func (s State) PageCount() int {
	return pageCount(len(s.pageSource()))
}

// Visible returns the names shown on the current page.
func (s State) Visible() []string {
	return pageSlice(s.pageSource(), s.Page)
}

func pageCount(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + embeds.SelectPageSize - 1) / embeds.SelectPageSize
}

func pageSlice(names []string, page int) []string {
	start := page * embeds.SelectPageSize
	if start < 0 || start >= len(names) {
		return nil
	}
	end := min(start+embeds.SelectPageSize, len(names))
	return names[start:end]
}

func clampPage(page, pages int) int {
	return max(0, min(page, pages-1))
}
