package wizard

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/roles"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

// Outcome is the result of a submitted wizard. A nil Action removes the
// kind from the button.
type Outcome struct {
	Kind   embeds.ActionKind
	Action embeds.Action

	// Applied lists what ended up in the action: role ids or embed names.
	Applied []string
	// Conflicts are roles dropped because the opposite kind has them.
	Conflicts []string
	// Invalid counts selected roles that no longer exist.
	Invalid int
	// Chars is the character usage of a send selection.
	Chars int
}

// ApplyOutcome returns actions with the outcome's kind replaced.
func ApplyOutcome(actions []embeds.Action, o Outcome) []embeds.Action {
	return embeds.ReplaceKind(actions, o.Kind, o.Action)
}

func roleOutcome(s State, e Submit) Outcome {
	var valid []string
	for _, id := range s.Roles {
		if _, ok := e.GuildRoles[id]; ok {
			valid = append(valid, id)
		}
	}

	var final, conflicts []string
	for _, id := range valid {
		if slices.Contains(e.Opposing, id) {
			conflicts = append(conflicts, id)
			continue
		}
		final = append(final, id)
	}

	o := Outcome{
		Kind:      s.Kind,
		Applied:   final,
		Conflicts: conflicts,
		Invalid:   len(s.Roles) - len(valid),
	}
	if len(final) > 0 {
		o.Action, _ = embeds.NewRoleAction(s.Kind, slices.Clone(final))
	}
	return o
}

func sendOutcome(s State) Outcome {
	o := Outcome{Kind: embeds.KindSendEmbed, Applied: slices.Clone(s.Embeds)}
	if len(s.Embeds) > 0 {
		o.Action = embeds.SendEmbed{EmbedNames: slices.Clone(s.Embeds), Ephemeral: true}
		o.Chars = embeds.Used(s.Counts, s.Embeds)
	}
	return o
}

func editOutcome(s State) Outcome {
	o := Outcome{Kind: embeds.KindEditEmbed}
	if s.Single != "" {
		o.Action = embeds.EditEmbed{EmbedName: s.Single}
		o.Applied = []string{s.Single}
	}
	return o
}

// Message is the confirmation shown in place of the wizard.
func (o Outcome) Message(customID string) string {
	switch o.Kind {
	case embeds.KindAddRoles, embeds.KindRemoveRoles:
		return o.roleMessage(customID)
	case embeds.KindSendEmbed:
		if len(o.Applied) == 0 {
			return fmt.Sprintf("ℹ️ **Send embed action removed** from button `%s`.", customID)
		}
		names := make([]string, len(o.Applied))
		for i, n := range o.Applied {
			names[i] = "`" + n + "`"
		}
		return fmt.Sprintf("✅ **%d embeds** configured for button `%s`:\n%s\n\n📊 **Total character usage:** %s/%s (%s remaining)",
			len(o.Applied), customID, strings.Join(names, ", "),
			humanize.Comma(int64(o.Chars)), humanize.Comma(embeds.MaxEmbedChars), humanize.Comma(int64(embeds.MaxEmbedChars-o.Chars)))
	case embeds.KindEditEmbed:
		if len(o.Applied) == 0 {
			return fmt.Sprintf("ℹ️ **Edit embed action removed** from button `%s`.", customID)
		}
		return fmt.Sprintf("✅ Button `%s` will now **edit the message** and display the `%s` embed when clicked.", customID, o.Applied[0])
	default:
		return "✅ Saved."
	}
}

func (o Outcome) roleMessage(customID string) string {
	var parts []string
	if len(o.Applied) > 0 {
		direction := "removed from"
		if o.Kind == embeds.KindAddRoles {
			direction = "added to"
		}
		parts = append(parts, fmt.Sprintf("✅ **%d roles** will be **%s** users when they click `%s`:\n%s",
			len(o.Applied), direction, customID, roleMentions(o.Applied)))
	} else {
		noun := "removal"
		if o.Kind == embeds.KindAddRoles {
			noun = "addition"
		}
		parts = append(parts, fmt.Sprintf("ℹ️ No roles configured for **%s** on button `%s`.", noun, customID))
	}
	if len(o.Conflicts) > 0 {
		parts = append(parts, fmt.Sprintf("\n⚠️ **%d roles** were ignored due to conflicts with **%s**:\n%s",
			len(o.Conflicts), o.Kind.Opposite(), roleMentions(o.Conflicts)))
	}
	if o.Invalid > 0 {
		parts = append(parts, fmt.Sprintf("\n⚠️ **%d roles** were ignored (deleted or inaccessible).", o.Invalid))
	}
	return strings.Join(parts, "\n")
}

func roleMentions(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = roles.Mention(id)
	}
	return strings.Join(out, ", ")
}
