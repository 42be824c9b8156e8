package wizard

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

// CustomIDPrefix prefixes every wizard component custom id.
const CustomIDPrefix = embeds.ReservedCustomPrefix + "wiz:"

// Component names used as the last custom id segment.
const (
	ComponentKind     = "kind"
	ComponentNext     = "next"
	ComponentBack     = "back"
	ComponentRoles    = "roles"
	ComponentEmbeds   = "embeds"
	ComponentSingle   = "single"
	ComponentPrevPage = "prev"
	ComponentNextPage = "more"
	ComponentSubmit   = "submit"
)

const placeholderValue = "placeholder"

// View is the rendered wizard message.
type View struct {
	Content    string
	Components []discordgo.MessageComponent
}

// ComponentID builds the custom id of component for session id.
func ComponentID(id, component string) string {
	return CustomIDPrefix + id + ":" + component
}

// ParseComponentID splits a wizard custom id into session id and component.
func ParseComponentID(customID string) (id, component string, ok bool) {
	rest, found := strings.CutPrefix(customID, CustomIDPrefix)
	if !found {
		return "", "", false
	}
	id, component, ok = strings.Cut(rest, ":")
	if !ok || id == "" || component == "" {
		return "", "", false
	}
	return id, component, true
}

// Render describes the message for s.
func Render(s State) View {
	switch s.Step {
	case StepChooseActionType:
		return renderChoose(s)
	case StepRoleSelection:
		return renderRoles(s)
	case StepMultiEmbedSelection:
		return renderMulti(s)
	case StepSingleEmbedSelection:
		return renderSingle(s)
	case StepCommitted:
		content := "✅ Saved."
		if s.Outcome != nil {
			content = s.Outcome.Message(s.CustomID)
		}
		return View{Content: content, Components: []discordgo.MessageComponent{}}
	default:
		return View{Content: "Unknown wizard state.", Components: []discordgo.MessageComponent{}}
	}
}

func renderChoose(s State) View {
	options := make([]discordgo.SelectMenuOption, 0, len(embeds.Kinds))
	for _, k := range embeds.Kinds {
		options = append(options, discordgo.SelectMenuOption{
			Label:   k.Label(),
			Value:   string(k),
			Default: k == s.Kind,
		})
	}
	one := 1
	return View{
		Content: fmt.Sprintf("Configure an action for button `%s` on embed `%s`.", s.CustomID, s.EmbedName),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    ComponentID(s.ID, ComponentKind),
					Placeholder: "Choose an action type",
					MinValues:   &one,
					MaxValues:   1,
					Options:     options,
				},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.SuccessButton,
					CustomID: ComponentID(s.ID, ComponentNext),
					Disabled: s.Kind == "",
					Emoji:    &discordgo.ComponentEmoji{Name: "➡️"},
				},
			}},
		},
	}
}

func renderRoles(s State) View {
	verb := "remove"
	if s.Kind == embeds.KindAddRoles {
		verb = "add"
	}
	defaults := make([]discordgo.SelectMenuDefaultValue, 0, len(s.Roles))
	for _, id := range s.Roles {
		defaults = append(defaults, discordgo.SelectMenuDefaultValue{ID: id, Type: discordgo.SelectMenuDefaultValueRole})
	}
	zero := 0
	return View{
		Content: fmt.Sprintf("Select the roles to **%s** when `%s` is clicked. Submit with nothing selected to remove the action.", verb, s.CustomID),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:      discordgo.RoleSelectMenu,
					CustomID:      ComponentID(s.ID, ComponentRoles),
					Placeholder:   "Select roles for this action...",
					MinValues:     &zero,
					MaxValues:     MaxRoleSelection,
					DefaultValues: defaults,
				},
			}},
			navigationRow(s),
		},
	}
}

func renderMulti(s State) View {
	compatible, remaining := s.Compatible()
	visible := s.Visible()

	var options []discordgo.SelectMenuOption
	for _, name := range visible {
		count := compatible[name]
		selected := slices.Contains(s.Embeds, name)
		desc := fmt.Sprintf("%s chars • %s remaining", humanize.Comma(int64(count)), humanize.Comma(int64(remaining)))
		if selected {
			desc = fmt.Sprintf("Selected • %s chars", humanize.Comma(int64(count)))
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       embeds.Truncate(name, embeds.MaxChoiceLength),
			Value:       name,
			Description: embeds.Truncate(desc, embeds.MaxChoiceLength),
			Default:     selected,
		})
	}
	disabled := false
	if len(options) == 0 {
		disabled = true
		options = []discordgo.SelectMenuOption{{
			Label:       "No compatible embeds available",
			Value:       placeholderValue,
			Description: "Character limit reached or no embeds exist",
		}}
	}

	zero := 0
	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    ComponentID(s.ID, ComponentEmbeds),
				Placeholder: "Select embeds to send",
				MinValues:   &zero,
				MaxValues:   max(1, min(embeds.MaxEmbedsPerMessage, len(options))),
				Options:     options,
				Disabled:    disabled,
			},
		}},
	}
	if len(compatible) > embeds.SelectPageSize {
		rows = append(rows, pagerRow(s))
	}
	rows = append(rows, navigationRow(s))

	used := embeds.MaxEmbedChars - remaining
	content := fmt.Sprintf("Select up to %d embeds to send when `%s` is clicked.\n📊 **Character usage:** %s/%s (%s remaining) • %d selected",
		embeds.MaxEmbedsPerMessage, s.CustomID,
		humanize.Comma(int64(used)), humanize.Comma(embeds.MaxEmbedChars), humanize.Comma(int64(remaining)), len(s.Embeds))
	if pages := s.PageCount(); pages > 1 {
		content += fmt.Sprintf(" • page %d/%d", s.Page+1, pages)
	}
	return View{Content: content, Components: rows}
}

func renderSingle(s State) View {
	var options []discordgo.SelectMenuOption
	for _, name := range s.Visible() {
		options = append(options, discordgo.SelectMenuOption{
			Label:   embeds.Truncate(name, embeds.MaxChoiceLength),
			Value:   name,
			Default: name == s.Single,
		})
	}
	disabled := false
	if len(options) == 0 {
		disabled = true
		options = []discordgo.SelectMenuOption{{Label: "No embeds available", Value: placeholderValue}}
	}

	zero := 0
	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    ComponentID(s.ID, ComponentSingle),
				Placeholder: "Select one embed to replace the message with",
				MinValues:   &zero,
				MaxValues:   1,
				Options:     options,
				Disabled:    disabled,
			},
		}},
	}
	if len(s.Counts) > embeds.SelectPageSize {
		rows = append(rows, pagerRow(s))
	}
	rows = append(rows, navigationRow(s))

	content := fmt.Sprintf("Select the embed that replaces the message when `%s` is clicked.", s.CustomID)
	if s.Single != "" {
		content += fmt.Sprintf("\nCurrently selected: `%s`", s.Single)
	}
	if pages := s.PageCount(); pages > 1 {
		content += fmt.Sprintf(" • page %d/%d", s.Page+1, pages)
	}
	return View{Content: content, Components: rows}
}

func pagerRow(s State) discordgo.MessageComponent {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Style:    discordgo.SecondaryButton,
			CustomID: ComponentID(s.ID, ComponentPrevPage),
			Disabled: s.Page == 0,
			Emoji:    &discordgo.ComponentEmoji{Name: "◀️"},
		},
		discordgo.Button{
			Style:    discordgo.SecondaryButton,
			CustomID: ComponentID(s.ID, ComponentNextPage),
			Disabled: s.Page >= s.PageCount()-1,
			Emoji:    &discordgo.ComponentEmoji{Name: "▶️"},
		},
	}}
}

func navigationRow(s State) discordgo.MessageComponent {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Back",
			Style:    discordgo.SecondaryButton,
			CustomID: ComponentID(s.ID, ComponentBack),
			Emoji:    &discordgo.ComponentEmoji{Name: "↩️"},
		},
		discordgo.Button{
			Label:    "Submit",
			Style:    discordgo.SuccessButton,
			CustomID: ComponentID(s.ID, ComponentSubmit),
			Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
		},
	}}
}
