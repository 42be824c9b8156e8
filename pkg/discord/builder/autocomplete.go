package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands/core"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

// maxChoices is the platform cap on autocomplete results.
const maxChoices = 25

// HandleAutocomplete suggests embed names and, for /embed actions, the
// buttons of the chosen embed.
func (ec *EmbedCommands) HandleAutocomplete(ctx *core.Context, focusedOption string) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	if ctx.GuildID == "" {
		return nil, nil
	}
	opts := core.GetSubCommandOptions(ctx.Interaction)
	ext := core.NewOptionExtractor(opts)

	switch focusedOption {
	case "name":
		all, err := ec.store.ListEmbeds(ctx.Ctx, ctx.GuildID)
		if err != nil {
			return nil, err
		}
		return limit(core.FilterChoices(embeds.SortedNames(all), ext.String("name"))), nil
	case "button":
		name := ext.String("name")
		if name == "" {
			return nil, nil
		}
		def, err := ec.store.GetEmbed(ctx.Ctx, ctx.GuildID, name)
		if err != nil {
			return nil, nil
		}
		return limit(buttonChoices(def.Buttons, ext.String("button"))), nil
	}
	return nil, nil
}

// buttonChoices lists configurable buttons. Buttons without a custom id are
// offered by position so the wizard can explain why they cannot be used.
func buttonChoices(buttons []embeds.Button, input string) []*discordgo.ApplicationCommandOptionChoice {
	input = strings.ToLower(strings.TrimSpace(input))
	var out []*discordgo.ApplicationCommandOptionChoice
	for i, b := range buttons {
		value := b.CustomID
		label := fmt.Sprintf("%d. %s (%s)", i+1, b.Label, b.CustomID)
		if value == "" {
			value = strconv.Itoa(i + 1)
			label = fmt.Sprintf("%d. %s (link)", i+1, b.Label)
		}
		if input != "" && !strings.Contains(strings.ToLower(label), input) {
			continue
		}
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: embeds.Truncate(label, embeds.MaxChoiceLength), Value: value})
	}
	return out
}

func limit(choices []*discordgo.ApplicationCommandOptionChoice) []*discordgo.ApplicationCommandOptionChoice {
	if len(choices) > maxChoices {
		return choices[:maxChoices]
	}
	return choices
}
