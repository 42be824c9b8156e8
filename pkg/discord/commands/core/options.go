package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// OptionExtractor reads typed option values by name. Lookups of a missing
// option or of an option with another type return the zero value.
type OptionExtractor struct {
	options []*discordgo.ApplicationCommandInteractionDataOption
}

// NewOptionExtractor creates a new option extractor
func NewOptionExtractor(options []*discordgo.ApplicationCommandInteractionDataOption) *OptionExtractor {
	return &OptionExtractor{options: options}
}

func (e *OptionExtractor) find(name string, t discordgo.ApplicationCommandOptionType) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == t {
			return opt
		}
	}
	return nil
}

// String extracts a trimmed string option.
func (e *OptionExtractor) String(name string) string {
	if opt := e.find(name, discordgo.ApplicationCommandOptionString); opt != nil {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

// StringRequired extracts a required string option
func (e *OptionExtractor) StringRequired(name string) (string, error) {
	value := e.String(name)
	if value == "" {
		return "", NewValidationError(name, fmt.Sprintf("Option '%s' is required", name))
	}
	return value, nil
}

// Bool extracts a boolean option by name
func (e *OptionExtractor) Bool(name string) bool {
	if opt := e.find(name, discordgo.ApplicationCommandOptionBoolean); opt != nil {
		return opt.BoolValue()
	}
	return false
}

// Int extracts an integer option by name
func (e *OptionExtractor) Int(name string) int64 {
	if opt := e.find(name, discordgo.ApplicationCommandOptionInteger); opt != nil {
		return opt.IntValue()
	}
	return 0
}

// ChannelID extracts the id of a channel option.
func (e *OptionExtractor) ChannelID(name string) string {
	if opt := e.find(name, discordgo.ApplicationCommandOptionChannel); opt != nil {
		if id, ok := opt.Value.(string); ok {
			return id
		}
	}
	return ""
}

// HasOption checks whether an option exists
func (e *OptionExtractor) HasOption(name string) bool {
	for _, opt := range e.options {
		if opt.Name == name {
			return true
		}
	}
	return false
}

// FilterChoices returns choices for items containing input, case
// insensitively, sorted by name.
func FilterChoices(items []string, input string) []*discordgo.ApplicationCommandOptionChoice {
	input = strings.ToLower(strings.TrimSpace(input))
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(sorted))
	for _, item := range sorted {
		if input != "" && !strings.Contains(strings.ToLower(item), input) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: item, Value: item})
	}
	return choices
}
