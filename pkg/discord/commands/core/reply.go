package core

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Reply answers one interaction and remembers whether the initial response
// was already used. Once used, further output must go through followups.
type Reply struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction

	mu   sync.Mutex
	used bool
}

// NewReply creates a Reply for interaction.
func NewReply(session *discordgo.Session, interaction *discordgo.Interaction) *Reply {
	return &Reply{session: session, interaction: interaction}
}

// Used reports whether the initial response was sent.
func (r *Reply) Used() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

func (r *Reply) respond(resp *discordgo.InteractionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.session.InteractionRespond(r.interaction, resp); err != nil {
		return err
	}
	r.used = true
	return nil
}

// Respond sends a new message as the initial response.
func (r *Reply) Respond(data *discordgo.InteractionResponseData) error {
	return r.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// Defer acknowledges the interaction with a loading state.
func (r *Reply) Defer(ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
}

// DeferUpdate acknowledges a component interaction without visible output.
func (r *Reply) DeferUpdate() error {
	return r.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// Update replaces the message the component belongs to.
func (r *Reply) Update(data *discordgo.InteractionResponseData) error {
	return r.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
}

// Autocomplete answers an autocomplete request. At most 25 choices are sent.
func (r *Reply) Autocomplete(choices []*discordgo.ApplicationCommandOptionChoice) error {
	if len(choices) > 25 {
		choices = choices[:25]
	}
	return r.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

// Followup sends an additional message after the initial response.
func (r *Reply) Followup(params *discordgo.WebhookParams) (*discordgo.Message, error) {
	return r.session.FollowupMessageCreate(r.interaction, true, params)
}

// EditOriginal edits the initial response.
func (r *Reply) EditOriginal(edit *discordgo.WebhookEdit) error {
	_, err := r.session.InteractionResponseEdit(r.interaction, edit)
	return err
}

// Send delivers a message whatever the response state is: the initial
// response while it is unused, a followup otherwise. A failed initial
// response is retried as a followup.
func (r *Reply) Send(data *discordgo.InteractionResponseData) error {
	if !r.Used() {
		if err := r.Respond(data); err == nil {
			return nil
		}
	}
	_, err := r.Followup(&discordgo.WebhookParams{
		Content:    data.Content,
		Embeds:     data.Embeds,
		Components: data.Components,
		Flags:      data.Flags,
	})
	return err
}

// SendText is Send for a plain message.
func (r *Reply) SendText(content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.Send(data)
}
