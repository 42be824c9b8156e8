// Package sender posts stored embeds to channels as the bot or through a
// temporary webhook.
package sender

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// Method selects the identity messages are sent with.
type Method string

const (
	MethodBot     Method = "bot"
	MethodWebhook Method = "webhook"
)

// ParseMethod parses a method name; empty means bot.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodBot:
		return MethodBot, nil
	case MethodWebhook:
		return MethodWebhook, nil
	default:
		return "", fmt.Errorf("unsupported send method: %s", s)
	}
}

// Request describes one send.
type Request struct {
	GuildID string
	// CurrentChannelID is used when Targets is empty.
	CurrentChannelID string
	Targets          []string

	Method Method
	// WebhookName and AvatarURL apply to webhook sends only.
	WebhookName string
	AvatarURL   string

	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// ChannelResult is the outcome in one channel.
type ChannelResult struct {
	ChannelID string
	MessageID string
	Status    string
	Err       error
}

// Sent reports whether the message was delivered.
func (r ChannelResult) Sent() bool {
	return r.Err == nil && r.MessageID != ""
}

// Sender delivers messages.
type Sender struct {
	session     *discordgo.Session
	webhookName string
}

// New creates a Sender. webhookName is the default name of temporary
// webhooks.
func New(session *discordgo.Session, webhookName string) *Sender {
	if webhookName == "" {
		webhookName = "EmbedSender"
	}
	return &Sender{session: session, webhookName: webhookName}
}

// Send delivers req to every target channel, or to the current channel when
// there are none. Per-channel failures are reported in the results.
func (s *Sender) Send(ctx context.Context, req Request) []ChannelResult {
	if len(req.Targets) == 0 {
		r := s.deliver(ctx, req, req.CurrentChannelID)
		if r.Sent() {
			r.Status = fmt.Sprintf("sent to current channel (%s)", r.MessageID)
		}
		return []ChannelResult{r}
	}

	results := make([]ChannelResult, 0, len(req.Targets))
	for _, channelID := range req.Targets {
		if !s.channelExists(ctx, req.GuildID, channelID) {
			results = append(results, ChannelResult{ChannelID: channelID, Status: "channel not found"})
			continue
		}
		results = append(results, s.deliver(ctx, req, channelID))
	}
	return results
}

func (s *Sender) deliver(ctx context.Context, req Request, channelID string) ChannelResult {
	var (
		msg *discordgo.Message
		err error
	)
	if req.Method == MethodWebhook {
		msg, err = s.sendWebhook(ctx, req, channelID)
	} else {
		msg, err = s.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds:     req.Embeds,
			Components: req.Components,
		}, discordgo.WithContext(ctx))
		err = Classify("send message", err)
	}

	res := ChannelResult{ChannelID: channelID, Err: err}
	switch {
	case err == nil && msg != nil:
		res.MessageID = msg.ID
		res.Status = fmt.Sprintf("sent (%s)", msg.ID)
	case err == nil:
		res.Err = fmt.Errorf("empty response")
		res.Status = "error: empty response"
	default:
		res.Status = statusFor(req.Method, err)
		log.DiscordLogger().Warn("Embed delivery failed", "guild_id", req.GuildID, "channel_id", channelID, "method", req.Method, "error", err)
	}
	return res
}

// sendWebhook creates a webhook in channelID, posts through it and always
// deletes it afterwards.
func (s *Sender) sendWebhook(ctx context.Context, req Request, channelID string) (*discordgo.Message, error) {
	name := req.WebhookName
	if name == "" {
		name = s.webhookName
	}

	wh, err := s.session.WebhookCreate(channelID, name, "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, Classify("create webhook", err)
	}
	defer func() {
		if err := s.session.WebhookDelete(wh.ID); err != nil {
			log.DiscordLogger().Warn("Failed to delete temporary webhook", "webhook_id", wh.ID, "channel_id", channelID, "error", err)
		}
	}()

	msg, err := s.session.WebhookExecute(wh.ID, wh.Token, true, &discordgo.WebhookParams{
		Username:   name,
		AvatarURL:  req.AvatarURL,
		Embeds:     req.Embeds,
		Components: req.Components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, Classify("execute webhook", err)
	}
	return msg, nil
}

func (s *Sender) channelExists(ctx context.Context, guildID, channelID string) bool {
	if s.session.State != nil {
		if ch, err := s.session.State.Channel(channelID); err == nil && ch != nil {
			return guildID == "" || ch.GuildID == guildID
		}
	}
	ch, err := s.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil || ch == nil {
		return false
	}
	return guildID == "" || ch.GuildID == "" || ch.GuildID == guildID
}

func statusFor(method Method, err error) string {
	switch ClassOf(err) {
	case ClassForbidden:
		if method == MethodWebhook {
			return "forbidden (no webhook perms)"
		}
		return "forbidden"
	case ClassNotFound:
		return "channel not found"
	default:
		return "error: " + err.Error()
	}
}

// Summarize renders the report shown to the author after a send.
func Summarize(embedName string, method Method, results []ChannelResult) string {
	via := ""
	if method == MethodWebhook {
		via = " via webhook"
	}

	var sent int
	var failed []string
	for _, r := range results {
		if r.Sent() {
			sent++
			continue
		}
		failed = append(failed, fmt.Sprintf("<#%s> (%s)", r.ChannelID, r.Status))
	}

	if sent == 0 {
		return fmt.Sprintf("❌ Failed to send embed `%s`%s anywhere.\n%s", embedName, via, strings.Join(failed, "\n"))
	}
	msg := fmt.Sprintf("✅ Embed `%s` sent%s to %d channel(s).", embedName, via, sent)
	if len(failed) > 0 {
		msg += fmt.Sprintf("\n❌ Failed in %d channel(s):\n%s", len(failed), strings.Join(failed, "\n"))
	}
	return msg
}
