package sender

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/internal/discordtest"
)

func embedRequest() Request {
	return Request{
		GuildID:          "g1",
		CurrentChannelID: "here",
		Embeds:           []*discordgo.MessageEmbed{{Title: "Hello"}},
	}
}

func TestSendToCurrentChannelWithoutTargets(t *testing.T) {
	session, srv := discordtest.NewSession(t)
	srv.Handle(http.MethodPost, "/channels/here/messages", http.StatusOK, `{"id":"m1","channel_id":"here"}`)

	results := New(session, "").Send(context.Background(), embedRequest())
	if len(results) != 1 || !results[0].Sent() {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].Status != "sent to current channel (m1)" {
		t.Fatalf("status = %q", results[0].Status)
	}

	sent := srv.Messages(t, http.MethodPost, "/channels/here/messages")
	if len(sent) != 1 || sent[0].Embeds[0].Title != "Hello" {
		t.Fatalf("unexpected message: %+v", sent)
	}
}

func TestSendFansOutAndClassifiesFailures(t *testing.T) {
	session, srv := discordtest.NewSession(t)
	srv.Handle(http.MethodGet, "/channels/ok", http.StatusOK, `{"id":"ok","guild_id":"g1"}`)
	srv.Handle(http.MethodGet, "/channels/locked", http.StatusOK, `{"id":"locked","guild_id":"g1"}`)
	srv.Handle(http.MethodGet, "/channels/other", http.StatusOK, `{"id":"other","guild_id":"g2"}`)
	srv.Handle(http.MethodGet, "/channels/gone", http.StatusNotFound, `{"message":"Unknown Channel","code":10003}`)
	srv.Handle(http.MethodPost, "/channels/ok/messages", http.StatusOK, `{"id":"m1"}`)
	srv.Handle(http.MethodPost, "/channels/locked/messages", http.StatusForbidden, `{"message":"Missing Access","code":50001}`)

	req := embedRequest()
	req.Targets = []string{"ok", "locked", "other", "gone"}
	results := New(session, "").Send(context.Background(), req)

	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.ChannelID + "=" + r.Status
	}
	want := []string{"ok=sent (m1)", "locked=forbidden", "other=channel not found", "gone=channel not found"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("results = %v, want %v", got, want)
	}
}

func TestWebhookSendAlwaysDeletesWebhook(t *testing.T) {
	session, srv := discordtest.NewSession(t)
	_ = session.State.GuildAdd(&discordgo.Guild{ID: "g1", Channels: []*discordgo.Channel{
		{ID: "c1", GuildID: "g1"},
		{ID: "c2", GuildID: "g1"},
	}})
	srv.Handle(http.MethodPost, "/channels/c1/webhooks", http.StatusOK, `{"id":"wh1","token":"tok1"}`)
	srv.Handle(http.MethodPost, "/channels/c2/webhooks", http.StatusOK, `{"id":"wh2","token":"tok2"}`)
	srv.Handle(http.MethodPost, "/webhooks/wh1/tok1", http.StatusOK, `{"id":"m1"}`)
	srv.Handle(http.MethodPost, "/webhooks/wh2/tok2", http.StatusInternalServerError, `{"message":"boom"}`)

	req := embedRequest()
	req.Targets = []string{"c1", "c2"}
	req.Method = MethodWebhook
	req.WebhookName = "Announcer"
	req.AvatarURL = "https://example.com/a.png"
	results := New(session, "EmbedSender").Send(context.Background(), req)

	if !results[0].Sent() || results[1].Sent() {
		t.Fatalf("unexpected results: %+v", results)
	}
	if !strings.HasPrefix(results[1].Status, "error: ") {
		t.Fatalf("status = %q", results[1].Status)
	}

	executed := srv.Messages(t, http.MethodPost, "/webhooks/wh1/tok1")
	if len(executed) != 1 || executed[0].Username != "Announcer" || executed[0].AvatarURL != "https://example.com/a.png" {
		t.Fatalf("unexpected webhook payload: %+v", executed)
	}
	for _, id := range []string{"wh1", "wh2"} {
		if got := len(srv.Requests(http.MethodDelete, "/webhooks/"+id)); got != 1 {
			t.Fatalf("webhook %s deleted %d times", id, got)
		}
	}
}

func TestWebhookCreateForbidden(t *testing.T) {
	session, srv := discordtest.NewSession(t)
	srv.Handle(http.MethodGet, "/channels/c1", http.StatusOK, `{"id":"c1","guild_id":"g1"}`)
	srv.Handle(http.MethodPost, "/channels/c1/webhooks", http.StatusForbidden, `{"message":"Missing Permissions","code":50013}`)

	req := embedRequest()
	req.Targets = []string{"c1"}
	req.Method = MethodWebhook
	results := New(session, "").Send(context.Background(), req)

	if results[0].Status != "forbidden (no webhook perms)" {
		t.Fatalf("status = %q", results[0].Status)
	}
	if got := len(srv.Requests(http.MethodDelete, "/webhooks/")); got != 0 {
		t.Fatalf("nothing to delete, got %d deletes", got)
	}
}

func TestSummarize(t *testing.T) {
	results := []ChannelResult{
		{ChannelID: "a", MessageID: "1", Status: "sent (1)"},
		{ChannelID: "b", Status: "forbidden", Err: errors.New("x")},
	}
	got := Summarize("welcome", MethodBot, results)
	want := "✅ Embed `welcome` sent to 1 channel(s).\n❌ Failed in 1 channel(s):\n<#b> (forbidden)"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	got = Summarize("welcome", MethodWebhook, results[1:])
	want = "❌ Failed to send embed `welcome` via webhook anywhere.\n<#b> (forbidden)"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestClassify(t *testing.T) {
	rest := func(status int) error {
		return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
	}
	tests := []struct {
		err       error
		class     DeliveryClass
		temporary bool
	}{
		{rest(http.StatusUnauthorized), ClassForbidden, false},
		{rest(http.StatusForbidden), ClassForbidden, false},
		{rest(http.StatusNotFound), ClassNotFound, false},
		{rest(http.StatusTooManyRequests), ClassRateLimited, true},
		{rest(http.StatusBadGateway), ClassUnavailable, true},
		{fmt.Errorf("wrapped: %w", rest(http.StatusForbidden)), ClassForbidden, false},
		{errors.New("dial tcp: refused"), ClassUnknown, false},
	}
	for _, tt := range tests {
		err := Classify("send", tt.err)
		var de *DeliveryError
		if !errors.As(err, &de) {
			t.Fatalf("Classify(%v) did not return a DeliveryError", tt.err)
		}
		if de.Class != tt.class || de.Temporary != tt.temporary {
			t.Errorf("Classify(%v) = %s/%v, want %s/%v", tt.err, de.Class, de.Temporary, tt.class, tt.temporary)
		}
		if !errors.Is(err, tt.err) {
			t.Errorf("Classify(%v) lost its cause", tt.err)
		}
	}
	if Classify("send", nil) != nil {
		t.Fatal("nil should stay nil")
	}
	if !IsForbidden(rest(http.StatusForbidden)) || IsForbidden(nil) {
		t.Fatal("IsForbidden mismatch")
	}
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"": MethodBot, "Bot": MethodBot, " webhook ": MethodWebhook} {
		if got, err := ParseMethod(in); err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMethod("carrier pigeon"); err == nil {
		t.Fatal("expected error")
	}
}
