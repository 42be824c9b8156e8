// Package discordtest runs a fake Discord REST API for handler tests.
package discordtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// Request is one recorded REST call.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Reason string
}

// Decode unmarshals the request body into v.
func (r Request) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

type route struct {
	method string
	path   string
	status int
	body   string
}

// Server records every request and answers from registered routes. Unknown
// routes get 200 with an empty object.
type Server struct {
	mu       sync.Mutex
	requests []Request
	routes   []route
}

// NewSession starts a server, points discordgo's endpoints at it for the
// duration of the test and returns a bot session using it.
func NewSession(t testing.TB) (*discordgo.Session, *Server) {
	t.Helper()
	srv := &Server{}

	ts := httptest.NewServer(http.HandlerFunc(srv.serve))
	t.Cleanup(ts.Close)

	oldAPI := discordgo.EndpointAPI
	oldGuilds := discordgo.EndpointGuilds
	oldChannels := discordgo.EndpointChannels
	oldWebhooks := discordgo.EndpointWebhooks
	oldApplications := discordgo.EndpointApplications
	discordgo.EndpointAPI = ts.URL + "/"
	discordgo.EndpointGuilds = ts.URL + "/guilds/"
	discordgo.EndpointChannels = ts.URL + "/channels/"
	discordgo.EndpointWebhooks = ts.URL + "/webhooks/"
	discordgo.EndpointApplications = ts.URL + "/applications"
	t.Cleanup(func() {
		discordgo.EndpointAPI = oldAPI
		discordgo.EndpointGuilds = oldGuilds
		discordgo.EndpointChannels = oldChannels
		discordgo.EndpointWebhooks = oldWebhooks
		discordgo.EndpointApplications = oldApplications
	})

	session, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	session.MaxRestRetries = 0
	session.ShouldRetryOnRateLimit = false
	session.State.User = &discordgo.User{ID: "bot", Username: "embedbuilder"}
	return session, srv
}

// Handle answers requests whose method matches and whose path contains
// pathPart. Later registrations take precedence.
func (s *Server) Handle(method, pathPart string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route{method: method, path: pathPart, status: status, body: body})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   body,
		Reason: r.Header.Get("X-Audit-Log-Reason"),
	})
	status, resp := http.StatusOK, "{}"
	for i := len(s.routes) - 1; i >= 0; i-- {
		rt := s.routes[i]
		if rt.method == r.Method && strings.Contains(r.URL.Path, rt.path) {
			status, resp = rt.status, rt.body
			break
		}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp))
}

// Requests returns the recorded requests matching method and pathPart. An
// empty method matches any.
func (s *Server) Requests(method, pathPart string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if (method == "" || r.Method == method) && strings.Contains(r.Path, pathPart) {
			out = append(out, r)
		}
	}
	return out
}

// Message is the decoded payload of a response, followup or message send.
// Components stay generic because discordgo cannot unmarshal its component
// interface outside of Message.
type Message struct {
	Content    string                    `json:"content"`
	Flags      discordgo.MessageFlags    `json:"flags"`
	Embeds     []*discordgo.MessageEmbed `json:"embeds"`
	Components []map[string]any          `json:"components"`
	Username   string                    `json:"username"`
	AvatarURL  string                    `json:"avatar_url"`
}

// Ephemeral reports whether the ephemeral flag is set.
func (m *Message) Ephemeral() bool {
	return m != nil && m.Flags&discordgo.MessageFlagsEphemeral != 0
}

// CustomIDs lists the custom ids of every component, depth first.
func (m *Message) CustomIDs() []string {
	if m == nil {
		return nil
	}
	var out []string
	var walk func([]any)
	walk = func(items []any) {
		for _, item := range items {
			c, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if id, ok := c["custom_id"].(string); ok && id != "" {
				out = append(out, id)
			}
			if children, ok := c["components"].([]any); ok {
				walk(children)
			}
		}
	}
	top := make([]any, len(m.Components))
	for i, c := range m.Components {
		top[i] = c
	}
	walk(top)
	return out
}

// Component returns the first component whose custom id is id.
func (m *Message) Component(id string) map[string]any {
	if m == nil {
		return nil
	}
	var found map[string]any
	var walk func([]any)
	walk = func(items []any) {
		for _, item := range items {
			c, ok := item.(map[string]any)
			if !ok || found != nil {
				continue
			}
			if c["custom_id"] == id {
				found = c
				return
			}
			if children, ok := c["components"].([]any); ok {
				walk(children)
			}
		}
	}
	top := make([]any, len(m.Components))
	for i, c := range m.Components {
		top[i] = c
	}
	walk(top)
	return found
}

// Response is a decoded interaction callback.
type Response struct {
	Type discordgo.InteractionResponseType `json:"type"`
	Data *Message                          `json:"data"`
}

// InteractionResponses decodes every interaction callback.
func (s *Server) InteractionResponses(t testing.TB) []Response {
	t.Helper()
	var out []Response
	for _, r := range s.Requests(http.MethodPost, "/callback") {
		var resp Response
		if err := r.Decode(&resp); err != nil {
			t.Fatalf("decode interaction response: %v", err)
		}
		out = append(out, resp)
	}
	return out
}

// Followups decodes every followup message sent for interactions.
func (s *Server) Followups(t testing.TB) []Message {
	t.Helper()
	return s.Messages(t, http.MethodPost, "/webhooks/app/")
}

// Messages decodes the bodies of matching requests as messages.
func (s *Server) Messages(t testing.TB, method, pathPart string) []Message {
	t.Helper()
	var out []Message
	for _, r := range s.Requests(method, pathPart) {
		var m Message
		if err := r.Decode(&m); err != nil {
			t.Fatalf("decode message %s %s: %v", r.Method, r.Path, err)
		}
		out = append(out, m)
	}
	return out
}

// ComponentInteraction builds a button or select interaction from member in
// guildID.
func ComponentInteraction(guildID string, member *discordgo.Member, data discordgo.MessageComponentInteractionData) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:        "interaction",
			AppID:     "app",
			Token:     "token",
			Type:      discordgo.InteractionMessageComponent,
			GuildID:   guildID,
			ChannelID: "channel",
			Member:    member,
			Message:   &discordgo.Message{ID: "message", ChannelID: "channel"},
			Data:      data,
		},
	}
}

// CommandInteraction builds a slash command interaction.
func CommandInteraction(guildID string, member *discordgo.Member, data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:        "interaction",
			AppID:     "app",
			Token:     "token",
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   guildID,
			ChannelID: "channel",
			Member:    member,
			Data:      data,
		},
	}
}
