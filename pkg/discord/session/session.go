package session

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/errutil"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// Error messages
const (
	ErrSessionCreationFailed   = "failed to create Discord session: %w"
	ErrSessionConnectionFailed = "failed to connect to Discord: %w"
)

// Intents needed by the embed builder: guild data for roles and channels and
// member updates for role actions. Message content is never read.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

var (
	newSession   = discordgo.New
	openSession  = func(s *discordgo.Session) error { return s.Open() }
	closeSession = func(s *discordgo.Session) error { return s.Close() }
)

// NewDiscordSession creates a bot session and connects it to the gateway.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	if token == "" {
		log.ErrorLoggerRaw().Error("Discord bot token is empty. Please set the token before starting the bot.")
		return nil, errors.New("discord bot token is empty")
	}

	var s *discordgo.Session
	if err := errutil.HandleDiscordError("create_session", func() error {
		var sessionErr error
		s, sessionErr = newSession("Bot " + token)
		return sessionErr
	}); err != nil {
		return nil, fmt.Errorf(ErrSessionCreationFailed, err)
	}
	log.DiscordLogger().Info("Discord session created")

	s.Identify.Intents = Intents
	s.StateEnabled = true

	log.DiscordLogger().Info("Connecting to Discord...")
	if err := errutil.HandleDiscordError("connect", func() error {
		return openSession(s)
	}); err != nil {
		_ = closeSession(s)
		return nil, fmt.Errorf(ErrSessionConnectionFailed, err)
	}

	log.DiscordLogger().Info("Connected to Discord", "user_id", botUserID(s))
	return s, nil
}

func botUserID(s *discordgo.Session) string {
	if s.State != nil && s.State.User != nil {
		return s.State.User.ID
	}
	return ""
}
