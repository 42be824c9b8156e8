package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/actions"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/builder"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands/core"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/roles"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/sender"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/wizard"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
)

// Options configures the command handler.
type Options struct {
	// GuildID registers commands in one guild instead of globally.
	GuildID string
	// WebhookName is the default name of temporary send webhooks.
	WebhookName string
}

// CommandHandler is the main handler that coordinates all bot commands and
// component interactions.
type CommandHandler struct {
	session        *discordgo.Session
	store          storage.EmbedStore
	sessions       *wizard.Registry
	opts           Options
	commandManager *core.CommandManager
	removeHandler  func()
}

// NewCommandHandler creates a new CommandHandler instance.
func NewCommandHandler(session *discordgo.Session, store storage.EmbedStore, sessions *wizard.Registry, opts Options) *CommandHandler {
	return &CommandHandler{
		session:  session,
		store:    store,
		sessions: sessions,
		opts:     opts,
	}
}

// SetupCommands registers /embed, the wizard and the button dispatcher,
// then synchronizes the commands with Discord.
func (ch *CommandHandler) SetupCommands(ctx context.Context) error {
	log.ApplicationLogger().Info("Setting up bot commands...")

	ch.commandManager = core.NewCommandManager(ctx, ch.session, ch.opts.GuildID)
	ch.registerCommands(ch.commandManager.GetRouter())

	remove, err := ch.commandManager.SetupCommands()
	if err != nil {
		return fmt.Errorf("failed to setup commands: %w", err)
	}
	ch.removeHandler = remove

	log.ApplicationLogger().Info("Bot commands setup completed successfully")
	return nil
}

// registerCommands wires every interaction route on router. Button presses
// that match no other prefix go to the dispatch engine.
func (ch *CommandHandler) registerCommands(router *core.CommandRouter) {
	resolver := roles.NewResolver(ch.session)
	wiz := wizard.NewHandler(ch.store, resolver, ch.sessions)

	builder.NewEmbedCommands(ch.store, wiz, sender.New(ch.session, ch.opts.WebhookName)).RegisterCommands(router)
	router.SetDefaultComponentHandler(actions.NewEngine(ch.store, resolver))

	log.ApplicationLogger().Info("Embed commands and button dispatch registered")
}

// Shutdown removes the interaction handler from the session.
func (ch *CommandHandler) Shutdown() error {
	log.ApplicationLogger().Info("Shutting down command handler...")
	if ch.removeHandler != nil {
		ch.removeHandler()
		ch.removeHandler = nil
	}
	return nil
}

// GetCommandManager returns the command manager (for tests or extensions)
func (ch *CommandHandler) GetCommandManager() *core.CommandManager {
	return ch.commandManager
}
