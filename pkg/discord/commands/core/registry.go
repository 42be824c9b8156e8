package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// interactionTimeout matches the lifetime of an interaction token.
const interactionTimeout = 15 * time.Minute

// CommandRegistry holds the commands known to the router.
type CommandRegistry struct {
	commands map[string]Command
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]Command)}
}

// Register adds cmd, replacing a command with the same name.
func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

func (r *CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

func (r *CommandRegistry) GetAllCommands() map[string]Command {
	return r.commands
}

type componentRoute struct {
	prefix  string
	handler ComponentHandler
}

// CommandRouter routes slash commands, autocomplete requests and component
// interactions to their handlers.
type CommandRouter struct {
	baseCtx          context.Context
	session          *discordgo.Session
	registry         *CommandRegistry
	permChecker      *PermissionChecker
	autocompleteMap  map[string]AutocompleteHandler
	components       []componentRoute
	defaultComponent ComponentHandler
}

// NewCommandRouter creates a router. Every interaction context derives from
// ctx.
func NewCommandRouter(ctx context.Context, session *discordgo.Session) *CommandRouter {
	return &CommandRouter{
		baseCtx:         ctx,
		session:         session,
		registry:        NewCommandRegistry(),
		permChecker:     NewPermissionChecker(session),
		autocompleteMap: make(map[string]AutocompleteHandler),
	}
}

func (cr *CommandRouter) RegisterCommand(cmd Command) {
	cr.registry.Register(cmd)
}

func (cr *CommandRouter) RegisterAutocomplete(commandName string, handler AutocompleteHandler) {
	cr.autocompleteMap[commandName] = handler
}

// RegisterComponent routes component custom ids starting with prefix to
// handler. The longest matching prefix wins.
func (cr *CommandRouter) RegisterComponent(prefix string, handler ComponentHandler) {
	cr.components = append(cr.components, componentRoute{prefix: prefix, handler: handler})
	sort.SliceStable(cr.components, func(i, j int) bool {
		return len(cr.components[i].prefix) > len(cr.components[j].prefix)
	})
}

// SetDefaultComponentHandler handles component ids no prefix matched.
func (cr *CommandRouter) SetDefaultComponentHandler(handler ComponentHandler) {
	cr.defaultComponent = handler
}

func (cr *CommandRouter) GetRegistry() *CommandRegistry {
	return cr.registry
}

func (cr *CommandRouter) GetPermissionChecker() *PermissionChecker {
	return cr.permChecker
}

// HandleInteraction is the discordgo InteractionCreate handler.
func (cr *CommandRouter) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(cr.baseCtx, interactionTimeout)
	defer cancel()
	c := BuildContext(ctx, s, i)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorLoggerRaw().Error("Interaction handler panicked", "interaction_id", i.ID, "type", i.Type.String(), "panic", r)
		}
	}()

	switch {
	case IsAutocompleteInteraction(i):
		cr.handleAutocomplete(c)
	case IsSlashCommandInteraction(i):
		cr.handleSlashCommand(c)
	case IsComponentInteraction(i):
		cr.handleComponent(c)
	}
}

func (cr *CommandRouter) handleSlashCommand(ctx *Context) {
	i := ctx.Interaction
	commandName := i.ApplicationCommandData().Name
	ctx.Logger = ctx.Logger.With("command", GetCommandPath(i))
	ctx.Logger.Debug("Processing slash command")

	cmd, exists := cr.registry.GetCommand(commandName)
	if !exists {
		ctx.Logger.Error("Command not found")
		_ = ctx.Reply.Error("Command not found")
		return
	}

	if cmd.RequiresGuild() && ctx.GuildID == "" {
		ctx.Logger.Warn("Command used outside of guild")
		_ = ctx.Reply.Error("This command can only be used in a server")
		return
	}

	if cmd.RequiresPermissions() && !cr.permChecker.HasPermission(i) {
		ctx.Logger.Warn("User without permission tried to use command")
		_ = ctx.Reply.Error("You do not have permission to use this command")
		return
	}

	ctx.Logger.Info("Executing command")
	if err := cmd.Handle(ctx); err != nil {
		cr.reportError(ctx, err)
	}
}

func (cr *CommandRouter) handleAutocomplete(ctx *Context) {
	i := ctx.Interaction
	handler, exists := cr.autocompleteMap[i.ApplicationCommandData().Name]
	if !exists {
		_ = ctx.Reply.Autocomplete(nil)
		return
	}

	focusedOpt, hasFocus := HasFocusedOption(i.ApplicationCommandData().Options)
	if !hasFocus {
		_ = ctx.Reply.Autocomplete(nil)
		return
	}

	choices, err := handler.HandleAutocomplete(ctx, focusedOpt.Name)
	if err != nil {
		ctx.Logger.Error("Autocomplete handler failed", "error", err)
		choices = nil
	}
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	_ = ctx.Reply.Autocomplete(choices)
}

func (cr *CommandRouter) handleComponent(ctx *Context) {
	customID := ctx.Interaction.MessageComponentData().CustomID
	ctx.Logger = ctx.Logger.With("custom_id", customID)

	handler := cr.defaultComponent
	for _, route := range cr.components {
		if strings.HasPrefix(customID, route.prefix) {
			handler = route.handler
			break
		}
	}
	if handler == nil {
		ctx.Logger.Debug("No handler for component")
		return
	}

	if err := handler.HandleComponent(ctx, customID); err != nil {
		cr.reportError(ctx, err)
	}
}

// reportError shows err to the user. Command and validation errors carry
// their own message; anything else gets a generic one.
func (cr *CommandRouter) reportError(ctx *Context, err error) {
	var cmdErr *CommandError
	var valErr *ValidationError
	switch {
	case errors.As(err, &cmdErr):
		ctx.Logger.Info("Command rejected", "reason", cmdErr.Message)
		if cmdErr.Ephemeral {
			_ = ctx.Reply.Ephemeral(cmdErr.Message)
		} else {
			_ = ctx.Reply.SendText(cmdErr.Message, false)
		}
	case errors.As(err, &valErr):
		ctx.Logger.Info("Invalid command input", "field", valErr.Field, "reason", valErr.Message)
		_ = ctx.Reply.Error(valErr.Message)
	default:
		ctx.Logger.Error("Command execution failed", "error", err)
		_ = ctx.Reply.Error("An error occurred while executing the command")
	}
}

// CommandManager keeps the commands registered on Discord in sync with the
// router.
type CommandManager struct {
	session *discordgo.Session
	router  *CommandRouter
	guildID string
}

// NewCommandManager creates a manager. An empty guildID registers commands
// globally.
func NewCommandManager(ctx context.Context, session *discordgo.Session, guildID string) *CommandManager {
	return &CommandManager{
		session: session,
		router:  NewCommandRouter(ctx, session),
		guildID: guildID,
	}
}

func (cm *CommandManager) GetRouter() *CommandRouter {
	return cm.router
}

// SetupCommands installs the interaction handler and creates, updates or
// deletes remote commands so they match the registry. It returns a function
// removing the handler.
func (cm *CommandManager) SetupCommands() (func(), error) {
	remove := cm.session.AddHandler(cm.router.HandleInteraction)
	logger := log.ApplicationLogger().With("component", "command_manager", "guild_id", cm.guildID)

	if cm.session.State == nil || cm.session.State.User == nil {
		remove()
		return nil, errors.New("session is not ready: missing application user")
	}
	appID := cm.session.State.User.ID

	registered, err := cm.session.ApplicationCommands(appID, cm.guildID)
	if err != nil {
		remove()
		return nil, fmt.Errorf("failed to fetch registered commands: %w", err)
	}
	regByName := make(map[string]*discordgo.ApplicationCommand, len(registered))
	for _, rc := range registered {
		regByName[rc.Name] = rc
	}

	codeCommands := cm.router.registry.GetAllCommands()
	created, updated, unchanged := 0, 0, 0
	for name, cmd := range codeCommands {
		desired := DesiredCommand(cmd)
		if existing, ok := regByName[name]; ok {
			if CompareCommands(existing, desired) {
				logger.Debug("Command unchanged, skipping", "command", name)
				unchanged++
				continue
			}
			if _, err := cm.session.ApplicationCommandEdit(appID, cm.guildID, existing.ID, desired); err != nil {
				remove()
				return nil, fmt.Errorf("error updating command '%s': %w", name, err)
			}
			logger.Info("Command updated", "command", name)
			updated++
			continue
		}
		if _, err := cm.session.ApplicationCommandCreate(appID, cm.guildID, desired); err != nil {
			remove()
			return nil, fmt.Errorf("error creating command '%s': %w", name, err)
		}
		logger.Info("Command created", "command", name)
		created++
	}

	deleted := 0
	for _, rc := range registered {
		if _, exists := codeCommands[rc.Name]; exists {
			continue
		}
		if err := cm.session.ApplicationCommandDelete(appID, cm.guildID, rc.ID); err != nil {
			logger.Warn("Error removing orphan command", "command", rc.Name, "error", err)
			continue
		}
		logger.Info("Orphan command removed", "command", rc.Name)
		deleted++
	}

	logger.Info("Command synchronization completed",
		"created", created,
		"updated", updated,
		"deleted", deleted,
		"unchanged", unchanged,
		"total", len(codeCommands),
	)
	return remove, nil
}

// DesiredCommand builds the remote definition of cmd. Restricted commands
// are hidden from members without Manage Server.
func DesiredCommand(cmd Command) *discordgo.ApplicationCommand {
	desired := &discordgo.ApplicationCommand{
		Name:        cmd.Name(),
		Description: cmd.Description(),
		Options:     cmd.Options(),
	}
	if cmd.RequiresPermissions() {
		perms := int64(discordgo.PermissionManageGuild)
		desired.DefaultMemberPermissions = &perms
	}
	if cmd.RequiresGuild() {
		desired.Contexts = &[]discordgo.InteractionContextType{discordgo.InteractionContextGuild}
	}
	return desired
}

// CompareCommands reports whether two commands have the same name,
// description and options.
func CompareCommands(a, b *discordgo.ApplicationCommand) bool {
	type shape struct {
		Name        string                                `json:"name"`
		Description string                                `json:"description"`
		Options     []*discordgo.ApplicationCommandOption `json:"options"`
	}
	ba, _ := json.Marshal(shape{a.Name, a.Description, a.Options})
	bb, _ := json.Marshal(shape{b.Name, b.Description, b.Options})
	return string(ba) == string(bb)
}

// GroupCommand is a command made of subcommands.
type GroupCommand struct {
	name        string
	description string
	subcommands map[string]SubCommand
	order       []string
	checker     *PermissionChecker
}

// NewGroupCommand creates a new group command
func NewGroupCommand(name, description string, checker *PermissionChecker) *GroupCommand {
	return &GroupCommand{
		name:        name,
		description: description,
		subcommands: make(map[string]SubCommand),
		checker:     checker,
	}
}

// AddSubCommand adds a subcommand. Options keep registration order.
func (gc *GroupCommand) AddSubCommand(subcmd SubCommand) {
	if _, exists := gc.subcommands[subcmd.Name()]; !exists {
		gc.order = append(gc.order, subcmd.Name())
	}
	gc.subcommands[subcmd.Name()] = subcmd
}

func (gc *GroupCommand) Name() string        { return gc.name }
func (gc *GroupCommand) Description() string { return gc.description }

func (gc *GroupCommand) Options() []*discordgo.ApplicationCommandOption {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(gc.order))
	for _, name := range gc.order {
		subcmd := gc.subcommands[name]
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        subcmd.Name(),
			Description: subcmd.Description(),
			Options:     subcmd.Options(),
		})
	}
	return options
}

func (gc *GroupCommand) RequiresGuild() bool {
	for _, subcmd := range gc.subcommands {
		if subcmd.RequiresGuild() {
			return true
		}
	}
	return false
}

func (gc *GroupCommand) RequiresPermissions() bool {
	for _, subcmd := range gc.subcommands {
		if subcmd.RequiresPermissions() {
			return true
		}
	}
	return false
}

// Handle routes to the selected subcommand.
func (gc *GroupCommand) Handle(ctx *Context) error {
	subCommandName := GetSubCommandName(ctx.Interaction)
	if subCommandName == "" {
		return NewCommandError("No subcommand specified", true)
	}

	subcmd, exists := gc.subcommands[subCommandName]
	if !exists {
		return NewCommandError("Unknown subcommand", true)
	}

	if subcmd.RequiresGuild() && ctx.GuildID == "" {
		return NewCommandError("This subcommand can only be used in a server", true)
	}
	if subcmd.RequiresPermissions() && (gc.checker == nil || !gc.checker.HasPermission(ctx.Interaction)) {
		return NewCommandError("You don't have permission to use this subcommand", true)
	}

	return subcmd.Handle(ctx)
}

// SimpleCommand implements Command and SubCommand with a function.
type SimpleCommand struct {
	name                string
	description         string
	options             []*discordgo.ApplicationCommandOption
	handler             func(ctx *Context) error
	requiresGuild       bool
	requiresPermissions bool
}

// NewSimpleCommand creates a simple command
func NewSimpleCommand(
	name, description string,
	options []*discordgo.ApplicationCommandOption,
	handler func(ctx *Context) error,
	requiresGuild, requiresPermissions bool,
) *SimpleCommand {
	return &SimpleCommand{
		name:                name,
		description:         description,
		options:             options,
		handler:             handler,
		requiresGuild:       requiresGuild,
		requiresPermissions: requiresPermissions,
	}
}

func (sc *SimpleCommand) Name() string        { return sc.name }
func (sc *SimpleCommand) Description() string { return sc.description }
func (sc *SimpleCommand) Options() []*discordgo.ApplicationCommandOption {
	return sc.options
}
func (sc *SimpleCommand) Handle(ctx *Context) error { return sc.handler(ctx) }
func (sc *SimpleCommand) RequiresGuild() bool       { return sc.requiresGuild }
func (sc *SimpleCommand) RequiresPermissions() bool { return sc.requiresPermissions }
