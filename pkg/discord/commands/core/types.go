package core

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Command is a top level slash command.
type Command interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Handle(ctx *Context) error
	RequiresGuild() bool
	RequiresPermissions() bool
}

// SubCommand is one subcommand of a GroupCommand.
type SubCommand interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Handle(ctx *Context) error
	RequiresGuild() bool
	RequiresPermissions() bool
}

// ComponentHandler handles button and select interactions routed to it.
type ComponentHandler interface {
	HandleComponent(ctx *Context, customID string) error
}

// ComponentHandlerFunc adapts a function to ComponentHandler.
type ComponentHandlerFunc func(ctx *Context, customID string) error

func (f ComponentHandlerFunc) HandleComponent(ctx *Context, customID string) error {
	return f(ctx, customID)
}

// AutocompleteHandler returns choices for the focused option of a command.
type AutocompleteHandler interface {
	HandleAutocomplete(ctx *Context, focusedOption string) ([]*discordgo.ApplicationCommandOptionChoice, error)
}

// Context carries everything a handler needs for one interaction.
type Context struct {
	Ctx         context.Context
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Reply       *Reply
	Logger      *slog.Logger
	GuildID     string
	UserID      string
}

// Member returns the invoking member, or nil outside guilds.
func (c *Context) Member() *discordgo.Member {
	return c.Interaction.Member
}

// CommandError is a failure whose message is shown to the user.
type CommandError struct {
	Message   string
	Ephemeral bool
}

func (e *CommandError) Error() string {
	return e.Message
}

// NewCommandError creates a user-facing command error.
func NewCommandError(message string, ephemeral bool) *CommandError {
	return &CommandError{
		Message:   message,
		Ephemeral: ephemeral,
	}
}

// ValidationError reports a bad option value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new option validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
