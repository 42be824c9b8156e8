// Package actions runs the action chain of a stored button when a member
// presses it.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands/core"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/roles"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
)

// Messages shown to the member pressing a button.
const (
	MsgInvalidButton = "This button is no longer valid."
	MsgGuildOnly     = "This button must be used inside a server."
)

// result is what one action produced. Summary lines are shown to the member
// at the end; notes are only logged.
type result struct {
	summary string
	note    string
}

// Engine dispatches button presses to their stored actions.
type Engine struct {
	store storage.EmbedStore
	roles *roles.Resolver
}

// NewEngine creates an engine reading buttons from store.
func NewEngine(store storage.EmbedStore, resolver *roles.Resolver) *Engine {
	return &Engine{store: store, roles: resolver}
}

// run carries the per-press state shared by the actions.
type run struct {
	ctx            *core.Context
	embedName      string
	hasEmbedAction bool
	logger         *slog.Logger
}

// HandleComponent implements core.ComponentHandler. Every failure is turned
// into text for the member, so it always returns nil.
func (e *Engine) HandleComponent(ctx *core.Context, customID string) error {
	if ctx.GuildID == "" {
		_ = ctx.Reply.Ephemeral(MsgGuildOnly)
		return nil
	}

	button, embedName, err := e.store.FindButton(ctx.Ctx, ctx.GuildID, customID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			ctx.Logger.Warn("Button lookup failed", "error", err)
		} else {
			ctx.Logger.Debug("Unknown button pressed")
		}
		_ = ctx.Reply.Ephemeral(MsgInvalidButton)
		return nil
	}

	if len(button.Actions) == 0 {
		if err := ctx.Reply.DeferUpdate(); err != nil {
			ctx.Logger.Debug("Deferring button without actions failed", "error", err)
		}
		return nil
	}

	r := &run{
		ctx:            ctx,
		embedName:      embedName,
		hasEmbedAction: embeds.HasEmbedAction(button.Actions),
		logger:         ctx.Logger.With("embed", embedName),
	}

	var summaries, failures []string
	for _, action := range button.Actions {
		res, err := e.execute(r, action)
		if err != nil {
			r.logger.Error("Button action failed", "action", action.Kind(), "error", err)
			failures = append(failures, fmt.Sprintf("Failed to execute %s: %v", action.Kind(), err))
			continue
		}
		if res.note != "" {
			r.logger.Debug("Button action completed", "action", action.Kind(), "result", res.note)
		}
		if res.summary != "" {
			summaries = append(summaries, res.summary)
		}
	}

	e.sendSummary(r, summaries, failures)
	return nil
}

// execute runs one action inside its own recovery boundary.
func (e *Engine) execute(r *run, action embeds.Action) (res result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	switch a := action.(type) {
	case embeds.AddRoles:
		return e.applyRoles(r, a.RoleIDs, true)
	case embeds.RemoveRoles:
		return e.applyRoles(r, a.RoleIDs, false)
	case embeds.SendEmbed:
		return e.sendEmbeds(r, a), nil
	case embeds.EditEmbed:
		return e.editEmbed(r, a), nil
	default:
		return result{summary: fmt.Sprintf("Unknown action type: %s", action.Kind())}, nil
	}
}

func (e *Engine) sendSummary(r *run, summaries, failures []string) {
	if len(summaries) == 0 && len(failures) == 0 {
		return
	}
	lines := append([]string(nil), summaries...)
	for _, f := range failures {
		lines = append(lines, "**Error:** "+f)
	}
	if err := r.ctx.Reply.SendText(strings.Join(lines, "\n"), true); err != nil {
		r.logger.Error("Failed to send action summary", "error", err)
	}
}

func requestContext(ctx context.Context) discordgo.RequestOption {
	if ctx == nil {
		ctx = context.Background()
	}
	return discordgo.WithContext(ctx)
}
