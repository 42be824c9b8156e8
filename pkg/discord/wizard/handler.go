package wizard

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands/core"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/roles"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
)

// Messages shown for sessions that cannot be driven.
const (
	MsgExpired  = "⌛ This wizard has expired. Run `/embed actions` again."
	MsgNotOwner = "❌ Only the member who opened this wizard can use it."
)

// Handler connects wizard sessions to interactions and the store.
type Handler struct {
	store    storage.EmbedStore
	roles    *roles.Resolver
	sessions *Registry
}

// NewHandler creates a wizard handler.
func NewHandler(store storage.EmbedStore, resolver *roles.Resolver, sessions *Registry) *Handler {
	return &Handler{store: store, roles: resolver, sessions: sessions}
}

// Sessions returns the registry backing the handler.
func (h *Handler) Sessions() *Registry {
	return h.sessions
}

// Start opens a wizard for a button of embedName and shows its first screen.
// ref is the button's custom id or its 1-based position.
func (h *Handler) Start(ctx *core.Context, embedName, ref string) error {
	def, err := h.store.GetEmbed(ctx.Ctx, ctx.GuildID, embedName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.NewCommandError(fmt.Sprintf("❌ Embed `%s` not found.", embedName), true)
		}
		return err
	}
	i := def.FindButton(ref)
	if i < 0 {
		if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(def.Buttons) {
			i = n - 1
		}
	}
	if i < 0 {
		return core.NewCommandError(fmt.Sprintf("❌ Button `%s` not found on embed `%s`.", ref, embedName), true)
	}

	session, err := h.sessions.Open(ctx.GuildID, ctx.UserID, embedName, def.Buttons[i])
	if err != nil {
		if errors.Is(err, ErrNotConfigurable) {
			return core.NewCommandError("❌ This button has no custom_id and cannot have actions.", true)
		}
		return err
	}

	view := Render(session.State())
	return ctx.Reply.Respond(&discordgo.InteractionResponseData{
		Content:    view.Content,
		Components: view.Components,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

// HandleComponent implements core.ComponentHandler for wizard custom ids.
func (h *Handler) HandleComponent(ctx *core.Context, customID string) error {
	id, component, ok := ParseComponentID(customID)
	if !ok {
		return ctx.Reply.Ephemeral(MsgExpired)
	}
	session, err := h.sessions.Lookup(id, ctx.UserID)
	switch {
	case errors.Is(err, ErrNotOwner):
		return ctx.Reply.Ephemeral(MsgNotOwner)
	case err != nil:
		return ctx.Reply.Ephemeral(MsgExpired)
	}
	if session.GuildID != ctx.GuildID {
		return ctx.Reply.Ephemeral(MsgExpired)
	}

	logger := ctx.Logger.With("session", id, "component", component)
	current := session.State()

	ev, err := h.event(ctx, current, component)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.sessions.Close(id)
			return ctx.Reply.Ephemeral(fmt.Sprintf("❌ Button `%s` no longer exists on embed `%s`.", current.CustomID, current.EmbedName))
		}
		logger.Warn("Failed to prepare wizard event", "error", err)
		return ctx.Reply.Error(fmt.Sprintf("**Error loading configuration:** %v", err))
	}

	next, err := session.Update(func(s State) (State, error) {
		next, err := Transition(s, ev)
		if err != nil {
			return s, err
		}
		if next.Step == StepCommitted {
			if err := h.commit(ctx, next); err != nil {
				return s, err
			}
		}
		return next, nil
	})
	if err != nil {
		return h.reportTransitionError(ctx, logger, err)
	}

	if next.Step == StepCommitted {
		h.sessions.Close(id)
	}
	view := Render(next)
	return ctx.Reply.Update(&discordgo.InteractionResponseData{
		Content:    view.Content,
		Components: view.Components,
	})
}

// event turns a component press into a wizard event, loading whatever the
// transition needs from the store.
func (h *Handler) event(ctx *core.Context, s State, component string) (Event, error) {
	values := componentValues(ctx.Interaction)

	switch component {
	case ComponentKind:
		if len(values) == 0 {
			return nil, fmt.Errorf("no action type selected")
		}
		return ChooseKind{Kind: embeds.ActionKind(values[0])}, nil
	case ComponentNext:
		if s.Kind == "" {
			return Next{}, nil
		}
		actions, err := h.store.ListActions(ctx.Ctx, ctx.GuildID, s.EmbedName, s.CustomID)
		if err != nil {
			return nil, err
		}
		var counts map[string]int
		if s.Kind.IsEmbed() {
			all, err := h.store.ListEmbeds(ctx.Ctx, ctx.GuildID)
			if err != nil {
				return nil, err
			}
			counts = embeds.CharCounts(all)
		}
		return Next{Actions: actions, Counts: counts}, nil
	case ComponentBack:
		return Back{}, nil
	case ComponentRoles:
		return SelectRoles{RoleIDs: values}, nil
	case ComponentEmbeds:
		return SelectEmbeds{Names: values}, nil
	case ComponentSingle:
		if len(values) == 0 {
			return SelectSingle{}, nil
		}
		return SelectSingle{Name: values[0]}, nil
	case ComponentPrevPage:
		return PrevPage{}, nil
	case ComponentNextPage:
		return NextPage{}, nil
	case ComponentSubmit:
		if s.Step != StepRoleSelection {
			return Submit{}, nil
		}
		ids, err := h.roles.IDs(ctx.Ctx, ctx.GuildID)
		if err != nil {
			return nil, err
		}
		opposing, err := h.store.GetOpposingActionRoles(ctx.Ctx, ctx.GuildID, s.EmbedName, s.CustomID, s.Kind)
		if err != nil {
			return nil, err
		}
		return Submit{GuildRoles: ids, Opposing: opposing}, nil
	default:
		return nil, fmt.Errorf("unknown wizard component %q", component)
	}
}

// commit writes the outcome of s through the store.
func (h *Handler) commit(ctx *core.Context, s State) error {
	if s.Outcome == nil {
		return fmt.Errorf("committed without outcome")
	}
	actions, err := h.store.ListActions(ctx.Ctx, ctx.GuildID, s.EmbedName, s.CustomID)
	if err != nil {
		return err
	}
	updated := ApplyOutcome(actions, *s.Outcome)
	if err := h.store.ReplaceActions(ctx.Ctx, ctx.GuildID, s.EmbedName, s.CustomID, updated); err != nil {
		return err
	}

	log.AuditEvent("button_actions_update", ctx.GuildID, ctx.UserID, logrus.Fields{
		"embed":     s.EmbedName,
		"button":    s.CustomID,
		"kind":      string(s.Outcome.Kind),
		"removed":   s.Outcome.Action == nil,
		"applied":   s.Outcome.Applied,
		"conflicts": len(s.Outcome.Conflicts),
		"invalid":   s.Outcome.Invalid,
	})
	return nil
}

func (h *Handler) reportTransitionError(ctx *core.Context, logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, ErrNoKind):
		return ctx.Reply.Ephemeral("❌ Please select an action type.")
	case errors.Is(err, ErrFinished):
		return ctx.Reply.Ephemeral(MsgExpired)
	case errors.Is(err, ErrUnexpectedEvent):
		logger.Debug("Ignoring stale wizard component", "error", err)
		return ctx.Reply.DeferUpdate()
	case errors.Is(err, storage.ErrNotFound):
		return ctx.Reply.Ephemeral("❌ The button was removed while the wizard was open.")
	default:
		logger.Warn("Failed to save wizard outcome", "error", err)
		return ctx.Reply.Ephemeral(fmt.Sprintf("❌ **Error saving configuration:** %v", err))
	}
}

func componentValues(i *discordgo.InteractionCreate) []string {
	if i == nil || i.Type != discordgo.InteractionMessageComponent {
		return nil
	}
	return i.MessageComponentData().Values
}
