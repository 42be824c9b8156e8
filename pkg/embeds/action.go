package embeds

import (
	"errors"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
)

// ActionKind is the persisted discriminator of an action.
type ActionKind string

const (
	KindAddRoles    ActionKind = "add_roles"
	KindRemoveRoles ActionKind = "remove_roles"
	KindSendEmbed   ActionKind = "send_embed"
	KindEditEmbed   ActionKind = "edit_embed"
)

// Kinds lists every action kind in menu order.
var Kinds = []ActionKind{KindAddRoles, KindRemoveRoles, KindSendEmbed, KindEditEmbed}

// Valid reports whether k is a known kind.
func (k ActionKind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// IsRole reports whether k grants or revokes roles.
func (k ActionKind) IsRole() bool {
	return k == KindAddRoles || k == KindRemoveRoles
}

// IsEmbed reports whether k produces its own visible embed output.
func (k ActionKind) IsEmbed() bool {
	return k == KindSendEmbed || k == KindEditEmbed
}

// Opposite returns the conflicting role kind, or "" for embed kinds.
func (k ActionKind) Opposite() ActionKind {
	switch k {
	case KindAddRoles:
		return KindRemoveRoles
	case KindRemoveRoles:
		return KindAddRoles
	default:
		return ""
	}
}

// Label is the human name used in menus.
func (k ActionKind) Label() string {
	switch k {
	case KindAddRoles:
		return "Add Role"
	case KindRemoveRoles:
		return "Remove Role"
	case KindSendEmbed:
		return "Send Embed (as new message)"
	case KindEditEmbed:
		return "Edit Embed (replace original message)"
	default:
		return string(k)
	}
}

// Action is one step of a button's behavior. The set of implementations is
// closed: AddRoles, RemoveRoles, SendEmbed and EditEmbed.
type Action interface {
	Kind() ActionKind
	isAction()
}

// AddRoles grants roles to the member who pressed the button.
type AddRoles struct {
	RoleIDs []string
}

// RemoveRoles revokes roles from the member who pressed the button.
type RemoveRoles struct {
	RoleIDs []string
}

// SendEmbed sends stored embeds as a new message.
type SendEmbed struct {
	EmbedNames []string
	Ephemeral  bool
}

// EditEmbed replaces the triggering message with a stored embed.
type EditEmbed struct {
	EmbedName string
}

func (AddRoles) Kind() ActionKind    { return KindAddRoles }
func (RemoveRoles) Kind() ActionKind { return KindRemoveRoles }
func (SendEmbed) Kind() ActionKind   { return KindSendEmbed }
func (EditEmbed) Kind() ActionKind   { return KindEditEmbed }

func (AddRoles) isAction()    {}
func (RemoveRoles) isAction() {}
func (SendEmbed) isAction()   {}
func (EditEmbed) isAction()   {}

// RoleIDs returns the role ids of a role action, nil otherwise.
func RoleIDs(a Action) []string {
	switch v := a.(type) {
	case AddRoles:
		return v.RoleIDs
	case RemoveRoles:
		return v.RoleIDs
	default:
		return nil
	}
}

// NewRoleAction builds the role action of kind with ids.
func NewRoleAction(kind ActionKind, ids []string) (Action, error) {
	switch kind {
	case KindAddRoles:
		return AddRoles{RoleIDs: ids}, nil
	case KindRemoveRoles:
		return RemoveRoles{RoleIDs: ids}, nil
	default:
		return nil, fmt.Errorf("%s is not a role action", kind)
	}
}

// CloneAction deep-copies an action.
func CloneAction(a Action) Action {
	switch v := a.(type) {
	case AddRoles:
		return AddRoles{RoleIDs: slices.Clone(v.RoleIDs)}
	case RemoveRoles:
		return RemoveRoles{RoleIDs: slices.Clone(v.RoleIDs)}
	case SendEmbed:
		return SendEmbed{EmbedNames: slices.Clone(v.EmbedNames), Ephemeral: v.Ephemeral}
	case EditEmbed:
		return v
	default:
		return a
	}
}

// FindAction returns the first action of kind.
func FindAction(actions []Action, kind ActionKind) (Action, bool) {
	for _, a := range actions {
		if a.Kind() == kind {
			return a, true
		}
	}
	return nil, false
}

// HasEmbedAction reports whether any action produces its own visible output.
func HasEmbedAction(actions []Action) bool {
	for _, a := range actions {
		if a.Kind().IsEmbed() {
			return true
		}
	}
	return false
}

// ReplaceKind drops every action of kind and, when next is non-nil, appends
// it. Other actions keep their relative order.
func ReplaceKind(actions []Action, kind ActionKind, next Action) []Action {
	out := make([]Action, 0, len(actions)+1)
	for _, a := range actions {
		if a.Kind() != kind {
			out = append(out, a)
		}
	}
	if next != nil {
		out = append(out, next)
	}
	return out
}

// ErrUnknownActionType is returned for persisted actions with a type the bot
// does not know.
var ErrUnknownActionType = errors.New("unknown action type")

// ParseAction converts a persisted action document into an Action.
func ParseAction(raw map[string]any) (Action, error) {
	if raw == nil {
		return nil, errors.New("empty action document")
	}
	t, _ := raw["type"].(string)
	switch ActionKind(t) {
	case KindAddRoles:
		return AddRoles{RoleIDs: ParseRoleIDs(raw["role_ids"])}, nil
	case KindRemoveRoles:
		return RemoveRoles{RoleIDs: ParseRoleIDs(raw["role_ids"])}, nil
	case KindSendEmbed:
		names := toStrings(raw["embed_names"])
		ephemeral := true
		if v, ok := raw["ephemeral"].(bool); ok {
			ephemeral = v
		}
		return SendEmbed{EmbedNames: names, Ephemeral: ephemeral}, nil
	case KindEditEmbed:
		name, _ := raw["embed_name"].(string)
		if name == "" {
			return nil, errors.New("edit_embed action without embed_name")
		}
		return EditEmbed{EmbedName: name}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, t)
	}
}

// ParseActions parses every document. Malformed entries are skipped and
// their errors joined into the returned error.
func ParseActions(raw []map[string]any) ([]Action, error) {
	out := make([]Action, 0, len(raw))
	var errs []error
	for i, doc := range raw {
		a, err := ParseAction(doc)
		if err != nil {
			errs = append(errs, fmt.Errorf("action %d: %w", i, err))
			continue
		}
		out = append(out, a)
	}
	return out, errors.Join(errs...)
}

// EncodeAction converts an action into its persisted document. Role ids are
// written as 64-bit integers.
func EncodeAction(a Action) map[string]any {
	doc := map[string]any{"type": string(a.Kind())}
	switch v := a.(type) {
	case AddRoles:
		doc["role_ids"] = encodeRoleIDs(v.RoleIDs)
	case RemoveRoles:
		doc["role_ids"] = encodeRoleIDs(v.RoleIDs)
	case SendEmbed:
		names := v.EmbedNames
		if names == nil {
			names = []string{}
		}
		doc["embed_names"] = names
		doc["ephemeral"] = v.Ephemeral
	case EditEmbed:
		doc["embed_name"] = v.EmbedName
	}
	return doc
}

// EncodeActions converts a list of actions into documents.
func EncodeActions(actions []Action) []map[string]any {
	out := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		out = append(out, EncodeAction(a))
	}
	return out
}

func toStrings(v any) []string {
	switch vv := v.(type) {
	case []string:
		return slices.Clone(vv)
	case bson.A:
		return toStrings([]any(vv))
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
