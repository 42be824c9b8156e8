package storage

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

func TestBSONDocumentRoundTrip(t *testing.T) {
	want := sampleEmbed()
	want.Channels = []string{"c1", "c2"}

	doc := guildDoc{
		GuildID: "g",
		Embeds:  map[string]entryDoc{"welcome": {Config: encodeConfig(want), Channels: want.Channels}},
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded guildDoc
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := decodeGuild(decoded)
	if !reflect.DeepEqual(got["welcome"], want) {
		t.Fatalf("bson round trip mismatch:\n got %+v\nwant %+v", got["welcome"], want)
	}
}

func TestBSONWireFieldNames(t *testing.T) {
	cfg := encodeConfig(sampleEmbed())
	raw, err := bson.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	author, ok := asMap(m["author"])
	if !ok {
		t.Fatalf("expected author sub-document, got %T", m["author"])
	}
	if author["icon_url"] != "https://example.com/a.png" {
		t.Fatalf("expected icon_url key, got %v", author)
	}

	buttons, ok := m["buttons"].(bson.A)
	if !ok || len(buttons) != 2 {
		t.Fatalf("expected two buttons, got %v", m["buttons"])
	}
	first, _ := asMap(buttons[0])
	actions := first["actions"].(bson.A)
	add, _ := asMap(actions[0])
	if add["type"] != "add_roles" {
		t.Fatalf("unexpected action type %v", add["type"])
	}
	ids := add["role_ids"].(bson.A)
	if _, ok := ids[0].(int64); !ok {
		t.Fatalf("expected role ids stored as int64, got %T", ids[0])
	}
	link, _ := asMap(buttons[1])
	if _, ok := link["custom_id"]; ok {
		t.Fatalf("link button should not carry custom_id")
	}
}

func TestDecodeLegacyRoleEncodings(t *testing.T) {
	doc := guildDoc{
		GuildID: "g",
		Embeds: map[string]entryDoc{
			"legacy": {Config: &configDoc{
				Title: "Legacy",
				Buttons: []buttonDoc{{
					Label:    "Join",
					Style:    "primary",
					CustomID: "join",
					Actions: []map[string]any{
						{"type": "add_roles", "role_ids": bson.A{"11", bson.M{"$numberLong": "12"}, "junk"}},
						{"type": "unknown_kind"},
					},
				}},
			}},
			"orphan": {Channels: []string{"c"}},
		},
	}

	got := decodeGuild(doc)
	if _, ok := got["orphan"]; ok {
		t.Fatalf("entries without config should be skipped")
	}
	actions := got["legacy"].Buttons[0].Actions
	want := []embeds.Action{embeds.AddRoles{RoleIDs: []string{"11", "12"}}}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("got %v want %v", actions, want)
	}
}

func asMap(v any) (map[string]any, bool) {
	switch vv := v.(type) {
	case bson.M:
		return vv, true
	case map[string]any:
		return vv, true
	case bson.D:
		return vv.Map(), true
	default:
		return nil, false
	}
}
