package storage

import (
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// guildDoc is the per-guild document: embeds.<name>.{config,channels}.
type guildDoc struct {
	GuildID string              `bson:"guild_id" json:"guild_id"`
	Embeds  map[string]entryDoc `bson:"embeds,omitempty" json:"embeds,omitempty"`
}

type entryDoc struct {
	Config   *configDoc `bson:"config,omitempty" json:"config,omitempty"`
	Channels []string   `bson:"channels,omitempty" json:"channels,omitempty"`
}

type configDoc struct {
	Title       string         `bson:"title,omitempty" json:"title,omitempty"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	URL         string         `bson:"url,omitempty" json:"url,omitempty"`
	Color       int            `bson:"color,omitempty" json:"color,omitempty"`
	Timestamp   string         `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
	Author      *embeds.Author `bson:"author,omitempty" json:"author,omitempty"`
	Footer      *embeds.Footer `bson:"footer,omitempty" json:"footer,omitempty"`
	Thumbnail   *embeds.Image  `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Image       *embeds.Image  `bson:"image,omitempty" json:"image,omitempty"`
	Fields      []embeds.Field `bson:"fields,omitempty" json:"fields,omitempty"`
	Buttons     []buttonDoc    `bson:"buttons" json:"buttons"`
}

type buttonDoc struct {
	Label    string           `bson:"label" json:"label"`
	Style    string           `bson:"style" json:"style"`
	CustomID string           `bson:"custom_id,omitempty" json:"custom_id,omitempty"`
	URL      string           `bson:"url,omitempty" json:"url,omitempty"`
	Row      *int             `bson:"row,omitempty" json:"row,omitempty"`
	Actions  []map[string]any `bson:"actions,omitempty" json:"actions,omitempty"`
}

func encodeConfig(def embeds.Definition) *configDoc {
	cfg := &configDoc{
		Title:       def.Title,
		Description: def.Description,
		URL:         def.URL,
		Color:       def.Color,
		Timestamp:   def.Timestamp,
		Author:      def.Author,
		Footer:      def.Footer,
		Thumbnail:   def.Thumbnail,
		Image:       def.Image,
		Fields:      def.Fields,
		Buttons:     encodeButtons(def.Buttons),
	}
	return cfg
}

func encodeButtons(buttons []embeds.Button) []buttonDoc {
	out := make([]buttonDoc, 0, len(buttons))
	for _, b := range buttons {
		doc := buttonDoc{Label: b.Label, Style: b.Style, CustomID: b.CustomID, URL: b.URL, Row: b.Row}
		if len(b.Actions) > 0 {
			doc.Actions = embeds.EncodeActions(b.Actions)
		}
		out = append(out, doc)
	}
	return out
}

// decodeEntry converts a stored entry. Malformed actions are dropped and
// logged; the rest of the embed is still usable.
func decodeEntry(guildID, name string, e entryDoc) (embeds.Definition, bool) {
	if e.Config == nil {
		return embeds.Definition{}, false
	}
	cfg := e.Config
	def := embeds.Definition{
		Title:       cfg.Title,
		Description: cfg.Description,
		URL:         cfg.URL,
		Color:       cfg.Color,
		Timestamp:   cfg.Timestamp,
		Author:      cfg.Author,
		Footer:      cfg.Footer,
		Thumbnail:   cfg.Thumbnail,
		Image:       cfg.Image,
		Fields:      cfg.Fields,
		Buttons:     make([]embeds.Button, 0, len(cfg.Buttons)),
		Channels:    append([]string(nil), e.Channels...),
	}
	for _, bd := range cfg.Buttons {
		b := embeds.Button{Label: bd.Label, Style: bd.Style, CustomID: bd.CustomID, URL: bd.URL, Row: bd.Row}
		if len(bd.Actions) > 0 {
			actions, err := embeds.ParseActions(bd.Actions)
			if err != nil {
				log.DatabaseLogger().Warn("Dropped malformed button actions",
					"guildID", guildID, "embed", name, "customID", bd.CustomID, "error", err)
			}
			b.Actions = actions
		}
		def.Buttons = append(def.Buttons, b)
	}
	return def, true
}

func decodeGuild(doc guildDoc) map[string]embeds.Definition {
	out := make(map[string]embeds.Definition, len(doc.Embeds))
	for name, e := range doc.Embeds {
		if def, ok := decodeEntry(doc.GuildID, name, e); ok {
			out[name] = def
		}
	}
	return out
}
