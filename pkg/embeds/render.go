package embeds

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// RenderEmbed builds the platform embed for d.
func RenderEmbed(d Definition) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       d.Title,
		Description: d.Description,
		URL:         d.URL,
		Color:       d.Color,
	}
	if d.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, d.Timestamp); err == nil {
			e.Timestamp = t.UTC().Format(time.RFC3339)
		}
	}
	if d.Author != nil && d.Author.Name != "" {
		e.Author = &discordgo.MessageEmbedAuthor{Name: d.Author.Name, URL: d.Author.URL, IconURL: d.Author.IconURL}
	}
	if d.Footer != nil && d.Footer.Text != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: d.Footer.Text, IconURL: d.Footer.IconURL}
	}
	if d.Thumbnail != nil && d.Thumbnail.URL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: d.Thumbnail.URL}
	}
	if d.Image != nil && d.Image.URL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: d.Image.URL}
	}
	for _, f := range d.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return e
}

// RenderComponents lays buttons out in action rows. Buttons with an explicit
// row go there while it has room; the rest fill the first row with space.
// Buttons that do not fit anywhere are dropped.
func RenderComponents(buttons []Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return nil
	}

	var rows [MaxButtonRow + 1][]discordgo.MessageComponent
	var auto []Button
	for _, b := range buttons {
		if b.Row != nil && *b.Row >= 0 && *b.Row <= MaxButtonRow && len(rows[*b.Row]) < ButtonsPerRow {
			rows[*b.Row] = append(rows[*b.Row], renderButton(b))
			continue
		}
		auto = append(auto, b)
	}
	for _, b := range auto {
		for i := range rows {
			if len(rows[i]) < ButtonsPerRow {
				rows[i] = append(rows[i], renderButton(b))
				break
			}
		}
	}

	var out []discordgo.MessageComponent
	for _, row := range rows {
		if len(row) > 0 {
			out = append(out, discordgo.ActionsRow{Components: row})
		}
	}
	return out
}

func renderButton(b Button) discordgo.MessageComponent {
	if b.IsLink() {
		return discordgo.Button{Label: b.Label, Style: discordgo.LinkButton, URL: b.URL}
	}
	return discordgo.Button{Label: b.Label, Style: RenderStyle(b.Style), CustomID: b.CustomID}
}

// RenderMessage returns the embed and components for a stored definition.
func RenderMessage(d Definition) ([]*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	return []*discordgo.MessageEmbed{RenderEmbed(d)}, RenderComponents(d.Buttons)
}
