package builder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands/core"
	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
)

// clearValue removes an optional text field in /embed edit.
const clearValue = "none"

// Platform limits of the individual text fields.
const (
	maxTitle       = 256
	maxDescription = embeds.MaxDescriptionLength
	maxAuthor      = 256
	maxFooter      = 2048
)

func editOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		nameOption(),
		stringOption("title", "Title, or none to clear", false),
		stringOption("description", "Description, or none to clear", false),
		stringOption("url", "Title link, or none to clear", false),
		stringOption("color", "Hex, rgb(r, g, b), a decimal value or a color name", false),
		stringOption("timestamp", "today, dd/mm/yyyy [HH:MM], a UNIX timestamp, or none", false),
		stringOption("author", "Author name, or none to clear", false),
		stringOption("author_icon", "Author icon URL, or none to clear", false),
		stringOption("footer", "Footer text, or none to clear", false),
		stringOption("footer_icon", "Footer icon URL, or none to clear", false),
		stringOption("thumbnail", "Thumbnail URL, or none to clear", false),
		stringOption("image", "Image URL, or none to clear", false),
	}
}

func (ec *EmbedCommands) handleCreate(ctx *core.Context) error {
	name, err := embedName(options(ctx))
	if err != nil {
		return err
	}
	if err := embeds.ValidateEmbedName(name); err != nil {
		return userError(err)
	}

	if _, err := ec.store.GetEmbed(ctx.Ctx, ctx.GuildID, name); err == nil {
		return core.NewCommandError(fmt.Sprintf("❌ An embed named `%s` already exists.", name), true)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if err := ec.saveEmbed(ctx, name, embeds.Empty(), "embed_create", nil); err != nil {
		return err
	}
	return ctx.Reply.Success(fmt.Sprintf("Embed `%s` created. Use `/embed edit` to change it.", name))
}

func (ec *EmbedCommands) handleEdit(ctx *core.Context) error {
	ext := options(ctx)
	name, err := embedName(ext)
	if err != nil {
		return err
	}
	def, err := ec.loadEmbed(ctx, name)
	if err != nil {
		return err
	}

	edited := def.Clone()
	changed, err := ec.applyEdits(&edited, ext)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		return ctx.Reply.Warning("Nothing to change. Pass at least one field to edit.")
	}

	if err := ec.saveEmbed(ctx, name, edited, "embed_edit", logrus.Fields{"fields": changed}); err != nil {
		return err
	}

	preview, components := embeds.RenderMessage(edited)
	return ctx.Reply.Send(&discordgo.InteractionResponseData{
		Content:    core.FormatMessage(fmt.Sprintf("Embed `%s` updated.", name), core.ResponseSuccess),
		Embeds:     preview,
		Components: components,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

// applyEdits copies the given options onto def and returns the names of the
// options that were applied.
func (ec *EmbedCommands) applyEdits(def *embeds.Definition, ext *core.OptionExtractor) ([]string, error) {
	var changed []string
	set := func(option string, apply func(v string) error) error {
		if !ext.HasOption(option) {
			return nil
		}
		v := ext.String(option)
		if strings.EqualFold(v, clearValue) {
			v = ""
		}
		if err := apply(v); err != nil {
			return err
		}
		changed = append(changed, option)
		return nil
	}

	steps := []struct {
		option string
		apply  func(v string) error
	}{
		{"title", func(v string) error {
			def.Title = v
			return checkLength("title", "Titles", v, maxTitle)
		}},
		{"description", func(v string) error {
			def.Description = v
			return checkLength("description", "Descriptions", v, maxDescription)
		}},
		{"url", func(v string) error {
			def.URL = v
			return checkURL("url", v)
		}},
		{"color", func(v string) error {
			if v == "" {
				def.Color = 0
				return nil
			}
			c, err := embeds.ParseColor(v)
			if err != nil {
				return userError(err)
			}
			def.Color = c
			return nil
		}},
		{"timestamp", func(v string) error {
			t, err := embeds.ParseTimestamp(v, ec.now())
			if err != nil {
				return userError(err)
			}
			def.Timestamp = embeds.FormatTimestamp(t)
			return nil
		}},
		{"author", func(v string) error {
			author := ensureAuthor(def)
			author.Name = v
			return checkLength("author", "Author names", v, maxAuthor)
		}},
		{"author_icon", func(v string) error {
			ensureAuthor(def).IconURL = v
			return checkURL("author_icon", v)
		}},
		{"footer", func(v string) error {
			footer := ensureFooter(def)
			footer.Text = v
			return checkLength("footer", "Footers", v, maxFooter)
		}},
		{"footer_icon", func(v string) error {
			ensureFooter(def).IconURL = v
			return checkURL("footer_icon", v)
		}},
		{"thumbnail", func(v string) error {
			def.Thumbnail = imageOrNil(v)
			return checkURL("thumbnail", v)
		}},
		{"image", func(v string) error {
			def.Image = imageOrNil(v)
			return checkURL("image", v)
		}},
	}
	for _, step := range steps {
		if err := set(step.option, step.apply); err != nil {
			return nil, err
		}
	}

	if def.Author != nil && *def.Author == (embeds.Author{}) {
		def.Author = nil
	}
	if def.Footer != nil && *def.Footer == (embeds.Footer{}) {
		def.Footer = nil
	}
	return changed, nil
}

func ensureAuthor(def *embeds.Definition) *embeds.Author {
	if def.Author == nil {
		def.Author = &embeds.Author{}
	}
	return def.Author
}

func ensureFooter(def *embeds.Definition) *embeds.Footer {
	if def.Footer == nil {
		def.Footer = &embeds.Footer{}
	}
	return def.Footer
}

func imageOrNil(url string) *embeds.Image {
	if url == "" {
		return nil
	}
	return &embeds.Image{URL: url}
}

func checkLength(field, what, v string, max int) error {
	if utf8.RuneCountInString(v) > max {
		return core.NewValidationError(field, fmt.Sprintf("**Too Long:** %s can be at most %d characters.", what, max))
	}
	return nil
}

func checkURL(field, v string) error {
	if v == "" || strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return nil
	}
	return core.NewValidationError(field, fmt.Sprintf("**Invalid URL:** `%s` must start with `http://` or `https://`.", field))
}

func (ec *EmbedCommands) handleFieldAdd(ctx *core.Context) error {
	ext := options(ctx)
	name, err := embedName(ext)
	if err != nil {
		return err
	}
	def, err := ec.loadEmbed(ctx, name)
	if err != nil {
		return err
	}
	if len(def.Fields) >= embeds.MaxFields {
		return core.NewValidationError("fields", fmt.Sprintf("**Limit Reached:** You cannot have more than %d fields.", embeds.MaxFields))
	}

	field := embeds.Field{Name: ext.String("field_name"), Value: ext.String("value"), Inline: ext.Bool("inline")}
	if err := embeds.ValidateField(field); err != nil {
		return userError(err)
	}

	edited := def.Clone()
	edited.Fields = append(edited.Fields, field)
	if err := ec.saveEmbed(ctx, name, edited, "embed_field_add", logrus.Fields{"field": field.Name}); err != nil {
		return err
	}
	return ctx.Reply.Success(fmt.Sprintf("Field added to `%s` (%d/%d).", name, len(edited.Fields), embeds.MaxFields))
}

func (ec *EmbedCommands) handleFieldRemove(ctx *core.Context) error {
	ext := options(ctx)
	name, err := embedName(ext)
	if err != nil {
		return err
	}
	def, err := ec.loadEmbed(ctx, name)
	if err != nil {
		return err
	}
	i, err := position(ext, "Field", len(def.Fields))
	if err != nil {
		return err
	}

	edited := def.Clone()
	removed := edited.Fields[i]
	edited.Fields = append(edited.Fields[:i], edited.Fields[i+1:]...)
	if err := ec.saveEmbed(ctx, name, edited, "embed_field_remove", logrus.Fields{"field": removed.Name}); err != nil {
		return err
	}
	return ctx.Reply.Success(fmt.Sprintf("Removed field `%s` from `%s`.", removed.Name, name))
}

func (ec *EmbedCommands) handleButtonAdd(ctx *core.Context) error {
	ext := options(ctx)
	name, err := embedName(ext)
	if err != nil {
		return err
	}
	def, err := ec.loadEmbed(ctx, name)
	if err != nil {
		return err
	}
	if len(def.Buttons) >= embeds.MaxButtons {
		return core.NewValidationError("buttons", fmt.Sprintf("**Limit Reached:** You cannot have more than %d buttons.", embeds.MaxButtons))
	}

	spec := embeds.ButtonSpec{
		Label:  ext.String("label"),
		Style:  ext.String("style"),
		Target: ext.String("target"),
	}
	if ext.HasOption("row") {
		spec.Row = strconv.FormatInt(ext.Int("row"), 10)
	}
	button, err := embeds.BuildButton(spec)
	if err != nil {
		return userError(err)
	}
	if def.FindButton(button.CustomID) >= 0 {
		return core.NewValidationError("custom_id", fmt.Sprintf("**Duplicate Custom ID:** `%s` already has a button with custom ID `%s`.", name, button.CustomID))
	}

	edited := def.Clone()
	edited.Buttons = append(edited.Buttons, button)
	fields := logrus.Fields{"label": button.Label, "style": button.Style, "custom_id": button.CustomID}
	if err := ec.saveEmbed(ctx, name, edited, "embed_button_add", fields); err != nil {
		return err
	}

	msg := fmt.Sprintf("Button `%s` added to `%s`.", button.Label, name)
	if !button.IsLink() {
		msg += " Use `/embed actions` to choose what it does."
	}
	return ctx.Reply.Success(msg)
}

func (ec *EmbedCommands) handleButtonRemove(ctx *core.Context) error {
	ext := options(ctx)
	name, err := embedName(ext)
	if err != nil {
		return err
	}
	def, err := ec.loadEmbed(ctx, name)
	if err != nil {
		return err
	}
	i, err := position(ext, "Button", len(def.Buttons))
	if err != nil {
		return err
	}

	edited := def.Clone()
	removed := edited.Buttons[i]
	edited.Buttons = append(edited.Buttons[:i], edited.Buttons[i+1:]...)
	fields := logrus.Fields{"label": removed.Label, "custom_id": removed.CustomID}
	if err := ec.saveEmbed(ctx, name, edited, "embed_button_remove", fields); err != nil {
		return err
	}
	return ctx.Reply.Success(fmt.Sprintf("Removed button `%s` from `%s`.", removed.Label, name))
}

// position reads the 1-based index option and returns it 0-based.
func position(ext *core.OptionExtractor, what string, n int) (int, error) {
	if n == 0 {
		return 0, core.NewValidationError("index", fmt.Sprintf("**Invalid Index:** This embed has no %ss.", strings.ToLower(what)))
	}
	i := ext.Int("index")
	if i < 1 || i > int64(n) {
		return 0, core.NewValidationError("index", fmt.Sprintf("**Invalid Index:** %s index must be between 1 and %d.", what, n))
	}
	return int(i - 1), nil
}
