package embeds

// Platform limits enforced by the editor and the wizard.
const (
	MaxEmbedChars        = 6000
	MaxEmbedsPerMessage  = 10
	MaxButtons           = 25
	MaxFields            = 25
	MaxLabelLength       = 80
	MaxCustomIDLength    = 100
	MaxEmbedNameLength   = 100
	MaxFieldNameLength   = 256
	MaxFieldValueLength  = 1024
	MaxDescriptionLength = 4096
	MaxChoiceLength      = 100
	MaxButtonRow         = 4
	ButtonsPerRow        = 5
	SelectPageSize       = 25
	ReservedCustomPrefix = "eb:"
)

// Definition is a stored embed: the rendered payload plus its buttons and
// the channels it is attached to.
type Definition struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Color       int      `json:"color,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
	Author      *Author  `json:"author,omitempty"`
	Footer      *Footer  `json:"footer,omitempty"`
	Thumbnail   *Image   `json:"thumbnail,omitempty"`
	Image       *Image   `json:"image,omitempty"`
	Fields      []Field  `json:"fields,omitempty"`
	Buttons     []Button `json:"buttons"`

	// Channels is kept next to the config in storage, not inside it.
	Channels []string `json:"-"`
}

// Author is the embed author block.
type Author struct {
	Name    string `json:"name,omitempty" bson:"name,omitempty"`
	URL     string `json:"url,omitempty" bson:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty" bson:"icon_url,omitempty"`
}

// Footer is the embed footer block.
type Footer struct {
	Text    string `json:"text,omitempty" bson:"text,omitempty"`
	IconURL string `json:"icon_url,omitempty" bson:"icon_url,omitempty"`
}

// Image holds a thumbnail or image url.
type Image struct {
	URL string `json:"url,omitempty" bson:"url,omitempty"`
}

// Field is one embed field.
type Field struct {
	Name   string `json:"name" bson:"name" validate:"required,max=256"`
	Value  string `json:"value" bson:"value" validate:"required,max=1024"`
	Inline bool   `json:"inline,omitempty" bson:"inline,omitempty"`
}

// Button is an interactive button attached to an embed. Exactly one of
// CustomID and URL is set, depending on Style.
type Button struct {
	Label    string   `json:"label"`
	Style    string   `json:"style"`
	CustomID string   `json:"custom_id,omitempty"`
	URL      string   `json:"url,omitempty"`
	Row      *int     `json:"row,omitempty"`
	Actions  []Action `json:"-"`
}

// IsLink reports whether the button is a platform link button.
func (b Button) IsLink() bool {
	return b.Style == string(StyleLink) || (b.CustomID == "" && b.URL != "")
}

// Empty returns the default config used when a new embed is created.
func Empty() Definition {
	return Definition{
		Title:       "New Embed",
		Description: "Use `/embed edit` to change this embed.",
		Buttons:     []Button{},
	}
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	out := d
	if d.Author != nil {
		a := *d.Author
		out.Author = &a
	}
	if d.Footer != nil {
		f := *d.Footer
		out.Footer = &f
	}
	if d.Thumbnail != nil {
		t := *d.Thumbnail
		out.Thumbnail = &t
	}
	if d.Image != nil {
		i := *d.Image
		out.Image = &i
	}
	if d.Fields != nil {
		out.Fields = append([]Field(nil), d.Fields...)
	}
	if d.Buttons != nil {
		out.Buttons = make([]Button, len(d.Buttons))
		for i, b := range d.Buttons {
			out.Buttons[i] = b.Clone()
		}
	}
	if d.Channels != nil {
		out.Channels = append([]string(nil), d.Channels...)
	}
	return out
}

// Clone returns a deep copy of b.
func (b Button) Clone() Button {
	out := b
	if b.Row != nil {
		r := *b.Row
		out.Row = &r
	}
	if b.Actions != nil {
		out.Actions = make([]Action, len(b.Actions))
		for i, a := range b.Actions {
			out.Actions[i] = CloneAction(a)
		}
	}
	return out
}

// FindButton returns the index of the button with customID, or -1.
func (d Definition) FindButton(customID string) int {
	if customID == "" {
		return -1
	}
	for i, b := range d.Buttons {
		if b.CustomID == customID {
			return i
		}
	}
	return -1
}

// HasButtons reports whether the embed renders any component.
func (d Definition) HasButtons() bool {
	return len(d.Buttons) > 0
}
