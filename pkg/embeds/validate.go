package embeds

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a user-facing validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
		})
		_ = v.RegisterValidation("unreserved", func(fl validator.FieldLevel) bool {
			return !strings.HasPrefix(fl.Field().String(), ReservedCustomPrefix)
		})
		validate = v
	})
	return validate
}

type buttonInput struct {
	Label    string `validate:"required,max=80"`
	Style    string `validate:"oneof=primary secondary success danger link"`
	CustomID string `validate:"required_unless=Style link,omitempty,max=100,unreserved"`
	URL      string `validate:"required_if=Style link,omitempty,httpurl"`
	Row      *int   `validate:"omitempty,min=0,max=4"`
}

// ButtonSpec is raw author input for a new or edited button.
type ButtonSpec struct {
	Label  string
	Style  string
	Target string // custom_id, or url for link buttons
	Row    string
}

// BuildButton validates author input and returns the stored button.
func BuildButton(spec ButtonSpec) (Button, error) {
	style, err := ParseStyle(spec.Style)
	if err != nil {
		return Button{}, err
	}

	row, err := ParseRow(spec.Row)
	if err != nil {
		return Button{}, err
	}

	b := Button{
		Label: strings.TrimSpace(spec.Label),
		Style: string(style),
		Row:   row,
	}
	target := strings.TrimSpace(spec.Target)
	if style == StyleLink {
		b.URL = target
	} else {
		b.CustomID = target
	}

	if err := ValidateButton(b); err != nil {
		return Button{}, err
	}
	return b, nil
}

// ParseRow parses an optional row. An empty string means auto placement.
func ParseRow(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > MaxButtonRow {
		return nil, NewValidationError("row", "**Invalid Row:** Row must be a number between 0 and 4.")
	}
	return &n, nil
}

// ValidateButton checks a stored button.
func ValidateButton(b Button) error {
	in := buttonInput{Label: b.Label, Style: b.Style, CustomID: b.CustomID, URL: b.URL, Row: b.Row}
	err := structValidator().Struct(in)
	if err == nil {
		if b.IsLink() && len(b.Actions) > 0 {
			return NewValidationError("actions", "**Invalid Button:** Link buttons cannot have actions.")
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate button: %w", err)
	}
	return buttonMessage(verrs[0])
}

func buttonMessage(fe validator.FieldError) *ValidationError {
	switch fe.Field() {
	case "Label":
		if fe.Tag() == "max" {
			return NewValidationError("label", fmt.Sprintf("**Invalid Label:** Labels can be at most %d characters.", MaxLabelLength))
		}
		return NewValidationError("label", "**Invalid Label:** The button needs a label.")
	case "Style":
		return NewValidationError("style", "**Invalid Style:** Style must be one of `primary`, `secondary`, `success`, `danger`, or `link`.")
	case "URL":
		return NewValidationError("url", "**Invalid URL:** The URL must start with `http://` or `https://` for link buttons.")
	case "CustomID":
		switch fe.Tag() {
		case "max":
			return NewValidationError("custom_id", fmt.Sprintf("**Invalid Custom ID:** Custom IDs can be at most %d characters.", MaxCustomIDLength))
		case "unreserved":
			return NewValidationError("custom_id", fmt.Sprintf("**Invalid Custom ID:** Custom IDs cannot start with `%s`.", ReservedCustomPrefix))
		default:
			return NewValidationError("custom_id", "**Invalid Custom ID:** Non-link buttons need a custom ID.")
		}
	case "Row":
		return NewValidationError("row", "**Invalid Row:** Row must be a number between 0 and 4.")
	default:
		return NewValidationError(strings.ToLower(fe.Field()), fe.Error())
	}
}

// ValidateField checks a single embed field.
func ValidateField(f Field) error {
	err := structValidator().Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate field: %w", err)
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Name" && fe.Tag() == "max":
		return NewValidationError("field_name", fmt.Sprintf("**Invalid Field:** Field names can be at most %d characters.", MaxFieldNameLength))
	case fe.Field() == "Value" && fe.Tag() == "max":
		return NewValidationError("field_value", fmt.Sprintf("**Invalid Field:** Field values can be at most %d characters.", MaxFieldValueLength))
	default:
		return NewValidationError("field", "**Invalid Field:** Fields need both a name and a value.")
	}
}

// ValidateDefinition checks the collection limits of an embed.
func ValidateDefinition(d Definition) error {
	if len(d.Fields) > MaxFields {
		return NewValidationError("fields", fmt.Sprintf("**Limit Reached:** You cannot have more than %d fields.", MaxFields))
	}
	if len(d.Buttons) > MaxButtons {
		return NewValidationError("buttons", fmt.Sprintf("**Limit Reached:** You cannot have more than %d buttons.", MaxButtons))
	}
	for _, f := range d.Fields {
		if err := ValidateField(f); err != nil {
			return err
		}
	}
	for _, b := range d.Buttons {
		if err := ValidateButton(b); err != nil {
			return err
		}
	}
	if CharCount(d) > MaxEmbedChars {
		return NewValidationError("embed", fmt.Sprintf("**Too Long:** An embed cannot exceed %d characters.", MaxEmbedChars))
	}
	return nil
}

// ValidateEmbedName checks an embed name. Names are used as document path
// segments, so dots and a leading dollar sign are rejected.
func ValidateEmbedName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return NewValidationError("name", "The embed name cannot be empty.")
	case len([]rune(name)) > MaxEmbedNameLength:
		return NewValidationError("name", fmt.Sprintf("Embed names can be at most %d characters.", MaxEmbedNameLength))
	case strings.Contains(name, "."):
		return NewValidationError("name", "Embed names cannot contain `.`.")
	case strings.HasPrefix(name, "$"):
		return NewValidationError("name", "Embed names cannot start with `$`.")
	}
	return nil
}
