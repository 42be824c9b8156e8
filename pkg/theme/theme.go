package theme

import (
	"fmt"
	"sort"
	"sync"
)

// Color is the int value used by discordgo.MessageEmbed.Color
type Color = int

// Theme holds the colors of the bot's own panels. Stored embeds keep the
// color their author picked; a theme never touches them.
type Theme struct {
	Name string

	Primary Color
	Info    Color
	Success Color
	Warning Color
	Loading Color
	Error   Color
	Muted   Color

	// Panels
	EmbedList   Color // /embed list
	WizardPanel Color // action wizard steps
	SendSummary Color // multi-channel send report
}

// Clone returns a copy of the Theme.
func (t *Theme) Clone() *Theme {
	cp := *t
	return &cp
}

// ensureDefaults fills zero-valued fields so themes can override a subset.
func (t *Theme) ensureDefaults() {
	if t.Primary == 0 {
		t.Primary = 0x5865F2
	}
	if t.Info == 0 {
		t.Info = 0x3B82F6
	}
	if t.Success == 0 {
		t.Success = 0x57F287
	}
	if t.Warning == 0 {
		t.Warning = 0xF59E0B
	}
	if t.Loading == 0 {
		t.Loading = 0xFEE75C
	}
	if t.Error == 0 {
		t.Error = 0xED4245
	}
	if t.Muted == 0 {
		t.Muted = 0x99AAB5
	}
	if t.EmbedList == 0 {
		t.EmbedList = t.Primary
	}
	if t.WizardPanel == 0 {
		t.WizardPanel = t.Info
	}
	if t.SendSummary == 0 {
		t.SendSummary = t.Success
	}
}

func defaultTheme() *Theme {
	th := &Theme{Name: "default", Primary: 0x5865F2}
	th.ensureDefaults()
	return th
}

var (
	mu        sync.RWMutex
	registry  = map[string]*Theme{}
	currentTh = defaultTheme()
)

func init() {
	MustRegister(&Theme{
		Name:        "midnight",
		Primary:     0x7AA2F7,
		Info:        0x7DCFFF,
		Success:     0x9ECE6A,
		Warning:     0xE0AF68,
		Error:       0xF7768E,
		Muted:       0x565F89,
		WizardPanel: 0xBB9AF7,
	})
}

// Register adds a theme to the registry. It returns an error if the name is empty or already registered.
func Register(t *Theme) error {
	if t == nil {
		return fmt.Errorf("theme: cannot register nil theme")
	}
	if t.Name == "" {
		return fmt.Errorf("theme: name is required")
	}
	cp := t.Clone()
	cp.ensureDefaults()

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[cp.Name]; exists {
		return fmt.Errorf("theme: theme %q already registered", cp.Name)
	}
	registry[cp.Name] = cp
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(t *Theme) {
	if err := Register(t); err != nil {
		panic(err)
	}
}

// SetCurrent switches the active theme by name. An empty name restores the default.
func SetCurrent(name string) error {
	mu.Lock()
	defer mu.Unlock()
	if name == "" || name == "default" {
		currentTh = defaultTheme()
		return nil
	}
	th, ok := registry[name]
	if !ok {
		return fmt.Errorf("theme: theme %q not found", name)
	}
	currentTh = th.Clone()
	return nil
}

// Names lists the registered themes.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry)+1)
	out = append(out, "default")
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out[1:])
	return out
}

// Current returns a copy of the current theme.
func Current() *Theme {
	mu.RLock()
	defer mu.RUnlock()
	return currentTh.Clone()
}

func Primary() Color     { return Current().Primary }
func Info() Color        { return Current().Info }
func Success() Color     { return Current().Success }
func Warning() Color     { return Current().Warning }
func Loading() Color     { return Current().Loading }
func Error() Color       { return Current().Error }
func Muted() Color       { return Current().Muted }
func EmbedList() Color   { return Current().EmbedList }
func WizardPanel() Color { return Current().WizardPanel }
func SendSummary() Color { return Current().SendSummary }
