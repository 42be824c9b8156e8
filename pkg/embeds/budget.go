package embeds

import (
	"sort"
	"unicode/utf8"
)

// CharCount returns the characters an embed contributes to the per-message
// budget: title, description, author name, footer text and every field name
// and value. Images, color and buttons do not count.
func CharCount(d Definition) int {
	n := utf8.RuneCountInString(d.Title) + utf8.RuneCountInString(d.Description)
	if d.Author != nil {
		n += utf8.RuneCountInString(d.Author.Name)
	}
	if d.Footer != nil {
		n += utf8.RuneCountInString(d.Footer.Text)
	}
	for _, f := range d.Fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	return n
}

// CharCounts computes CharCount for every embed of a guild.
func CharCounts(all map[string]Definition) map[string]int {
	out := make(map[string]int, len(all))
	for name, d := range all {
		out[name] = CharCount(d)
	}
	return out
}

// Used sums the counts of the selected names. Names missing from counts
// contribute nothing.
func Used(counts map[string]int, selected []string) int {
	used := 0
	seen := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		used += counts[name]
	}
	return used
}

// CompatibleCounts returns the embeds that may be part of the selection and
// the budget left after the current selection. Selected embeds are always
// compatible; any other embed is compatible when it fits in what remains.
func CompatibleCounts(counts map[string]int, selected []string) (map[string]int, int) {
	remaining := MaxEmbedChars - Used(counts, selected)

	chosen := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		chosen[name] = struct{}{}
	}

	compatible := make(map[string]int, len(counts))
	for name, n := range counts {
		if _, ok := chosen[name]; ok || n <= remaining {
			compatible[name] = n
		}
	}
	return compatible, remaining
}

// Compatible is CompatibleCounts over full definitions.
func Compatible(all map[string]Definition, selected []string) (map[string]int, int) {
	return CompatibleCounts(CharCounts(all), selected)
}

// SortedNames returns the keys of counts in ascending order.
func SortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
