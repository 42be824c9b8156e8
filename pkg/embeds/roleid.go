package embeds

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const numberLongKey = "$numberLong"

// ParseRoleID normalizes a stored role identifier. Integers, decimal strings
// and {"$numberLong": "..."} wrappers are accepted; anything else reports
// false so callers can drop it.
func ParseRoleID(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case int:
		return positiveID(int64(v))
	case int32:
		return positiveID(int64(v))
	case int64:
		return positiveID(v)
	case uint64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatUint(v, 10), true
	case float64:
		if v <= 0 || v != math.Trunc(v) || v > math.MaxInt64 {
			return "", false
		}
		return positiveID(int64(v))
	case json.Number:
		return parseDecimal(v.String())
	case string:
		return parseDecimal(v)
	case map[string]any:
		return parseWrapped(v)
	case bson.M:
		return parseWrapped(map[string]any(v))
	case bson.D:
		m := make(map[string]any, len(v))
		for _, e := range v {
			m[e.Key] = e.Value
		}
		return parseWrapped(m)
	default:
		return "", false
	}
}

// ParseRoleIDs parses a list of role identifiers, dropping unparsable entries
// and duplicates while keeping order.
func ParseRoleIDs(raw any) []string {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case bson.A:
		items = []any(v)
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []int64:
		for _, n := range v {
			items = append(items, n)
		}
	default:
		return nil
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id, ok := ParseRoleID(item)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func parseWrapped(m map[string]any) (string, bool) {
	if v, ok := m[numberLongKey]; ok {
		return ParseRoleID(v)
	}
	for _, v := range m {
		if id, ok := ParseRoleID(v); ok {
			return id, true
		}
	}
	return "", false
}

func parseDecimal(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return "", false
	}
	return strconv.FormatUint(n, 10), true
}

func positiveID(n int64) (string, bool) {
	if n <= 0 {
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

func encodeRoleIDs(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			out = append(out, n)
			continue
		}
		out = append(out, id)
	}
	return out
}
