package ids

import "strings"

// NormalizeUniqueIDs drops empty and case-insensitive duplicate IDs while
// keeping the first spelling of each.
func NormalizeUniqueIDs(ids []string) []string {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		key := strings.ToLower(id)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, id)
	}
	return unique
}

// MatchPrefix finds the ID that prefix identifies. An exact match always
// wins; otherwise the prefix must select exactly one ID.
func MatchPrefix(ids []string, prefix string) (match string, found bool, ambiguous bool) {
	needle := strings.ToLower(prefix)
	if needle == "" {
		return "", false, false
	}
	for _, id := range ids {
		if strings.ToLower(id) == needle {
			return id, true, false
		}
	}
	for _, id := range ids {
		if !strings.HasPrefix(strings.ToLower(id), needle) {
			continue
		}
		if found {
			return "", true, true
		}
		match, found = id, true
	}
	return match, found, false
}

// UniquePrefixLengths returns the shortest unique prefix length for each
// ID, keyed by the lowercased ID.
func UniquePrefixLengths(ids []string) map[string]int {
	lowered := make([]string, 0, len(ids))
	for _, id := range NormalizeUniqueIDs(ids) {
		lowered = append(lowered, strings.ToLower(id))
	}

	lengths := make(map[string]int, len(lowered))
	for _, id := range lowered {
		lengths[id] = uniquePrefixLength(id, lowered)
	}
	return lengths
}

func uniquePrefixLength(id string, ids []string) int {
	longest := 0
	for _, other := range ids {
		if other == id {
			continue
		}
		if shared := commonPrefixLength(id, other); shared > longest {
			longest = shared
		}
	}
	if longest >= len(id) {
		return len(id)
	}
	return longest + 1
}

func commonPrefixLength(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
