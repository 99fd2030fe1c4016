package tool

import "strings"

// splitIDs accepts ids either as a list or as one comma separated string.
func splitIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		for part := range strings.SplitSeq(id, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
