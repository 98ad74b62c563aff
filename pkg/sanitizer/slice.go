package sanitizer

import "strings"

const MaxServices = 20

// NormalizeServices trims each service label, drops blanks and keeps the
// first spelling of labels that differ only in case. At most MaxServices
// labels survive.
func NormalizeServices(services []string) []string {
	out := make([]string, 0, min(len(services), MaxServices))
	seen := make(map[string]struct{}, len(services))
	for _, raw := range services {
		label := TrimAndNormalize(raw)
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
		if len(out) == MaxServices {
			break
		}
	}
	return out
}
