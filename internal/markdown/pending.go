package markdown

import (
	"sort"
	"strconv"
)

// PendingEntry is one editorial annotation recorded in the frontmatter
// `pending` map, keyed by the zero-based position of the leaf block it was
// attached to when the document was serialized.
type PendingEntry struct {
	Status      string `json:"status" yaml:"status"`
	Original    string `json:"original,omitempty" yaml:"original,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

// fingerprintLen bounds the text fingerprint recorded per pending leaf.
const fingerprintLen = 64

// Fingerprint derives the short re-identification value for a leaf's text.
func Fingerprint(text string) string {
	runes := []rune(text)
	if len(runes) > fingerprintLen {
		runes = runes[:fingerprintLen]
	}
	return string(runes)
}

// collectPending walks the document's leaf blocks in order and records an
// entry for each leaf carrying a pending status.
func collectPending(doc *Node) map[string]PendingEntry {
	out := make(map[string]PendingEntry)
	for i, leaf := range LeafBlocks(doc) {
		if leaf.Attrs == nil || leaf.Attrs.Pending == "" {
			continue
		}
		out[strconv.Itoa(i)] = PendingEntry{
			Status:      leaf.Attrs.Pending,
			Original:    leaf.Attrs.PendingOriginal,
			Fingerprint: Fingerprint(leaf.PlainText()),
		}
	}
	return out
}

// decodePending coerces the raw frontmatter `pending` value into typed
// entries. Malformed entries are dropped.
func decodePending(raw any) map[int]PendingEntry {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[int]PendingEntry, len(m))
	for key, val := range m {
		pos, err := strconv.Atoi(key)
		if err != nil || pos < 0 {
			continue
		}
		fields, ok := val.(map[string]any)
		if !ok {
			continue
		}
		entry := PendingEntry{}
		entry.Status, _ = fields["status"].(string)
		entry.Original, _ = fields["original"].(string)
		entry.Fingerprint, _ = fields["fingerprint"].(string)
		if entry.Status == "" {
			continue
		}
		out[pos] = entry
	}
	return out
}

// rehydratePending reattaches pending annotations to the freshly parsed
// leaf blocks. Per entry: the recorded position is claimed when still in
// range, unclaimed, and fingerprint-compatible; otherwise the first
// unclaimed leaf with matching text is claimed; otherwise the entry is
// dropped. Each leaf is claimed at most once. Leaves with identical text
// are distinguishable only by position, so this stays best-effort.
func rehydratePending(doc *Node, entries map[int]PendingEntry) {
	if len(entries) == 0 {
		return
	}
	leaves := LeafBlocks(doc)
	claimed := make([]bool, len(leaves))

	positions := make([]int, 0, len(entries))
	for pos := range entries {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	claim := func(leaf *Node, i int, e PendingEntry) {
		attrs := leaf.EnsureAttrs()
		attrs.Pending = e.Status
		attrs.PendingOriginal = e.Original
		claimed[i] = true
	}

	for _, pos := range positions {
		e := entries[pos]
		if pos < len(leaves) && !claimed[pos] {
			if e.Fingerprint == "" || e.Fingerprint == Fingerprint(leaves[pos].PlainText()) {
				claim(leaves[pos], pos, e)
				continue
			}
		}
		if e.Fingerprint == "" {
			continue
		}
		for i, leaf := range leaves {
			if claimed[i] {
				continue
			}
			if Fingerprint(leaf.PlainText()) == e.Fingerprint {
				claim(leaf, i, e)
				break
			}
		}
	}
}
