package markdown

import (
	"strings"
	"testing"
)

func pendingDoc() *Node {
	return NewDoc(
		para(txt("alpha")),
		para(txt("beta")),
		para(txt("gamma")),
	)
}

func TestPending_RoundTrip(t *testing.T) {
	doc := pendingDoc()
	doc.Children[1].Attrs = &Attrs{Pending: "rewrite", PendingOriginal: "beta before"}

	content, _ := Serialize(doc, "P", map[string]any{"docId": "ab12cd34"})
	r := Parse(content)

	leaf := r.Doc.Children[1]
	if leaf.Attrs == nil || leaf.Attrs.Pending != "rewrite" {
		t.Fatalf("pending not rehydrated: %+v", leaf.Attrs)
	}
	if leaf.Attrs.PendingOriginal != "beta before" {
		t.Errorf("original = %q", leaf.Attrs.PendingOriginal)
	}
	if r.Doc.Children[0].Attrs != nil && r.Doc.Children[0].Attrs.Pending != "" {
		t.Error("pending leaked onto wrong leaf")
	}
}

func TestPending_SurvivesElidedLeadingParagraph(t *testing.T) {
	// A leading empty paragraph shifts every later position by one when it
	// disappears; the fingerprint fallback must re-anchor the entry.
	doc := NewDoc(
		&Node{Type: TypeParagraph, ID: newID()},
		para(txt("alpha")),
		para(txt("beta")),
	)
	doc.Children[2].Attrs = &Attrs{Pending: "review"}

	content, _ := Serialize(doc, "P", nil)
	// Simulate the empty paragraph being elided by an external edit: the
	// recorded position (2) is now out of range of the two remaining leaves.
	edited := strings.Replace(string(content), emptyParagraphSentinel+"\n\n", "", 1)

	r := Parse([]byte(edited))
	if len(r.Doc.Children) != 2 {
		t.Fatalf("blocks = %d", len(r.Doc.Children))
	}
	beta := r.Doc.Children[1]
	if beta.Attrs == nil || beta.Attrs.Pending != "review" {
		t.Fatalf("pending lost after shift: %+v", beta.Attrs)
	}
}

func TestRehydrate_PositionClaimWithoutFingerprint(t *testing.T) {
	doc := pendingDoc()
	rehydratePending(doc, map[int]PendingEntry{
		0: {Status: "draft"},
	})
	if doc.Children[0].Attrs.Pending != "draft" {
		t.Errorf("position claim failed: %+v", doc.Children[0].Attrs)
	}
}

func TestRehydrate_FingerprintRescue(t *testing.T) {
	doc := pendingDoc()
	rehydratePending(doc, map[int]PendingEntry{
		7: {Status: "rewrite", Fingerprint: "gamma"},
	})
	if doc.Children[2].Attrs == nil || doc.Children[2].Attrs.Pending != "rewrite" {
		t.Errorf("fingerprint rescue failed")
	}
}

func TestRehydrate_UnmatchedDroppedSilently(t *testing.T) {
	doc := pendingDoc()
	rehydratePending(doc, map[int]PendingEntry{
		9: {Status: "rewrite", Fingerprint: "missing text"},
	})
	for _, b := range doc.Children {
		if b.Attrs != nil && b.Attrs.Pending != "" {
			t.Errorf("unexpected claim on %q", b.PlainText())
		}
	}
}

func TestRehydrate_EachLeafClaimedOnce(t *testing.T) {
	// Two entries with the same fingerprint against two identical leaves:
	// each leaf may be claimed at most once.
	doc := NewDoc(para(txt("same")), para(txt("same")))
	rehydratePending(doc, map[int]PendingEntry{
		5: {Status: "a", Fingerprint: "same"},
		6: {Status: "b", Fingerprint: "same"},
	})
	got := []string{doc.Children[0].Attrs.Pending, doc.Children[1].Attrs.Pending}
	if got[0] == "" || got[1] == "" || got[0] == got[1] {
		t.Errorf("claims = %v, want two distinct claims", got)
	}
}

func TestRehydrate_MismatchedFingerprintAtPositionFallsThrough(t *testing.T) {
	doc := pendingDoc()
	rehydratePending(doc, map[int]PendingEntry{
		0: {Status: "edit", Fingerprint: "beta"},
	})
	if doc.Children[0].Attrs != nil && doc.Children[0].Attrs.Pending != "" {
		t.Error("position 0 should not be claimed with mismatched fingerprint")
	}
	if doc.Children[1].Attrs == nil || doc.Children[1].Attrs.Pending != "edit" {
		t.Error("fingerprint match on beta expected")
	}
}

func TestFingerprint_Truncates(t *testing.T) {
	long := make([]rune, 100)
	for i := range long {
		long[i] = 'x'
	}
	fp := Fingerprint(string(long))
	if len([]rune(fp)) != fingerprintLen {
		t.Errorf("fingerprint length = %d", len([]rune(fp)))
	}
}
