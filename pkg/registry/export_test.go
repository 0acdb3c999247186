package registry

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/celine-eu/rec-registry/pkg/bundle"
)

func TestBuildBundleDocRoundTrip(t *testing.T) {
	original := testBundle()
	original.Community.Extra = map[string]any{"website": "https://sunvalley.example.org"}
	original.Sites[0].Extra = map[string]any{"surface_m2": 420.0}

	g, err := Resolve(original, testBase, PolicyStrict)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	doc := BuildBundleDoc(snapshot(g))

	// The exported document decodes back through the bundle validator.
	decoded, err := bundle.Decode(doc)
	if err != nil {
		t.Fatalf("exported document does not decode: %v", err)
	}

	// And resolves back into a graph with identical shape.
	g2, err := Resolve(decoded, testBase, PolicyStrict)
	if err != nil {
		t.Fatalf("exported document does not resolve: %v", err)
	}
	if diff := cmp.Diff(g.InsertedCounts(), g2.InsertedCounts()); diff != "" {
		t.Fatalf("counts changed across round trip (-want +got):\n%s", diff)
	}

	if g2.Community.Extra["website"] != "https://sunvalley.example.org" {
		t.Fatalf("community extra lost: %v", g2.Community.Extra)
	}
	if g2.Sites[0].Extra["surface_m2"] != 420.0 {
		t.Fatalf("site extra lost: %v", g2.Sites[0].Extra)
	}
}

func TestBuildBundleDocShape(t *testing.T) {
	g, err := Resolve(testBundle(), testBase, PolicyStrict)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	doc := BuildBundleDoc(snapshot(g))

	// Exports use the rich layout: context block plus structured owner refs.
	if bundle.DetectShape(doc) != bundle.ShapeBundle {
		t.Fatal("exported document is not in the rich shape")
	}

	meters := doc["meters"].([]any)
	meter := meters[0].(map[string]any)
	owner, ok := meter["owner"].(map[string]any)
	if !ok {
		t.Fatalf("meter owner = %T", meter["owner"])
	}
	if owner["kind"] != KindParticipant || owner["ref"] != "alice" {
		t.Fatalf("meter owner = %v", owner)
	}
	if meter["located_at"] != "hall" {
		t.Fatalf("meter located_at = %v", meter["located_at"])
	}

	// Empty optionals are omitted entirely.
	community := doc["community"].(map[string]any)
	if _, ok := community["description"]; ok {
		t.Fatal("empty description should be omitted")
	}

	topology := doc["topology"].(map[string]any)
	edges := topology["edges"].([]any)
	if len(edges) != 2 {
		t.Fatalf("edges = %v", edges)
	}
	edge := edges[0].(map[string]any)
	if edge["from"] != "pv1" || edge["predicate"] != "feeds" || edge["to"] != "m1" {
		t.Fatalf("edge = %v", edge)
	}
}

func TestBuildBundleDocNoSurrogateIDs(t *testing.T) {
	g, err := Resolve(testBundle(), testBase, PolicyStrict)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	out, err := bundle.DumpYAML(BuildBundleDoc(snapshot(g)))
	if err != nil {
		t.Fatalf("DumpYAML failed: %v", err)
	}
	for _, id := range []string{g.Community.ID.String(), g.Meters[0].ID.String()} {
		if bytes.Contains(out, []byte(id)) {
			t.Fatalf("surrogate id %s leaked into export", id)
		}
	}
}
