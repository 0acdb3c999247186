package registry

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/celine-eu/rec-registry/pkg/bundle"
)

const testBase = "https://reg.example.org/api"

func testBundle() *bundle.Bundle {
	power := 9.9
	return &bundle.Bundle{
		Community: bundle.Community{Key: "sunvalley", Name: "Sun Valley REC"},
		Participants: []bundle.Participant{
			{Key: "alice", Name: "Alice", Kind: "person"},
			{Key: "coop", Name: "Coop", Kind: "organization"},
		},
		Sites: []bundle.Site{
			{Key: "hall", Name: "Town hall"},
		},
		Meters: []bundle.Meter{
			{Key: "m1", OwnerKey: "alice", SiteKey: "hall", SensorID: "SR-100"},
		},
		Assets: []bundle.Asset{
			{Key: "pv1", OwnerKey: "coop", SiteKey: "hall", MeterKey: "m1", AssetType: "pv", RatedPowerKW: &power},
		},
		Memberships: []bundle.Membership{
			{Key: "mb-alice", ParticipantKey: "alice", RoleIRI: "member"},
		},
		Tariffs: []bundle.Tariff{
			{Key: "t1", Name: "Standard", Currency: "EUR"},
		},
		TimeSeries: []bundle.TimeSeries{
			{Key: "ts-pv", Metric: "active_power", ObservedEntity: "pv1"},
			{Key: "ts-total", Metric: "net_energy", ObservedEntity: "sunvalley"},
		},
		Edges: []bundle.TopologyEdge{
			{From: "pv1", Predicate: "feeds", To: "m1"},
			{From: "m1", Predicate: "belongs_to", To: "sunvalley"},
		},
	}
}

func TestResolveFullBundle(t *testing.T) {
	g, err := Resolve(testBundle(), testBase, PolicyStrict)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if g.CommunityKey != "sunvalley" {
		t.Fatalf("community key = %q", g.CommunityKey)
	}
	if g.Community.IRI != "https://reg.example.org/api/communities/sunvalley" {
		t.Fatalf("community iri = %q", g.Community.IRI)
	}
	if len(g.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", g.Warnings)
	}

	// Owner and site references resolve to the ids assigned in this pass.
	m := g.Meters[0]
	if m.OwnerParticipantID != g.Participants[0].ID {
		t.Fatal("meter owner not resolved to participant id")
	}
	if m.SiteID == nil || *m.SiteID != g.Sites[0].ID {
		t.Fatal("meter site not resolved")
	}

	a := g.Assets[0]
	if a.OwnerParticipantID != g.Participants[1].ID {
		t.Fatal("asset owner not resolved")
	}
	if a.MeterID == nil || *a.MeterID != m.ID {
		t.Fatal("asset meter not resolved")
	}

	// Time series discriminate between asset and community observation.
	if g.TimeSeries[0].ObservedKind != KindAsset || g.TimeSeries[0].ObservedAssetID == nil {
		t.Fatalf("asset timeseries = %+v", g.TimeSeries[0])
	}
	if g.TimeSeries[1].ObservedKind != KindCommunity || g.TimeSeries[1].ObservedAssetID != nil {
		t.Fatalf("community timeseries = %+v", g.TimeSeries[1])
	}

	// Edge endpoints are typed from the combined key table.
	e := g.Edges[1]
	if e.SrcType != KindMeter || e.DstType != KindCommunity {
		t.Fatalf("edge types = %s -> %s", e.SrcType, e.DstType)
	}

	want := map[string]int{
		CountParticipants: 2,
		CountMemberships:  1,
		CountSites:        1,
		CountMeters:       1,
		CountAssets:       1,
		CountTariffs:      1,
		CountTimeSeries:   2,
		CountEdges:        2,
	}
	if diff := cmp.Diff(want, g.InsertedCounts()); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveStrictDanglingOwner(t *testing.T) {
	b := testBundle()
	b.Meters[0].OwnerKey = "ghost"

	_, err := Resolve(b, testBase, PolicyStrict)
	var refErr *ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("Resolve error = %v, want ReferenceError", err)
	}
	if refErr.Kind != KindMeter || refErr.Key != "m1" || refErr.Field != "owner" || refErr.Ref != "ghost" {
		t.Fatalf("ReferenceError = %+v", refErr)
	}
	if !strings.Contains(err.Error(), "meter m1") || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("error message = %q", err.Error())
	}
}

func TestResolveLenientSkipsAndCascades(t *testing.T) {
	b := testBundle()
	b.Meters[0].OwnerKey = "ghost"

	g, err := Resolve(b, testBase, PolicyLenient)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// The meter is skipped, and the asset referencing it cascades out too.
	if len(g.Meters) != 0 {
		t.Fatalf("meters = %+v", g.Meters)
	}
	if len(g.Assets) != 0 {
		t.Fatalf("assets = %+v", g.Assets)
	}
	// Unrelated records are untouched.
	if len(g.Participants) != 2 || len(g.Sites) != 1 || len(g.Tariffs) != 1 {
		t.Fatal("unrelated records affected by skip")
	}

	if !slices.Contains(g.Warnings, "meter m1: unknown owner ghost; skipped") {
		t.Fatalf("warnings = %v", g.Warnings)
	}
	if !slices.Contains(g.Warnings, "asset pv1: unknown meter m1; skipped") {
		t.Fatalf("warnings = %v", g.Warnings)
	}
}

func TestResolveLenientMeterPlaceholder(t *testing.T) {
	b := testBundle()
	b.Meters[0].SensorID = ""

	g, err := Resolve(b, testBase, PolicyLenient)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(g.Meters) != 0 {
		t.Fatalf("placeholder meter kept: %+v", g.Meters)
	}
	found := false
	for _, w := range g.Warnings {
		if strings.Contains(w, "m1") && strings.Contains(w, "sensor_id") {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v", g.Warnings)
	}

	// Strict mode keeps the placeholder as regular content.
	g, err = Resolve(testBundleWithoutSensor(), testBase, PolicyStrict)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(g.Meters) != 1 {
		t.Fatalf("meters = %+v", g.Meters)
	}
}

func testBundleWithoutSensor() *bundle.Bundle {
	b := testBundle()
	b.Meters[0].SensorID = ""
	return b
}

func TestResolveStrictDanglingEdge(t *testing.T) {
	b := testBundle()
	b.Edges = append(b.Edges, bundle.TopologyEdge{From: "nowhere", Predicate: "feeds", To: "m1"})

	_, err := Resolve(b, testBase, PolicyStrict)
	var refErr *ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("Resolve error = %v, want ReferenceError", err)
	}
	if refErr.Field != "from" || refErr.Ref != "nowhere" {
		t.Fatalf("ReferenceError = %+v", refErr)
	}
}

func TestResolveExplicitIRIExpansion(t *testing.T) {
	b := testBundle()
	b.Context = bundle.Context{
		Base: "https://ids.example.org/",
	}
	b.Participants[0].IRI = "people/alice"

	g, err := Resolve(b, testBase, PolicyStrict)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if g.Participants[0].IRI != "https://ids.example.org/people/alice" {
		t.Fatalf("participant iri = %q", g.Participants[0].IRI)
	}
	// Records without an explicit identifier fall back to the API template.
	if g.Participants[1].IRI != "https://reg.example.org/api/communities/sunvalley/participants/coop" {
		t.Fatalf("participant iri = %q", g.Participants[1].IRI)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("", PolicyStrict)
	if err != nil || p != PolicyStrict {
		t.Fatalf("ParsePolicy(empty) = %v, %v", p, err)
	}
	p, err = ParsePolicy("lenient", PolicyStrict)
	if err != nil || p != PolicyLenient {
		t.Fatalf("ParsePolicy(lenient) = %v, %v", p, err)
	}
	if _, err := ParsePolicy("bogus", PolicyStrict); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
