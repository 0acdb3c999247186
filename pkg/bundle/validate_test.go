package bundle

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func richDoc() map[string]any {
	return map[string]any{
		"context": map[string]any{
			"base": "https://vocab.example.org/",
			"prefixes": map[string]any{
				"role": "https://vocab.example.org/roles/",
			},
		},
		"community": map[string]any{
			"key":     "sunvalley",
			"name":    "Sun Valley REC",
			"website": "https://sunvalley.example.org",
		},
		"participants": []any{
			map[string]any{"key": "alice", "name": "Alice", "kind": "person"},
			map[string]any{"key": "coop", "name": "Coop", "kind": "organization"},
		},
		"sites": []any{
			map[string]any{"key": "hall", "name": "Town hall"},
		},
		"meters": []any{
			map[string]any{
				"key":        "m1",
				"owner":      map[string]any{"kind": "participant", "ref": "alice"},
				"located_at": "hall",
				"sensor_id":  "SR-100",
				"pod":        "IT001E123",
			},
		},
		"assets": []any{
			map[string]any{
				"key":            "pv1",
				"owner":          map[string]any{"kind": "participant", "ref": "coop"},
				"located_at":     "hall",
				"meter":          "m1",
				"type":           "pv",
				"rated_power_kw": 12.5,
			},
		},
		"memberships": []any{
			map[string]any{"participant": "alice", "role": "member"},
		},
		"topology": map[string]any{
			"edges": []any{
				map[string]any{"from": "pv1", "predicate": "feeds", "to": "m1"},
			},
		},
	}
}

func TestDetectShape(t *testing.T) {
	if got := DetectShape(richDoc()); got != ShapeBundle {
		t.Fatalf("DetectShape(rich) = %q, want %q", got, ShapeBundle)
	}

	simple := map[string]any{
		"community": map[string]any{"key": "k"},
		"meters": []any{
			map[string]any{"key": "m1", "owner": "alice", "site": "hall"},
		},
	}
	if got := DetectShape(simple); got != ShapeImportDoc {
		t.Fatalf("DetectShape(simple) = %q, want %q", got, ShapeImportDoc)
	}

	// located_at marks the rich shape even without a context block.
	located := map[string]any{
		"community": map[string]any{"key": "k"},
		"meters": []any{
			map[string]any{"key": "m1", "owner": "alice", "located_at": "hall"},
		},
	}
	if got := DetectShape(located); got != ShapeBundle {
		t.Fatalf("DetectShape(located_at) = %q, want %q", got, ShapeBundle)
	}
}

func TestDecodeRichBundle(t *testing.T) {
	b, err := Decode(richDoc())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if b.Context.Base != "https://vocab.example.org/" {
		t.Fatalf("context base = %q", b.Context.Base)
	}
	if b.Context.Prefixes["role"] != "https://vocab.example.org/roles/" {
		t.Fatalf("context prefixes = %v", b.Context.Prefixes)
	}

	if b.Community.Key != "sunvalley" || b.Community.Name != "Sun Valley REC" {
		t.Fatalf("community = %+v", b.Community)
	}
	// Unknown fields land in Extra.
	if diff := cmp.Diff(map[string]any{"website": "https://sunvalley.example.org"}, b.Community.Extra); diff != "" {
		t.Fatalf("community extra mismatch (-want +got):\n%s", diff)
	}

	if len(b.Participants) != 2 || b.Participants[0].Key != "alice" {
		t.Fatalf("participants = %+v", b.Participants)
	}

	m := b.Meters[0]
	if m.OwnerKey != "alice" || m.SiteKey != "hall" || m.SensorID != "SR-100" || m.Pod != "IT001E123" {
		t.Fatalf("meter = %+v", m)
	}

	a := b.Assets[0]
	if a.OwnerKey != "coop" || a.SiteKey != "hall" || a.MeterKey != "m1" || a.AssetType != "pv" {
		t.Fatalf("asset = %+v", a)
	}
	if a.RatedPowerKW == nil || *a.RatedPowerKW != 12.5 {
		t.Fatalf("asset rated power = %v", a.RatedPowerKW)
	}

	// Membership without an explicit key gets a deterministic one.
	ms := b.Memberships[0]
	if ms.Key != "membership-alice" || ms.ParticipantKey != "alice" || ms.RoleIRI != "member" {
		t.Fatalf("membership = %+v", ms)
	}

	e := b.Edges[0]
	if e.From != "pv1" || e.Predicate != "feeds" || e.To != "m1" {
		t.Fatalf("edge = %+v", e)
	}
}

func TestDecodeImportDocBareRefs(t *testing.T) {
	doc := map[string]any{
		"community": map[string]any{"key": "k", "name": "K"},
		"participants": []any{
			map[string]any{"key": "p1"},
		},
		"sites": []any{
			map[string]any{"key": "s1"},
		},
		"meters": []any{
			map[string]any{"key": "m1", "owner": "p1", "site": "s1", "pod_code": "POD-9"},
		},
		"assets": []any{
			map[string]any{"key": "a1", "owner": "p1", "site": "s1", "asset_type": "battery"},
		},
		"memberships": []any{
			map[string]any{"key": "mb1", "participant_key": "p1"},
		},
	}

	b, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b.Meters[0].OwnerKey != "p1" || b.Meters[0].SiteKey != "s1" {
		t.Fatalf("meter refs = %+v", b.Meters[0])
	}
	// pod_code is the alternate spelling of pod.
	if b.Meters[0].Pod != "POD-9" {
		t.Fatalf("meter pod = %q", b.Meters[0].Pod)
	}
	if b.Assets[0].AssetType != "battery" {
		t.Fatalf("asset type = %q", b.Assets[0].AssetType)
	}
	if b.Memberships[0].Key != "mb1" || b.Memberships[0].ParticipantKey != "p1" {
		t.Fatalf("membership = %+v", b.Memberships[0])
	}
}

func TestDecodeRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		doc   map[string]any
		field string
	}{
		{
			name:  "missing community",
			doc:   map[string]any{},
			field: "community",
		},
		{
			name: "missing community key",
			doc: map[string]any{
				"community": map[string]any{"name": "X"},
			},
			field: "community.key",
		},
		{
			name: "meter without owner",
			doc: map[string]any{
				"community": map[string]any{"key": "k"},
				"meters":    []any{map[string]any{"key": "m1"}},
			},
			field: "meters[0].owner",
		},
		{
			name: "membership without participant",
			doc: map[string]any{
				"community":   map[string]any{"key": "k"},
				"memberships": []any{map[string]any{"role": "member"}},
			},
			field: "memberships[0].participant",
		},
		{
			name: "timeseries without observed entity",
			doc: map[string]any{
				"community":  map[string]any{"key": "k"},
				"timeseries": []any{map[string]any{"key": "ts1"}},
			},
			field: "timeseries[0].observed_entity",
		},
		{
			name: "edge missing endpoint",
			doc: map[string]any{
				"community": map[string]any{"key": "k"},
				"topology": map[string]any{
					"edges": []any{map[string]any{"from": "a", "predicate": "feeds"}},
				},
			},
			field: "topology.edges[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.doc)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Decode error = %v, want ValidationError", err)
			}
			if vErr.Field != tt.field {
				t.Fatalf("ValidationError field = %q, want %q", vErr.Field, tt.field)
			}
		})
	}
}

func TestCollectExtraDropsNulls(t *testing.T) {
	doc := map[string]any{
		"community": map[string]any{
			"key":      "k",
			"nickname": "sunny",
			"legacy":   nil,
		},
	}
	b, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, ok := b.Community.Extra["legacy"]; ok {
		t.Fatal("null extra value should be dropped")
	}
	if b.Community.Extra["nickname"] != "sunny" {
		t.Fatalf("extra = %v", b.Community.Extra)
	}
}
