package bundle

import (
	"fmt"
)

// ValidationError reports a malformed or missing required input field. It is
// raised before any storage mutation and rejects the whole request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bundle: %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Shape identifies which of the two supported input layouts a raw document
// uses.
type Shape string

const (
	// ShapeBundle is the richly-typed layout: a context block and
	// structured {kind, ref} owner references.
	ShapeBundle Shape = "bundle"
	// ShapeImportDoc is the simpler layout where every cross-reference is a
	// bare key string.
	ShapeImportDoc Shape = "import"
)

// DetectShape sniffs the layout of a raw document. A context block or a
// structured owner reference marks the rich bundle shape; everything else is
// treated as an import doc.
func DetectShape(raw map[string]any) Shape {
	if _, ok := raw["context"]; ok {
		return ShapeBundle
	}
	for _, section := range []string{"assets", "meters"} {
		for _, item := range asList(raw[section]) {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if _, isMap := rec["owner"].(map[string]any); isMap {
				return ShapeBundle
			}
			if _, ok := rec["located_at"]; ok {
				return ShapeBundle
			}
		}
	}
	return ShapeImportDoc
}

// Decode validates a raw document of either shape into the canonical Bundle.
func Decode(raw map[string]any) (*Bundle, error) {
	switch DetectShape(raw) {
	case ShapeBundle:
		return DecodeBundle(raw)
	default:
		return DecodeImportDoc(raw)
	}
}

// recognized field sets per record type: everything else lands in Extra.
var (
	communityFields   = fieldSet("key", "iri", "name", "description")
	participantFields = fieldSet("key", "iri", "kind", "name", "auth_iri")
	siteFields        = fieldSet("key", "iri", "name", "area")
	meterFields       = fieldSet("key", "iri", "name", "owner", "located_at", "site", "sensor_id", "pod", "pod_code", "datasets")
	assetFields       = fieldSet("key", "iri", "name", "owner", "located_at", "site", "meter", "category", "type", "asset_type", "rated_power_kw", "rated_energy_kwh", "datasets")
	membershipFields  = fieldSet("key", "iri", "participant", "participant_key", "role", "status", "valid_from", "valid_to", "voting_weight")
	tariffFields      = fieldSet("key", "name", "currency", "notes")
	timeseriesFields  = fieldSet("key", "name", "metric", "unit", "observed_entity")
)

func fieldSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// DecodeBundle validates the richly-typed bundle shape: an optional
// context{base, prefixes} block, owner references as {kind, ref} objects and
// site placement via located_at.
func DecodeBundle(raw map[string]any) (*Bundle, error) {
	b := &Bundle{}
	b.Context = decodeContext(asMap(raw["context"]))

	community, err := decodeCommunity(raw)
	if err != nil {
		return nil, err
	}
	b.Community = community

	for i, item := range asList(raw["participants"]) {
		rec, err := recordAt("participants", i, item)
		if err != nil {
			return nil, err
		}
		p, err := decodeParticipant(rec, i)
		if err != nil {
			return nil, err
		}
		b.Participants = append(b.Participants, p)
	}

	for i, item := range asList(raw["sites"]) {
		rec, err := recordAt("sites", i, item)
		if err != nil {
			return nil, err
		}
		s, err := decodeSite(rec, i)
		if err != nil {
			return nil, err
		}
		b.Sites = append(b.Sites, s)
	}

	for i, item := range asList(raw["meters"]) {
		rec, err := recordAt("meters", i, item)
		if err != nil {
			return nil, err
		}
		m, err := decodeMeter(rec, i)
		if err != nil {
			return nil, err
		}
		b.Meters = append(b.Meters, m)
	}

	for i, item := range asList(raw["assets"]) {
		rec, err := recordAt("assets", i, item)
		if err != nil {
			return nil, err
		}
		a, err := decodeAsset(rec, i)
		if err != nil {
			return nil, err
		}
		b.Assets = append(b.Assets, a)
	}

	if err := decodeSharedSections(raw, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DecodeImportDoc validates the simpler import-doc shape where owner, site,
// meter and participant references are bare key strings.
func DecodeImportDoc(raw map[string]any) (*Bundle, error) {
	// The import doc is a strict subset of the bundle layout once bare refs
	// are accepted, and the record decoders accept both spellings.
	return DecodeBundle(raw)
}

func decodeContext(m map[string]any) Context {
	ctx := Context{Prefixes: map[string]string{}}
	if m == nil {
		return ctx
	}
	ctx.Base = asString(m["base"])
	for k, v := range asMap(m["prefixes"]) {
		if s := asString(v); s != "" {
			ctx.Prefixes[k] = s
		}
	}
	return ctx
}

func decodeCommunity(raw map[string]any) (Community, error) {
	rec := asMap(raw["community"])
	if rec == nil {
		return Community{}, invalid("community", "missing required section")
	}
	key := asString(rec["key"])
	if key == "" {
		return Community{}, invalid("community.key", "required")
	}
	return Community{
		Key:         key,
		IRI:         asString(rec["iri"]),
		Name:        asString(rec["name"]),
		Description: asString(rec["description"]),
		Extra:       collectExtra(rec, communityFields),
	}, nil
}

func decodeParticipant(rec map[string]any, idx int) (Participant, error) {
	key := asString(rec["key"])
	if key == "" {
		return Participant{}, invalid(fmt.Sprintf("participants[%d].key", idx), "required")
	}
	return Participant{
		Key:     key,
		IRI:     asString(rec["iri"]),
		Kind:    asString(rec["kind"]),
		Name:    asString(rec["name"]),
		AuthIRI: asString(rec["auth_iri"]),
		Extra:   collectExtra(rec, participantFields),
	}, nil
}

func decodeSite(rec map[string]any, idx int) (Site, error) {
	key := asString(rec["key"])
	if key == "" {
		return Site{}, invalid(fmt.Sprintf("sites[%d].key", idx), "required")
	}
	return Site{
		Key:   key,
		IRI:   asString(rec["iri"]),
		Name:  asString(rec["name"]),
		Area:  asString(rec["area"]),
		Extra: collectExtra(rec, siteFields),
	}, nil
}

func decodeMeter(rec map[string]any, idx int) (Meter, error) {
	key := asString(rec["key"])
	if key == "" {
		return Meter{}, invalid(fmt.Sprintf("meters[%d].key", idx), "required")
	}
	owner, err := decodeRef(rec["owner"])
	if err != nil || owner == "" {
		return Meter{}, invalid(fmt.Sprintf("meters[%d].owner", idx), "required owner reference")
	}
	pod := asString(rec["pod"])
	if pod == "" {
		pod = asString(rec["pod_code"])
	}
	return Meter{
		Key:      key,
		IRI:      asString(rec["iri"]),
		OwnerKey: owner,
		SiteKey:  siteRef(rec),
		SensorID: asString(rec["sensor_id"]),
		Pod:      pod,
		Name:     asString(rec["name"]),
		Extra:    collectExtra(rec, meterFields),
	}, nil
}

func decodeAsset(rec map[string]any, idx int) (Asset, error) {
	key := asString(rec["key"])
	if key == "" {
		return Asset{}, invalid(fmt.Sprintf("assets[%d].key", idx), "required")
	}
	owner, err := decodeRef(rec["owner"])
	if err != nil || owner == "" {
		return Asset{}, invalid(fmt.Sprintf("assets[%d].owner", idx), "required owner reference")
	}
	assetType := asString(rec["type"])
	if assetType == "" {
		assetType = asString(rec["asset_type"])
	}
	return Asset{
		Key:            key,
		IRI:            asString(rec["iri"]),
		OwnerKey:       owner,
		SiteKey:        siteRef(rec),
		MeterKey:       asString(rec["meter"]),
		CategoryIRI:    asString(rec["category"]),
		AssetType:      assetType,
		Name:           asString(rec["name"]),
		RatedPowerKW:   asFloat(rec["rated_power_kw"]),
		RatedEnergyKWh: asFloat(rec["rated_energy_kwh"]),
		Extra:          collectExtra(rec, assetFields),
	}, nil
}

func decodeSharedSections(raw map[string]any, b *Bundle) error {
	for i, item := range asList(raw["memberships"]) {
		rec, err := recordAt("memberships", i, item)
		if err != nil {
			return err
		}
		participant := asString(rec["participant"])
		if participant == "" {
			participant = asString(rec["participant_key"])
		}
		if participant == "" {
			return invalid(fmt.Sprintf("memberships[%d].participant", i), "required participant reference")
		}
		key := asString(rec["key"])
		if key == "" {
			// Deterministic fallback: one membership per participant.
			key = "membership-" + participant
		}
		b.Memberships = append(b.Memberships, Membership{
			Key:            key,
			IRI:            asString(rec["iri"]),
			ParticipantKey: participant,
			RoleIRI:        asString(rec["role"]),
			StatusIRI:      asString(rec["status"]),
			ValidFrom:      asString(rec["valid_from"]),
			ValidTo:        asString(rec["valid_to"]),
			VotingWeight:   asFloat(rec["voting_weight"]),
			Extra:          collectExtra(rec, membershipFields),
		})
	}

	for i, item := range asList(raw["tariffs"]) {
		rec, err := recordAt("tariffs", i, item)
		if err != nil {
			return err
		}
		key := asString(rec["key"])
		if key == "" {
			return invalid(fmt.Sprintf("tariffs[%d].key", i), "required")
		}
		b.Tariffs = append(b.Tariffs, Tariff{
			Key:      key,
			Name:     asString(rec["name"]),
			Currency: asString(rec["currency"]),
			Notes:    asString(rec["notes"]),
			Extra:    collectExtra(rec, tariffFields),
		})
	}

	for i, item := range asList(raw["timeseries"]) {
		rec, err := recordAt("timeseries", i, item)
		if err != nil {
			return err
		}
		key := asString(rec["key"])
		if key == "" {
			return invalid(fmt.Sprintf("timeseries[%d].key", i), "required")
		}
		observed := asString(rec["observed_entity"])
		if observed == "" {
			return invalid(fmt.Sprintf("timeseries[%d].observed_entity", i), "required")
		}
		b.TimeSeries = append(b.TimeSeries, TimeSeries{
			Key:            key,
			Name:           asString(rec["name"]),
			Metric:         asString(rec["metric"]),
			Unit:           asString(rec["unit"]),
			ObservedEntity: observed,
			Extra:          collectExtra(rec, timeseriesFields),
		})
	}

	topology := asMap(raw["topology"])
	for i, item := range asList(topology["edges"]) {
		rec, err := recordAt("topology.edges", i, item)
		if err != nil {
			return err
		}
		from := asString(rec["from"])
		predicate := asString(rec["predicate"])
		to := asString(rec["to"])
		if from == "" || predicate == "" || to == "" {
			return invalid(fmt.Sprintf("topology.edges[%d]", i), "from, predicate and to are required")
		}
		b.Edges = append(b.Edges, TopologyEdge{From: from, Predicate: predicate, To: to})
	}

	return nil
}

// decodeRef accepts either a structured {kind, ref} reference object or a
// bare key string and returns the referenced key.
func decodeRef(v any) (string, error) {
	switch ref := v.(type) {
	case nil:
		return "", nil
	case string:
		return ref, nil
	case map[string]any:
		r := asString(ref["ref"])
		if r == "" {
			return "", fmt.Errorf("reference object without ref")
		}
		return r, nil
	default:
		return "", fmt.Errorf("unsupported reference type %T", v)
	}
}

// siteRef accepts both the bundle spelling (located_at) and the import-doc
// spelling (site).
func siteRef(rec map[string]any) string {
	if s := asString(rec["located_at"]); s != "" {
		return s
	}
	return asString(rec["site"])
}

func recordAt(section string, idx int, item any) (map[string]any, error) {
	rec, ok := item.(map[string]any)
	if !ok {
		return nil, invalid(fmt.Sprintf("%s[%d]", section, idx), "must be a mapping")
	}
	return rec, nil
}

// collectExtra preserves unrecognized fields of a record into its Extra map.
// Nil values are dropped so round-trips do not accumulate explicit nulls.
func collectExtra(rec map[string]any, known map[string]struct{}) map[string]any {
	extra := map[string]any{}
	for k, v := range rec {
		if _, ok := known[k]; ok {
			continue
		}
		if v == nil {
			continue
		}
		extra[k] = v
	}
	return extra
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func asFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case uint64:
		f := float64(n)
		return &f
	default:
		return nil
	}
}
