package registry

import "github.com/google/uuid"

// BuildBundleDoc renders a stored community graph back into the rich bundle
// shape, ready for YAML serialization. The document decodes and resolves back
// into the same graph: references are emitted in the spellings the decoder
// accepts and unknown input fields come back out of Extra.
func BuildBundleDoc(g *GraphData) map[string]any {
	participantKeys := make(map[uuid.UUID]string, len(g.Participants))
	for _, p := range g.Participants {
		participantKeys[p.ID] = p.Key
	}
	siteKeys := make(map[uuid.UUID]string, len(g.Sites))
	for _, s := range g.Sites {
		siteKeys[s.ID] = s.Key
	}
	meterKeys := make(map[uuid.UUID]string, len(g.Meters))
	for _, m := range g.Meters {
		meterKeys[m.ID] = m.Key
	}
	assetKeys := make(map[uuid.UUID]string, len(g.Assets))
	for _, a := range g.Assets {
		assetKeys[a.ID] = a.Key
	}

	ownerRef := func(id uuid.UUID) map[string]any {
		return map[string]any{"kind": KindParticipant, "ref": participantKeys[id]}
	}

	doc := map[string]any{
		// Exports always carry absolute identifiers, so no expansion context
		// is needed to re-import them.
		"context": map[string]any{
			"base":     nil,
			"prefixes": map[string]any{},
		},
	}

	community := map[string]any{
		"key":  g.Community.Key,
		"name": g.Community.Name,
	}
	setIfNotEmpty(community, "iri", g.Community.IRI)
	setIfNotEmpty(community, "description", g.Community.Description)
	mergeExtra(community, g.Community.Extra)
	doc["community"] = community

	if len(g.Participants) > 0 {
		items := make([]any, 0, len(g.Participants))
		for _, p := range g.Participants {
			rec := map[string]any{"key": p.Key}
			setIfNotEmpty(rec, "iri", p.IRI)
			setIfNotEmpty(rec, "kind", p.Kind)
			setIfNotEmpty(rec, "name", p.Name)
			setIfNotEmpty(rec, "auth_iri", p.AuthIRI)
			mergeExtra(rec, p.Extra)
			items = append(items, rec)
		}
		doc["participants"] = items
	}

	if len(g.Memberships) > 0 {
		items := make([]any, 0, len(g.Memberships))
		for _, m := range g.Memberships {
			rec := map[string]any{
				"key":         m.Key,
				"participant": participantKeys[m.ParticipantID],
			}
			setIfNotEmpty(rec, "iri", m.IRI)
			setIfNotEmpty(rec, "role", m.RoleIRI)
			setIfNotEmpty(rec, "status", m.StatusIRI)
			setIfNotEmpty(rec, "valid_from", m.ValidFrom)
			setIfNotEmpty(rec, "valid_to", m.ValidTo)
			if m.VotingWeight != nil {
				rec["voting_weight"] = *m.VotingWeight
			}
			mergeExtra(rec, m.Extra)
			items = append(items, rec)
		}
		doc["memberships"] = items
	}

	if len(g.Sites) > 0 {
		items := make([]any, 0, len(g.Sites))
		for _, s := range g.Sites {
			rec := map[string]any{"key": s.Key}
			setIfNotEmpty(rec, "iri", s.IRI)
			setIfNotEmpty(rec, "name", s.Name)
			setIfNotEmpty(rec, "area", s.Area)
			mergeExtra(rec, s.Extra)
			items = append(items, rec)
		}
		doc["sites"] = items
	}

	if len(g.Meters) > 0 {
		items := make([]any, 0, len(g.Meters))
		for _, m := range g.Meters {
			rec := map[string]any{
				"key":   m.Key,
				"owner": ownerRef(m.OwnerParticipantID),
			}
			setIfNotEmpty(rec, "iri", m.IRI)
			setIfNotEmpty(rec, "name", m.Name)
			setIfNotEmpty(rec, "sensor_id", m.SensorID)
			setIfNotEmpty(rec, "pod", m.Pod)
			if m.SiteID != nil {
				rec["located_at"] = siteKeys[*m.SiteID]
			}
			mergeExtra(rec, m.Extra)
			items = append(items, rec)
		}
		doc["meters"] = items
	}

	if len(g.Assets) > 0 {
		items := make([]any, 0, len(g.Assets))
		for _, a := range g.Assets {
			rec := map[string]any{
				"key":   a.Key,
				"owner": ownerRef(a.OwnerParticipantID),
			}
			setIfNotEmpty(rec, "iri", a.IRI)
			setIfNotEmpty(rec, "name", a.Name)
			setIfNotEmpty(rec, "category", a.CategoryIRI)
			setIfNotEmpty(rec, "type", a.AssetType)
			if a.SiteID != nil {
				rec["located_at"] = siteKeys[*a.SiteID]
			}
			if a.MeterID != nil {
				rec["meter"] = meterKeys[*a.MeterID]
			}
			if a.RatedPowerKW != nil {
				rec["rated_power_kw"] = *a.RatedPowerKW
			}
			if a.RatedEnergyKWh != nil {
				rec["rated_energy_kwh"] = *a.RatedEnergyKWh
			}
			mergeExtra(rec, a.Extra)
			items = append(items, rec)
		}
		doc["assets"] = items
	}

	if len(g.Tariffs) > 0 {
		items := make([]any, 0, len(g.Tariffs))
		for _, t := range g.Tariffs {
			rec := map[string]any{"key": t.Key}
			setIfNotEmpty(rec, "name", t.Name)
			setIfNotEmpty(rec, "currency", t.Currency)
			setIfNotEmpty(rec, "notes", t.Notes)
			mergeExtra(rec, t.Extra)
			items = append(items, rec)
		}
		doc["tariffs"] = items
	}

	if len(g.TimeSeries) > 0 {
		items := make([]any, 0, len(g.TimeSeries))
		for _, ts := range g.TimeSeries {
			observed := g.Community.Key
			if ts.ObservedKind == KindAsset && ts.ObservedAssetID != nil {
				observed = assetKeys[*ts.ObservedAssetID]
			}
			rec := map[string]any{
				"key":             ts.Key,
				"observed_entity": observed,
			}
			setIfNotEmpty(rec, "name", ts.Name)
			setIfNotEmpty(rec, "metric", ts.Metric)
			setIfNotEmpty(rec, "unit", ts.Unit)
			mergeExtra(rec, ts.Extra)
			items = append(items, rec)
		}
		doc["timeseries"] = items
	}

	if len(g.Edges) > 0 {
		edges := make([]any, 0, len(g.Edges))
		for _, e := range g.Edges {
			edges = append(edges, map[string]any{
				"from":      e.SrcKey,
				"predicate": e.Predicate,
				"to":        e.DstKey,
			})
		}
		doc["topology"] = map[string]any{"edges": edges}
	}

	return doc
}

func setIfNotEmpty(rec map[string]any, field, value string) {
	if value != "" {
		rec[field] = value
	}
}

func mergeExtra(rec map[string]any, extra map[string]any) {
	for k, v := range extra {
		if _, taken := rec[k]; taken {
			continue
		}
		rec[k] = v
	}
}
