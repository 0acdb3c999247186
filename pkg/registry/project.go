package registry

import (
	"github.com/google/uuid"

	"github.com/celine-eu/rec-registry/pkg/bundle"
	"github.com/celine-eu/rec-registry/pkg/iri"
)

// Linked-data type aliases, mapped in the served context document.
const (
	typeCommunity   = "Community"
	typeParticipant = "Participant"
	typeMembership  = "Membership"
	typeSite        = "Site"
	typeMeter       = "Meter"
	typeAsset       = "Asset"
	typeTariff      = "Tariff"
	typeTimeSeries  = "TimeSeries"
	typeEdge        = "TopologyEdge"
)

// BuildGraphDocument projects a stored community graph into a linked-data
// document: {"@context": ..., "@graph": [...]}. Node order follows the
// per-kind order of the snapshot, so two projections of the same stored graph
// serialize byte-identically. Surrogate ids never appear; every identifier is
// derived from base URL, community key and entity key (edges from their
// content tuple).
func BuildGraphDocument(base, version string, g *GraphData) map[string]any {
	ck := g.Community.Key

	entityID := func(collection, key string) string {
		return iri.EntityIRI(base, ck, collection, key)
	}

	graph := make([]map[string]any, 0,
		1+len(g.Participants)+len(g.Memberships)+len(g.Sites)+
			len(g.Meters)+len(g.Assets)+len(g.Tariffs)+len(g.TimeSeries)+len(g.Edges))

	communityNode := map[string]any{
		"@id":   iri.CommunityIRI(base, ck),
		"@type": typeCommunity,
		"name":  g.Community.Name,
	}
	if g.Community.Description != "" {
		communityNode["description"] = g.Community.Description
	}
	graph = append(graph, communityNode)

	participantKeys := make(map[uuid.UUID]string, len(g.Participants))
	for _, p := range g.Participants {
		participantKeys[p.ID] = p.Key
		node := map[string]any{
			"@id":   entityID("participants", p.Key),
			"@type": typeParticipant,
			"name":  p.Name,
			"kind":  p.Kind,
		}
		if p.AuthIRI != "" {
			node["authIdentity"] = p.AuthIRI
		}
		graph = append(graph, node)
	}

	for _, m := range g.Memberships {
		node := map[string]any{
			"@id":         entityID("memberships", m.Key),
			"@type":       typeMembership,
			"participant": entityID("participants", participantKeys[m.ParticipantID]),
		}
		if m.RoleIRI != "" {
			node["role"] = m.RoleIRI
		}
		if m.StatusIRI != "" {
			node["status"] = m.StatusIRI
		}
		if m.ValidFrom != "" {
			node["validFrom"] = m.ValidFrom
		}
		if m.ValidTo != "" {
			node["validTo"] = m.ValidTo
		}
		if m.VotingWeight != nil {
			node["votingWeight"] = *m.VotingWeight
		}
		graph = append(graph, node)
	}

	siteKeys := make(map[uuid.UUID]string, len(g.Sites))
	for _, s := range g.Sites {
		siteKeys[s.ID] = s.Key
		node := map[string]any{
			"@id":   entityID("sites", s.Key),
			"@type": typeSite,
			"name":  s.Name,
		}
		if s.Area != "" {
			node["area"] = s.Area
		}
		graph = append(graph, node)
	}

	meterKeys := make(map[uuid.UUID]string, len(g.Meters))
	for _, m := range g.Meters {
		meterKeys[m.ID] = m.Key
		node := map[string]any{
			"@id":   entityID("meters", m.Key),
			"@type": typeMeter,
			"name":  m.Name,
			"owner": entityID("participants", participantKeys[m.OwnerParticipantID]),
		}
		if m.SensorID != "" {
			node["sensorId"] = m.SensorID
		}
		if m.Pod != "" {
			node["podCode"] = m.Pod
		}
		if m.SiteID != nil {
			node["site"] = entityID("sites", siteKeys[*m.SiteID])
		}
		graph = append(graph, node)
	}

	assetKeys := make(map[uuid.UUID]string, len(g.Assets))
	for _, a := range g.Assets {
		assetKeys[a.ID] = a.Key
		node := map[string]any{
			"@id":   entityID("assets", a.Key),
			"@type": typeAsset,
			"name":  a.Name,
			"owner": entityID("participants", participantKeys[a.OwnerParticipantID]),
		}
		if a.AssetType != "" {
			node["assetType"] = a.AssetType
		}
		if a.CategoryIRI != "" {
			node["category"] = a.CategoryIRI
		}
		if a.SiteID != nil {
			node["site"] = entityID("sites", siteKeys[*a.SiteID])
		}
		if a.MeterID != nil {
			node["meter"] = entityID("meters", meterKeys[*a.MeterID])
		}
		if a.RatedPowerKW != nil {
			node["ratedPowerKw"] = *a.RatedPowerKW
		}
		if a.RatedEnergyKWh != nil {
			node["ratedEnergyKwh"] = *a.RatedEnergyKWh
		}
		graph = append(graph, node)
	}

	for _, t := range g.Tariffs {
		node := map[string]any{
			"@id":   entityID("tariffs", t.Key),
			"@type": typeTariff,
			"name":  t.Name,
		}
		if t.Currency != "" {
			node["currency"] = t.Currency
		}
		if t.Notes != "" {
			node["notes"] = t.Notes
		}
		graph = append(graph, node)
	}

	for _, ts := range g.TimeSeries {
		observed := iri.CommunityIRI(base, ck)
		if ts.ObservedKind == KindAsset && ts.ObservedAssetID != nil {
			observed = entityID("assets", assetKeys[*ts.ObservedAssetID])
		}
		node := map[string]any{
			"@id":            entityID("timeseries", ts.Key),
			"@type":          typeTimeSeries,
			"name":           ts.Name,
			"metric":         ts.Metric,
			"observedEntity": observed,
		}
		if ts.Unit != "" {
			node["unit"] = ts.Unit
		}
		graph = append(graph, node)
	}

	for _, e := range g.Edges {
		graph = append(graph, map[string]any{
			"@id":       entityID("topology/edges", bundle.ShortDigest(e.SrcKey, e.Predicate, e.DstKey)),
			"@type":     typeEdge,
			"from":      endpointIRI(base, ck, e.SrcType, e.SrcKey),
			"predicate": e.Predicate,
			"to":        endpointIRI(base, ck, e.DstType, e.DstKey),
		})
	}

	return map[string]any{
		"@context": iri.ContextIRI(base, version),
		"@graph":   graph,
	}
}

// CommunityNode renders one community summary as a linked-data node.
func CommunityNode(base string, s *CommunitySummary) map[string]any {
	node := map[string]any{
		"@id":    iri.CommunityIRI(base, s.Key),
		"@type":  typeCommunity,
		"key":    s.Key,
		"name":   s.Name,
		"counts": s.Counts,
	}
	if s.Description != "" {
		node["description"] = s.Description
	}
	return node
}

// BuildCommunityDocument wraps a single community summary with the served
// context, so GET /communities/:key dereferences to a linked-data resource.
func BuildCommunityDocument(base, version string, s *CommunitySummary) map[string]any {
	doc := CommunityNode(base, s)
	doc["@context"] = iri.ContextIRI(base, version)
	return doc
}

// BuildCommunityListDocument renders the community listing as a linked-data
// graph document in store order.
func BuildCommunityListDocument(base, version string, items []CommunitySummary) map[string]any {
	nodes := make([]map[string]any, len(items))
	for i := range items {
		nodes[i] = CommunityNode(base, &items[i])
	}
	return map[string]any{
		"@context": iri.ContextIRI(base, version),
		"@graph":   nodes,
	}
}

// endpointIRI resolves one edge endpoint. The community endpoint kind maps to
// the community identifier itself, every other kind to its collection.
func endpointIRI(base, communityKey, kind, key string) string {
	if kind == KindCommunity {
		return iri.CommunityIRI(base, communityKey)
	}
	collection, ok := collectionName[kind]
	if !ok {
		collection = "entities"
	}
	return iri.EntityIRI(base, communityKey, collection, key)
}
