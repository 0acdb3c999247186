package registry

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/celine-eu/rec-registry/pkg/bundle"
	"github.com/celine-eu/rec-registry/pkg/iri"
)

// Policy selects how dangling references are handled during resolution.
type Policy string

const (
	// PolicyStrict aborts the whole import on the first dangling reference.
	PolicyStrict Policy = "strict"
	// PolicyLenient skips the referencing record and records a warning.
	PolicyLenient Policy = "lenient"
)

// ParsePolicy validates a policy name from request input. Empty input falls
// back to the given default.
func ParsePolicy(s string, fallback Policy) (Policy, error) {
	switch Policy(s) {
	case "":
		return fallback, nil
	case PolicyStrict, PolicyLenient:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown resolution policy %q", s)
	}
}

// ResolvedGraph is a bundle with every cross-reference turned into a
// resolved in-memory handle. Surrogate ids are already assigned, so dependent
// batches can be inserted without intermediate round-trips.
type ResolvedGraph struct {
	CommunityKey string
	ContentHash  string

	Community    Community
	Participants []Participant
	Sites        []Site
	Meters       []Meter
	Assets       []Asset
	Tariffs      []Tariff
	TimeSeries   []TimeSeries
	Memberships  []Membership
	Edges        []TopologyEdge

	Warnings []string
}

// Resolve builds lookup tables per entity kind in dependency order and
// resolves every symbolic reference of the bundle. Sections are processed in
// a fixed order because later sections reference earlier ones: community,
// participants, sites, meters, assets, tariffs, timeseries, memberships,
// topology edges.
//
// baseURL is the API base used for identifiers of records that do not carry
// an explicit one.
func Resolve(b *bundle.Bundle, baseURL string, policy Policy) (*ResolvedGraph, error) {
	r := &resolver{
		bundle:  b,
		baseURL: baseURL,
		policy:  policy,
		out: &ResolvedGraph{
			CommunityKey: b.Community.Key,
		},
		participantsByKey: map[string]uuid.UUID{},
		sitesByKey:        map[string]uuid.UUID{},
		metersByKey:       map[string]uuid.UUID{},
		assetsByKey:       map[string]uuid.UUID{},
	}
	if err := r.run(); err != nil {
		return nil, err
	}
	return r.out, nil
}

type resolver struct {
	bundle  *bundle.Bundle
	baseURL string
	policy  Policy
	out     *ResolvedGraph

	participantsByKey map[string]uuid.UUID
	sitesByKey        map[string]uuid.UUID
	metersByKey       map[string]uuid.UUID
	assetsByKey       map[string]uuid.UUID
}

func (r *resolver) run() error {
	if err := r.community(); err != nil {
		return err
	}
	if err := r.participants(); err != nil {
		return err
	}
	if err := r.sites(); err != nil {
		return err
	}
	if err := r.meters(); err != nil {
		return err
	}
	if err := r.assets(); err != nil {
		return err
	}
	r.tariffs()
	if err := r.timeseries(); err != nil {
		return err
	}
	if err := r.memberships(); err != nil {
		return err
	}
	return r.edges()
}

// skip handles one dangling reference according to the active policy.
// Returns nil when the record should be skipped, the error itself otherwise.
func (r *resolver) skip(refErr *ReferenceError) error {
	if r.policy == PolicyLenient {
		r.out.Warnings = append(r.out.Warnings, refErr.warning())
		return nil
	}
	return refErr
}

// expand resolves an explicit identifier token through the bundle context,
// falling back to the computed API identifier when no token is given.
func (r *resolver) expand(token, fallback string) (string, error) {
	if token == "" {
		return fallback, nil
	}
	expanded, err := iri.Expand(token, r.bundle.Context.Base, r.bundle.Context.Prefixes)
	if err != nil {
		return "", &bundle.ValidationError{Field: "iri", Reason: err.Error()}
	}
	return expanded, nil
}

// expandOptional expands vocabulary tokens (roles, statuses, categories).
// Empty tokens stay empty.
func (r *resolver) expandOptional(token string) string {
	if token == "" {
		return ""
	}
	expanded, err := iri.Expand(token, r.bundle.Context.Base, r.bundle.Context.Prefixes)
	if err != nil {
		return token
	}
	return expanded
}

func (r *resolver) community() error {
	c := r.bundle.Community
	id := uuid.New()
	communityIRI, err := r.expand(c.IRI, iri.CommunityIRI(r.baseURL, c.Key))
	if err != nil {
		return err
	}
	r.out.Community = Community{
		ID:          id,
		Key:         c.Key,
		IRI:         communityIRI,
		Name:        c.Name,
		Description: c.Description,
		Extra:       c.Extra,
	}
	return nil
}

func (r *resolver) entityIRI(explicit, kind, key string) (string, error) {
	return r.expand(explicit, iri.EntityIRI(r.baseURL, r.out.CommunityKey, collectionName[kind], key))
}

func (r *resolver) participants() error {
	cid := r.out.Community.ID
	for _, p := range r.bundle.Participants {
		id := uuid.New()
		pIRI, err := r.entityIRI(p.IRI, KindParticipant, p.Key)
		if err != nil {
			return err
		}
		r.out.Participants = append(r.out.Participants, Participant{
			ID:          id,
			CommunityID: cid,
			Key:         p.Key,
			IRI:         pIRI,
			Kind:        p.Kind,
			Name:        p.Name,
			AuthIRI:     r.expandOptional(p.AuthIRI),
			Extra:       p.Extra,
		})
		r.participantsByKey[p.Key] = id
	}
	return nil
}

func (r *resolver) sites() error {
	cid := r.out.Community.ID
	for _, s := range r.bundle.Sites {
		id := uuid.New()
		sIRI, err := r.entityIRI(s.IRI, KindSite, s.Key)
		if err != nil {
			return err
		}
		r.out.Sites = append(r.out.Sites, Site{
			ID:          id,
			CommunityID: cid,
			Key:         s.Key,
			IRI:         sIRI,
			Name:        s.Name,
			Area:        s.Area,
			Extra:       s.Extra,
		})
		r.sitesByKey[s.Key] = id
	}
	return nil
}

func (r *resolver) meters() error {
	cid := r.out.Community.ID
	for _, m := range r.bundle.Meters {
		// Placeholder filter: a meter without an external sensor id is not
		// importable content under the lenient policy.
		if m.SensorID == "" && r.policy == PolicyLenient {
			r.out.Warnings = append(r.out.Warnings,
				fmt.Sprintf("meter %s: missing sensor_id; skipped placeholder", m.Key))
			continue
		}

		ownerID, ok := r.participantsByKey[m.OwnerKey]
		if !ok {
			if err := r.skip(&ReferenceError{Kind: KindMeter, Key: m.Key, Field: "owner", Ref: m.OwnerKey}); err != nil {
				return err
			}
			continue
		}

		var siteID *uuid.UUID
		if m.SiteKey != "" {
			sid, ok := r.sitesByKey[m.SiteKey]
			if !ok {
				if err := r.skip(&ReferenceError{Kind: KindMeter, Key: m.Key, Field: "site", Ref: m.SiteKey}); err != nil {
					return err
				}
				continue
			}
			siteID = &sid
		}

		id := uuid.New()
		mIRI, err := r.entityIRI(m.IRI, KindMeter, m.Key)
		if err != nil {
			return err
		}
		r.out.Meters = append(r.out.Meters, Meter{
			ID:                 id,
			CommunityID:        cid,
			OwnerParticipantID: ownerID,
			SiteID:             siteID,
			Key:                m.Key,
			IRI:                mIRI,
			SensorID:           m.SensorID,
			Pod:                m.Pod,
			Name:               m.Name,
			Extra:              m.Extra,
		})
		r.metersByKey[m.Key] = id
	}
	return nil
}

func (r *resolver) assets() error {
	cid := r.out.Community.ID
	for _, a := range r.bundle.Assets {
		ownerID, ok := r.participantsByKey[a.OwnerKey]
		if !ok {
			if err := r.skip(&ReferenceError{Kind: KindAsset, Key: a.Key, Field: "owner", Ref: a.OwnerKey}); err != nil {
				return err
			}
			continue
		}

		var siteID *uuid.UUID
		if a.SiteKey != "" {
			sid, ok := r.sitesByKey[a.SiteKey]
			if !ok {
				if err := r.skip(&ReferenceError{Kind: KindAsset, Key: a.Key, Field: "site", Ref: a.SiteKey}); err != nil {
					return err
				}
				continue
			}
			siteID = &sid
		}

		var meterID *uuid.UUID
		if a.MeterKey != "" {
			mid, ok := r.metersByKey[a.MeterKey]
			if !ok {
				if err := r.skip(&ReferenceError{Kind: KindAsset, Key: a.Key, Field: "meter", Ref: a.MeterKey}); err != nil {
					return err
				}
				continue
			}
			meterID = &mid
		}

		id := uuid.New()
		aIRI, err := r.entityIRI(a.IRI, KindAsset, a.Key)
		if err != nil {
			return err
		}
		r.out.Assets = append(r.out.Assets, Asset{
			ID:                 id,
			CommunityID:        cid,
			OwnerParticipantID: ownerID,
			SiteID:             siteID,
			MeterID:            meterID,
			Key:                a.Key,
			IRI:                aIRI,
			CategoryIRI:        r.expandOptional(a.CategoryIRI),
			AssetType:          a.AssetType,
			Name:               a.Name,
			RatedPowerKW:       a.RatedPowerKW,
			RatedEnergyKWh:     a.RatedEnergyKWh,
			Extra:              a.Extra,
		})
		r.assetsByKey[a.Key] = id
	}
	return nil
}

func (r *resolver) tariffs() {
	cid := r.out.Community.ID
	for _, t := range r.bundle.Tariffs {
		r.out.Tariffs = append(r.out.Tariffs, Tariff{
			ID:          uuid.New(),
			CommunityID: cid,
			Key:         t.Key,
			Name:        t.Name,
			Currency:    t.Currency,
			Notes:       t.Notes,
			Extra:       t.Extra,
		})
	}
}

func (r *resolver) timeseries() error {
	cid := r.out.Community.ID
	for _, ts := range r.bundle.TimeSeries {
		observedKind := KindAsset
		var observedAssetID *uuid.UUID
		if ts.ObservedEntity == r.out.CommunityKey {
			observedKind = KindCommunity
		} else {
			aid, ok := r.assetsByKey[ts.ObservedEntity]
			if !ok {
				if err := r.skip(&ReferenceError{Kind: KindTimeSeries, Key: ts.Key, Field: "observed_entity", Ref: ts.ObservedEntity}); err != nil {
					return err
				}
				continue
			}
			observedAssetID = &aid
		}
		r.out.TimeSeries = append(r.out.TimeSeries, TimeSeries{
			ID:              uuid.New(),
			CommunityID:     cid,
			ObservedAssetID: observedAssetID,
			Key:             ts.Key,
			Name:            ts.Name,
			Metric:          ts.Metric,
			Unit:            ts.Unit,
			ObservedKind:    observedKind,
			Extra:           ts.Extra,
		})
	}
	return nil
}

func (r *resolver) memberships() error {
	cid := r.out.Community.ID
	for _, m := range r.bundle.Memberships {
		participantID, ok := r.participantsByKey[m.ParticipantKey]
		if !ok {
			if err := r.skip(&ReferenceError{Kind: KindMembership, Key: m.Key, Field: "participant", Ref: m.ParticipantKey}); err != nil {
				return err
			}
			continue
		}
		mIRI, err := r.entityIRI(m.IRI, KindMembership, m.Key)
		if err != nil {
			return err
		}
		r.out.Memberships = append(r.out.Memberships, Membership{
			ID:            uuid.New(),
			CommunityID:   cid,
			ParticipantID: participantID,
			Key:           m.Key,
			IRI:           mIRI,
			RoleIRI:       r.expandOptional(m.RoleIRI),
			StatusIRI:     r.expandOptional(m.StatusIRI),
			ValidFrom:     m.ValidFrom,
			ValidTo:       m.ValidTo,
			VotingWeight:  m.VotingWeight,
			Extra:         m.Extra,
		})
	}
	return nil
}

// edges resolves topology endpoints against the combined key table of every
// entity kind resolved in this same import. Edges can only reference what the
// bundle itself brought in, never prior stored state.
func (r *resolver) edges() error {
	known := map[string]string{r.out.CommunityKey: KindCommunity}
	for _, p := range r.out.Participants {
		known[p.Key] = KindParticipant
	}
	for _, s := range r.out.Sites {
		known[s.Key] = KindSite
	}
	for _, m := range r.out.Meters {
		known[m.Key] = KindMeter
	}
	for _, a := range r.out.Assets {
		known[a.Key] = KindAsset
	}
	for _, t := range r.out.Tariffs {
		known[t.Key] = KindTariff
	}
	for _, ts := range r.out.TimeSeries {
		known[ts.Key] = KindTimeSeries
	}
	for _, m := range r.out.Memberships {
		known[m.Key] = KindMembership
	}

	cid := r.out.Community.ID
	for _, e := range r.bundle.Edges {
		srcType, ok := known[e.From]
		if !ok {
			if err := r.skip(&ReferenceError{Kind: "topology edge", Key: e.Predicate, Field: "from", Ref: e.From}); err != nil {
				return err
			}
			continue
		}
		dstType, ok := known[e.To]
		if !ok {
			if err := r.skip(&ReferenceError{Kind: "topology edge", Key: e.Predicate, Field: "to", Ref: e.To}); err != nil {
				return err
			}
			continue
		}
		r.out.Edges = append(r.out.Edges, TopologyEdge{
			ID:          uuid.New(),
			CommunityID: cid,
			SrcKey:      e.From,
			SrcType:     srcType,
			Predicate:   e.Predicate,
			DstKey:      e.To,
			DstType:     dstType,
		})
	}
	return nil
}
