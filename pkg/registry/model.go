package registry

import "github.com/google/uuid"

// Entity kind names as they appear in topology edge endpoints and
// time-series discriminators.
const (
	KindCommunity   = "community"
	KindParticipant = "participant"
	KindMembership  = "membership"
	KindSite        = "site"
	KindMeter       = "meter"
	KindAsset       = "asset"
	KindTariff      = "tariff"
	KindTimeSeries  = "timeseries"
)

// collectionName maps an entity kind to its API collection segment.
var collectionName = map[string]string{
	KindParticipant: "participants",
	KindMembership:  "memberships",
	KindSite:        "sites",
	KindMeter:       "meters",
	KindAsset:       "assets",
	KindTariff:      "tariffs",
	KindTimeSeries:  "timeseries",
}

// Count keys used in import reports, one per dependent entity kind.
const (
	CountParticipants = "participants"
	CountMemberships  = "memberships"
	CountSites        = "sites"
	CountMeters       = "meters"
	CountAssets       = "assets"
	CountTariffs      = "tariffs"
	CountTimeSeries   = "timeseries"
	CountEdges        = "topology_edges"
)

// Community is the root aggregate. Deleting a community deletes its whole
// subgraph; every replace regenerates all surrogate ids.
type Community struct {
	ID          uuid.UUID
	Key         string
	IRI         string
	Name        string
	Description string
	Extra       map[string]any
	ContentHash string
}

type Participant struct {
	ID          uuid.UUID
	CommunityID uuid.UUID
	Key         string
	IRI         string
	Kind        string
	Name        string
	AuthIRI     string
	Extra       map[string]any
}

type Site struct {
	ID          uuid.UUID
	CommunityID uuid.UUID
	Key         string
	IRI         string
	Name        string
	Area        string
	Extra       map[string]any
}

type Meter struct {
	ID                 uuid.UUID
	CommunityID        uuid.UUID
	OwnerParticipantID uuid.UUID
	SiteID             *uuid.UUID
	Key                string
	IRI                string
	SensorID           string
	Pod                string
	Name               string
	Extra              map[string]any
}

type Asset struct {
	ID                 uuid.UUID
	CommunityID        uuid.UUID
	OwnerParticipantID uuid.UUID
	SiteID             *uuid.UUID
	MeterID            *uuid.UUID
	Key                string
	IRI                string
	CategoryIRI        string
	AssetType          string
	Name               string
	RatedPowerKW       *float64
	RatedEnergyKWh     *float64
	Extra              map[string]any
}

type Membership struct {
	ID            uuid.UUID
	CommunityID   uuid.UUID
	ParticipantID uuid.UUID
	Key           string
	IRI           string
	RoleIRI       string
	StatusIRI     string
	ValidFrom     string
	ValidTo       string
	VotingWeight  *float64
	Extra         map[string]any
}

type Tariff struct {
	ID          uuid.UUID
	CommunityID uuid.UUID
	Key         string
	Name        string
	Currency    string
	Notes       string
	Extra       map[string]any
}

// TimeSeries is time-series metadata only; observed values live elsewhere.
// ObservedKind discriminates between the community itself and one asset.
type TimeSeries struct {
	ID              uuid.UUID
	CommunityID     uuid.UUID
	ObservedAssetID *uuid.UUID
	Key             string
	Name            string
	Metric          string
	Unit            string
	ObservedKind    string
	Extra           map[string]any
}

// TopologyEdge is a typed directed edge between two community-scoped keys.
// Endpoints are validated for existence at import time, nothing more.
type TopologyEdge struct {
	ID          uuid.UUID
	CommunityID uuid.UUID
	SrcKey      string
	SrcType     string
	Predicate   string
	DstKey      string
	DstType     string
}

// GraphData is one snapshot-consistent read of a full community graph, in
// deterministic per-kind order.
type GraphData struct {
	Community    Community
	Participants []Participant
	Memberships  []Membership
	Sites        []Site
	Meters       []Meter
	Assets       []Asset
	Tariffs      []Tariff
	TimeSeries   []TimeSeries
	Edges        []TopologyEdge
}
