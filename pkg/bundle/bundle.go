package bundle

// Context carries the identifier expansion context of a bundle: an optional
// base for relative identifiers and a prefix map for CURIE-style tokens.
type Context struct {
	Base     string
	Prefixes map[string]string
}

// Community is the root record of a bundle.
type Community struct {
	Key         string
	IRI         string
	Name        string
	Description string
	Extra       map[string]any
}

// Participant is a member organization or individual of a community.
type Participant struct {
	Key     string
	IRI     string
	Kind    string
	Name    string
	AuthIRI string
	Extra   map[string]any
}

// Site is a physical location within a community.
type Site struct {
	Key   string
	IRI   string
	Name  string
	Area  string
	Extra map[string]any
}

// Meter is a metering point owned by a participant, optionally placed at a
// site. A meter without a SensorID is a placeholder: it carries no external
// operator identifier yet.
type Meter struct {
	Key      string
	IRI      string
	OwnerKey string
	SiteKey  string
	SensorID string
	Pod      string
	Name     string
	Extra    map[string]any
}

// Asset is an energy asset (PV, battery, load, ...) owned by a participant.
type Asset struct {
	Key            string
	IRI            string
	OwnerKey       string
	SiteKey        string
	MeterKey       string
	CategoryIRI    string
	AssetType      string
	Name           string
	RatedPowerKW   *float64
	RatedEnergyKWh *float64
	Extra          map[string]any
}

// Membership links exactly one participant to the community.
type Membership struct {
	Key            string
	IRI            string
	ParticipantKey string
	RoleIRI        string
	StatusIRI      string
	ValidFrom      string
	ValidTo        string
	VotingWeight   *float64
	Extra          map[string]any
}

// Tariff is a pricing scheme of the community.
type Tariff struct {
	Key      string
	Name     string
	Currency string
	Notes    string
	Extra    map[string]any
}

// TimeSeries is time-series metadata observing either the community itself
// or one of its assets. ObservedEntity holds the referenced key; the
// discrimination happens during resolution.
type TimeSeries struct {
	Key            string
	Name           string
	Metric         string
	Unit           string
	ObservedEntity string
	Extra          map[string]any
}

// TopologyEdge is a free-form directed edge between two bundle keys.
type TopologyEdge struct {
	From      string
	Predicate string
	To        string
}

// Bundle is the canonical in-memory form of one community import document.
// Both input shapes (rich bundle and simple import doc) validate into this.
type Bundle struct {
	Context      Context
	Community    Community
	Participants []Participant
	Sites        []Site
	Meters       []Meter
	Assets       []Asset
	Memberships  []Membership
	Tariffs      []Tariff
	TimeSeries   []TimeSeries
	Edges        []TopologyEdge
}
