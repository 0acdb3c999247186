package registry

// ImportReport is the result of one replacement import.
type ImportReport struct {
	CommunityKey string         `json:"community_key"`
	Deleted      map[string]int `json:"deleted"`
	Inserted     map[string]int `json:"inserted"`
	Warnings     []string       `json:"warnings"`
}

func emptyCounts() map[string]int {
	return map[string]int{}
}

// InsertedCounts tallies a resolved graph by dependent entity kind.
func (g *ResolvedGraph) InsertedCounts() map[string]int {
	return map[string]int{
		CountParticipants: len(g.Participants),
		CountMemberships:  len(g.Memberships),
		CountSites:        len(g.Sites),
		CountMeters:       len(g.Meters),
		CountAssets:       len(g.Assets),
		CountTariffs:      len(g.Tariffs),
		CountTimeSeries:   len(g.TimeSeries),
		CountEdges:        len(g.Edges),
	}
}
