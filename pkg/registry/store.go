package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

// DB is the connection surface the store needs. *pgxpool.Pool satisfies it;
// tests substitute an in-memory fake.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists community graphs in Postgres. All writes go through
// Replace; there is no partial update surface.
type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

// ReplaceOptions tune one replacement import.
type ReplaceOptions struct {
	// DryRun computes the report without touching stored state.
	DryRun bool
	// SkipUnchanged short-circuits when the stored content hash matches the
	// incoming one.
	SkipUnchanged bool
}

// deleteStatements in deepest-first order, so no delete ever breaks a
// foreign key of a row still standing.
var deleteStatements = []struct {
	count string
	sql   string
}{
	{CountEdges, `DELETE FROM topology_edges WHERE community_id = $1`},
	{CountTimeSeries, `DELETE FROM timeseries WHERE community_id = $1`},
	{CountTariffs, `DELETE FROM tariffs WHERE community_id = $1`},
	{CountAssets, `DELETE FROM assets WHERE community_id = $1`},
	{CountMeters, `DELETE FROM meters WHERE community_id = $1`},
	{CountSites, `DELETE FROM sites WHERE community_id = $1`},
	{CountMemberships, `DELETE FROM memberships WHERE community_id = $1`},
	{CountParticipants, `DELETE FROM participants WHERE community_id = $1`},
}

// countStatements mirror deleteStatements for dry runs and list counts.
var countStatements = []struct {
	count string
	sql   string
}{
	{CountParticipants, `SELECT count(*) FROM participants WHERE community_id = $1`},
	{CountMemberships, `SELECT count(*) FROM memberships WHERE community_id = $1`},
	{CountSites, `SELECT count(*) FROM sites WHERE community_id = $1`},
	{CountMeters, `SELECT count(*) FROM meters WHERE community_id = $1`},
	{CountAssets, `SELECT count(*) FROM assets WHERE community_id = $1`},
	{CountTariffs, `SELECT count(*) FROM tariffs WHERE community_id = $1`},
	{CountTimeSeries, `SELECT count(*) FROM timeseries WHERE community_id = $1`},
	{CountEdges, `SELECT count(*) FROM topology_edges WHERE community_id = $1`},
}

// Replace atomically swaps the stored graph of the community in g. The
// previous subgraph is deleted deepest-first, the new one inserted in
// dependency order, all inside one transaction.
func (s *Store) Replace(ctx context.Context, g *ResolvedGraph, opts ReplaceOptions) (*ImportReport, error) {
	report := &ImportReport{
		CommunityKey: g.CommunityKey,
		Deleted:      emptyCounts(),
		Inserted:     emptyCounts(),
		Warnings:     g.Warnings,
	}
	if report.Warnings == nil {
		report.Warnings = []string{}
	}

	if opts.DryRun {
		return s.dryRun(ctx, g, report)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingID uuid.UUID
	var existingHash string
	found := true
	err = tx.QueryRow(ctx,
		`SELECT id, content_hash FROM communities WHERE key = $1`,
		g.CommunityKey).Scan(&existingID, &existingHash)
	if errors.Is(err, pgx.ErrNoRows) {
		found = false
	} else if err != nil {
		return nil, fmt.Errorf("lookup community %s: %w", g.CommunityKey, err)
	}

	if found && opts.SkipUnchanged && g.ContentHash != "" && existingHash == g.ContentHash {
		report.Warnings = append(report.Warnings, "content unchanged; import skipped")
		return report, nil
	}

	if found {
		for _, st := range deleteStatements {
			tag, err := tx.Exec(ctx, st.sql, existingID)
			if err != nil {
				return nil, fmt.Errorf("delete %s: %w", st.count, err)
			}
			report.Deleted[st.count] = int(tag.RowsAffected())
		}
		if _, err := tx.Exec(ctx, `DELETE FROM communities WHERE id = $1`, existingID); err != nil {
			return nil, fmt.Errorf("delete community %s: %w", g.CommunityKey, err)
		}
	}

	if err := insertGraph(ctx, tx, g); err != nil {
		return nil, mapStoreError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapStoreError(fmt.Errorf("commit replace: %w", err))
	}

	report.Inserted = g.InsertedCounts()
	return report, nil
}

func (s *Store) dryRun(ctx context.Context, g *ResolvedGraph, report *ImportReport) (*ImportReport, error) {
	var existingID uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT id FROM communities WHERE key = $1`, g.CommunityKey).Scan(&existingID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup community %s: %w", g.CommunityKey, err)
	}
	if err == nil {
		counts, err := s.communityCounts(ctx, existingID)
		if err != nil {
			return nil, err
		}
		report.Deleted = counts
	}
	report.Inserted = g.InsertedCounts()
	return report, nil
}

// insertGraph queues per-kind batches in dependency order, flushing each kind
// before the next one references it.
func insertGraph(ctx context.Context, tx pgx.Tx, g *ResolvedGraph) error {
	c := g.Community
	if _, err := tx.Exec(ctx,
		`INSERT INTO communities (id, key, iri, name, description, extra, content_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Key, c.IRI, c.Name, c.Description, c.Extra, g.ContentHash); err != nil {
		return fmt.Errorf("insert community: %w", err)
	}

	flush := func(kind string, b *pgx.Batch) error {
		if b.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("insert %s: %w", kind, err)
		}
		return nil
	}

	b := &pgx.Batch{}
	for _, p := range g.Participants {
		b.Queue(`INSERT INTO participants (id, community_id, key, iri, kind, name, auth_iri, extra)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.CommunityID, p.Key, p.IRI, p.Kind, p.Name, p.AuthIRI, p.Extra)
	}
	if err := flush(CountParticipants, b); err != nil {
		return err
	}

	b = &pgx.Batch{}
	for _, s := range g.Sites {
		b.Queue(`INSERT INTO sites (id, community_id, key, iri, name, area, extra)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.ID, s.CommunityID, s.Key, s.IRI, s.Name, s.Area, s.Extra)
	}
	if err := flush(CountSites, b); err != nil {
		return err
	}

	b = &pgx.Batch{}
	for _, m := range g.Meters {
		b.Queue(`INSERT INTO meters (id, community_id, owner_participant_id, site_id, key, iri, sensor_id, pod, name, extra)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			m.ID, m.CommunityID, m.OwnerParticipantID, m.SiteID, m.Key, m.IRI, m.SensorID, m.Pod, m.Name, m.Extra)
	}
	if err := flush(CountMeters, b); err != nil {
		return err
	}

	b = &pgx.Batch{}
	for _, a := range g.Assets {
		b.Queue(`INSERT INTO assets (id, community_id, owner_participant_id, site_id, meter_id, key, iri, category_iri, asset_type, name, rated_power_kw, rated_energy_kwh, extra)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			a.ID, a.CommunityID, a.OwnerParticipantID, a.SiteID, a.MeterID, a.Key, a.IRI,
			a.CategoryIRI, a.AssetType, a.Name, a.RatedPowerKW, a.RatedEnergyKWh, a.Extra)
	}
	if err := flush(CountAssets, b); err != nil {
		return err
	}

	b = &pgx.Batch{}
	for _, t := range g.Tariffs {
		b.Queue(`INSERT INTO tariffs (id, community_id, key, name, currency, notes, extra)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			t.ID, t.CommunityID, t.Key, t.Name, t.Currency, t.Notes, t.Extra)
	}
	if err := flush(CountTariffs, b); err != nil {
		return err
	}

	b = &pgx.Batch{}
	for _, ts := range g.TimeSeries {
		b.Queue(`INSERT INTO timeseries (id, community_id, observed_asset_id, observed_kind, key, name, metric, unit, extra)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			ts.ID, ts.CommunityID, ts.ObservedAssetID, ts.ObservedKind, ts.Key, ts.Name, ts.Metric, ts.Unit, ts.Extra)
	}
	if err := flush(CountTimeSeries, b); err != nil {
		return err
	}

	b = &pgx.Batch{}
	for _, m := range g.Memberships {
		b.Queue(`INSERT INTO memberships (id, community_id, participant_id, key, iri, role_iri, status_iri, valid_from, valid_to, voting_weight, extra)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			m.ID, m.CommunityID, m.ParticipantID, m.Key, m.IRI, m.RoleIRI, m.StatusIRI,
			m.ValidFrom, m.ValidTo, m.VotingWeight, m.Extra)
	}
	if err := flush(CountMemberships, b); err != nil {
		return err
	}

	b = &pgx.Batch{}
	for _, e := range g.Edges {
		b.Queue(`INSERT INTO topology_edges (id, community_id, src_key, src_type, predicate, dst_key, dst_type)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.CommunityID, e.SrcKey, e.SrcType, e.Predicate, e.DstKey, e.DstType)
	}
	return flush(CountEdges, b)
}

// LoadGraph reads one full community subgraph inside a read-only repeatable
// read transaction, so the snapshot is consistent across per-kind queries.
// Rows come back ordered by key per kind.
func (s *Store) LoadGraph(ctx context.Context, key string) (*GraphData, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	g := &GraphData{}
	err = tx.QueryRow(ctx,
		`SELECT id, key, iri, name, description, extra, content_hash
		 FROM communities WHERE key = $1`, key).
		Scan(&g.Community.ID, &g.Community.Key, &g.Community.IRI,
			&g.Community.Name, &g.Community.Description, &g.Community.Extra,
			&g.Community.ContentHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("load community %s: %w", key, err)
	}
	cid := g.Community.ID

	rows, err := tx.Query(ctx,
		`SELECT id, community_id, key, iri, kind, name, auth_iri, extra
		 FROM participants WHERE community_id = $1 ORDER BY key`, cid)
	if err != nil {
		return nil, err
	}
	g.Participants, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Participant, error) {
		var p Participant
		err := row.Scan(&p.ID, &p.CommunityID, &p.Key, &p.IRI, &p.Kind, &p.Name, &p.AuthIRI, &p.Extra)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	rows, err = tx.Query(ctx,
		`SELECT id, community_id, participant_id, key, iri, role_iri, status_iri, valid_from, valid_to, voting_weight, extra
		 FROM memberships WHERE community_id = $1 ORDER BY key`, cid)
	if err != nil {
		return nil, err
	}
	g.Memberships, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Membership, error) {
		var m Membership
		err := row.Scan(&m.ID, &m.CommunityID, &m.ParticipantID, &m.Key, &m.IRI,
			&m.RoleIRI, &m.StatusIRI, &m.ValidFrom, &m.ValidTo, &m.VotingWeight, &m.Extra)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}

	rows, err = tx.Query(ctx,
		`SELECT id, community_id, key, iri, name, area, extra
		 FROM sites WHERE community_id = $1 ORDER BY key`, cid)
	if err != nil {
		return nil, err
	}
	g.Sites, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Site, error) {
		var s Site
		err := row.Scan(&s.ID, &s.CommunityID, &s.Key, &s.IRI, &s.Name, &s.Area, &s.Extra)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("load sites: %w", err)
	}

	rows, err = tx.Query(ctx,
		`SELECT id, community_id, owner_participant_id, site_id, key, iri, sensor_id, pod, name, extra
		 FROM meters WHERE community_id = $1 ORDER BY key`, cid)
	if err != nil {
		return nil, err
	}
	g.Meters, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Meter, error) {
		var m Meter
		err := row.Scan(&m.ID, &m.CommunityID, &m.OwnerParticipantID, &m.SiteID,
			&m.Key, &m.IRI, &m.SensorID, &m.Pod, &m.Name, &m.Extra)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("load meters: %w", err)
	}

	rows, err = tx.Query(ctx,
		`SELECT id, community_id, owner_participant_id, site_id, meter_id, key, iri, category_iri, asset_type, name, rated_power_kw, rated_energy_kwh, extra
		 FROM assets WHERE community_id = $1 ORDER BY key`, cid)
	if err != nil {
		return nil, err
	}
	g.Assets, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Asset, error) {
		var a Asset
		err := row.Scan(&a.ID, &a.CommunityID, &a.OwnerParticipantID, &a.SiteID, &a.MeterID,
			&a.Key, &a.IRI, &a.CategoryIRI, &a.AssetType, &a.Name,
			&a.RatedPowerKW, &a.RatedEnergyKWh, &a.Extra)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}

	rows, err = tx.Query(ctx,
		`SELECT id, community_id, key, name, currency, notes, extra
		 FROM tariffs WHERE community_id = $1 ORDER BY key`, cid)
	if err != nil {
		return nil, err
	}
	g.Tariffs, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Tariff, error) {
		var t Tariff
		err := row.Scan(&t.ID, &t.CommunityID, &t.Key, &t.Name, &t.Currency, &t.Notes, &t.Extra)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("load tariffs: %w", err)
	}

	rows, err = tx.Query(ctx,
		`SELECT id, community_id, observed_asset_id, observed_kind, key, name, metric, unit, extra
		 FROM timeseries WHERE community_id = $1 ORDER BY key`, cid)
	if err != nil {
		return nil, err
	}
	g.TimeSeries, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimeSeries, error) {
		var ts TimeSeries
		err := row.Scan(&ts.ID, &ts.CommunityID, &ts.ObservedAssetID, &ts.ObservedKind,
			&ts.Key, &ts.Name, &ts.Metric, &ts.Unit, &ts.Extra)
		return ts, err
	})
	if err != nil {
		return nil, fmt.Errorf("load timeseries: %w", err)
	}

	rows, err = tx.Query(ctx,
		`SELECT id, community_id, src_key, src_type, predicate, dst_key, dst_type
		 FROM topology_edges WHERE community_id = $1 ORDER BY src_key, predicate, dst_key`, cid)
	if err != nil {
		return nil, err
	}
	g.Edges, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (TopologyEdge, error) {
		var e TopologyEdge
		err := row.Scan(&e.ID, &e.CommunityID, &e.SrcKey, &e.SrcType, &e.Predicate, &e.DstKey, &e.DstType)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("load topology edges: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("close snapshot tx: %w", err)
	}
	return g, nil
}

// CommunitySummary is one row of the community listing.
type CommunitySummary struct {
	Key         string         `json:"key"`
	IRI         string         `json:"iri"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Counts      map[string]int `json:"counts"`
}

// clampPage normalizes list pagination: limit defaults to 100, caps at 500,
// offset never goes negative (Postgres rejects a negative OFFSET).
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListCommunities returns community summaries ordered by key, with per-kind
// entity counts gathered concurrently.
func (s *Store) ListCommunities(ctx context.Context, query string, limit, offset int) ([]CommunitySummary, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := s.db.Query(ctx,
		`SELECT id, key, iri, name, description FROM communities
		 WHERE ($1 = '' OR key ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%')
		 ORDER BY key LIMIT $2 OFFSET $3`, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	type row struct {
		id      uuid.UUID
		summary CommunitySummary
	}
	items, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (row, error) {
		var item row
		err := r.Scan(&item.id, &item.summary.Key, &item.summary.IRI,
			&item.summary.Name, &item.summary.Description)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}

	out := make([]CommunitySummary, len(items))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(8)
	for i, item := range items {
		grp.Go(func() error {
			counts, err := s.communityCounts(grpCtx, item.id)
			if err != nil {
				return err
			}
			item.summary.Counts = counts
			out[i] = item.summary
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCommunity returns the summary of one community by key.
func (s *Store) GetCommunity(ctx context.Context, key string) (*CommunitySummary, error) {
	var id uuid.UUID
	summary := CommunitySummary{}
	err := s.db.QueryRow(ctx,
		`SELECT id, key, iri, name, description FROM communities WHERE key = $1`, key).
		Scan(&id, &summary.Key, &summary.IRI, &summary.Name, &summary.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("get community %s: %w", key, err)
	}
	summary.Counts, err = s.communityCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Store) communityCounts(ctx context.Context, id uuid.UUID) (map[string]int, error) {
	counts := emptyCounts()
	grp, grpCtx := errgroup.WithContext(ctx)
	results := make([]int, len(countStatements))
	for i, st := range countStatements {
		grp.Go(func() error {
			return s.db.QueryRow(grpCtx, st.sql, id).Scan(&results[i])
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}
	for i, st := range countStatements {
		counts[st.count] = results[i]
	}
	return counts, nil
}
