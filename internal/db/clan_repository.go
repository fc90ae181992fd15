package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/udisondev/l2pledge/internal/clan"
)

// ClanRepository implements clan.Store backed by PostgreSQL.
type ClanRepository struct {
	pool *pgxpool.Pool
}

var _ clan.Store = (*ClanRepository)(nil)

// NewClanRepository creates a new clan repository.
func NewClanRepository(pool *pgxpool.Pool) *ClanRepository {
	return &ClanRepository{pool: pool}
}

// LoadClans loads all clans ordered by id.
func (r *ClanRepository) LoadClans(ctx context.Context) ([]clan.ClanRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT clan_id, clan_name, leader_id, clan_level, reputation,
		        crest_id, large_crest_id, ally_id, ally_name, ally_crest_id,
		        castle_id, fort_id, dissolution_time
		 FROM clan_data ORDER BY clan_id`)
	if err != nil {
		return nil, fmt.Errorf("query clan_data: %w", err)
	}
	defer rows.Close()

	var result []clan.ClanRow
	for rows.Next() {
		var c clan.ClanRow
		if err := rows.Scan(
			&c.ClanID, &c.Name, &c.LeaderID, &c.Level, &c.Reputation,
			&c.CrestID, &c.LargeCrestID, &c.AllyID, &c.AllyName, &c.AllyCrestID,
			&c.CastleID, &c.FortID, &c.DissolutionTime,
		); err != nil {
			return nil, fmt.Errorf("scan clan_data: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clan_data: %w", err)
	}
	return result, nil
}

// LoadMembers loads all members of a clan ordered by character id.
func (r *ClanRepository) LoadMembers(ctx context.Context, clanID int32) ([]clan.MemberRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT character_id, clan_id, name, level, power_grade, title
		 FROM clan_members WHERE clan_id = $1 ORDER BY character_id`, clanID)
	if err != nil {
		return nil, fmt.Errorf("query clan_members of %d: %w", clanID, err)
	}
	defer rows.Close()

	var result []clan.MemberRow
	for rows.Next() {
		var m clan.MemberRow
		if err := rows.Scan(
			&m.CharacterID, &m.ClanID, &m.Name, &m.Level, &m.PowerGrade, &m.Title,
		); err != nil {
			return nil, fmt.Errorf("scan clan_members: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clan_members: %w", err)
	}
	return result, nil
}

const upsertClanSQL = `INSERT INTO clan_data
 (clan_id, clan_name, leader_id, clan_level, reputation,
  crest_id, large_crest_id, ally_id, ally_name, ally_crest_id,
  castle_id, fort_id, dissolution_time)
 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
 ON CONFLICT (clan_id) DO UPDATE SET
  leader_id=$3, clan_level=$4, reputation=$5,
  crest_id=$6, large_crest_id=$7, ally_id=$8,
  ally_name=$9, ally_crest_id=$10,
  castle_id=$11, fort_id=$12, dissolution_time=$13`

// SaveClan inserts or updates a clan_data row.
func (r *ClanRepository) SaveClan(ctx context.Context, c clan.ClanRow) error {
	_, err := r.pool.Exec(ctx, upsertClanSQL,
		c.ClanID, c.Name, c.LeaderID, c.Level, c.Reputation,
		c.CrestID, c.LargeCrestID, c.AllyID, c.AllyName, c.AllyCrestID,
		c.CastleID, c.FortID, c.DissolutionTime,
	)
	if err != nil {
		return fmt.Errorf("save clan %d: %w", c.ClanID, err)
	}
	return nil
}

// SaveMember inserts or updates a clan_members row.
func (r *ClanRepository) SaveMember(ctx context.Context, m clan.MemberRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO clan_members
		 (character_id, clan_id, name, level, power_grade, title)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (character_id) DO UPDATE SET
		  clan_id=$2, name=$3, level=$4, power_grade=$5, title=$6`,
		m.CharacterID, m.ClanID, m.Name, m.Level, m.PowerGrade, m.Title,
	)
	if err != nil {
		return fmt.Errorf("save clan member %d: %w", m.CharacterID, err)
	}
	return nil
}

// DeleteMember removes a member from clan_members.
func (r *ClanRepository) DeleteMember(ctx context.Context, characterID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM clan_members WHERE character_id = $1`, characterID)
	if err != nil {
		return fmt.Errorf("delete clan member %d: %w", characterID, err)
	}
	return nil
}

// DeleteClan deletes a clan with its members and wars in one transaction.
func (r *ClanRepository) DeleteClan(ctx context.Context, clanID int32) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM clan_wars WHERE clan1_id = $1 OR clan2_id = $1`, clanID)
	batch.Queue(`DELETE FROM clan_members WHERE clan_id = $1`, clanID)
	batch.Queue(`DELETE FROM clan_data WHERE clan_id = $1`, clanID)

	br := tx.SendBatch(ctx, batch)
	for range batch.Len() {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck
			return fmt.Errorf("delete clan %d: %w", clanID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close delete batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete clan %d: %w", clanID, err)
	}
	return nil
}

// LoadWars loads every persisted war.
func (r *ClanRepository) LoadWars(ctx context.Context) ([]clan.WarRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT clan1_id, clan2_id, clan1_kills, clan2_kills, winner_id,
		        start_time, end_time, state
		 FROM clan_wars ORDER BY clan1_id, clan2_id`)
	if err != nil {
		return nil, fmt.Errorf("query clan_wars: %w", err)
	}
	defer rows.Close()

	var result []clan.WarRow
	for rows.Next() {
		var w clan.WarRow
		if err := rows.Scan(
			&w.Clan1ID, &w.Clan2ID, &w.Clan1Kills, &w.Clan2Kills, &w.WinnerID,
			&w.StartTime, &w.EndTime, &w.State,
		); err != nil {
			return nil, fmt.Errorf("scan clan_wars: %w", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clan_wars: %w", err)
	}
	return result, nil
}

// UpsertWar writes the row of an unordered clan pair.
// The attacker columns are overwritten, so the row follows the current attacker.
func (r *ClanRepository) UpsertWar(ctx context.Context, w clan.WarRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO clan_wars
		 (clan1_id, clan2_id, clan1_kills, clan2_kills, winner_id, start_time, end_time, state)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (LEAST(clan1_id, clan2_id), GREATEST(clan1_id, clan2_id)) DO UPDATE SET
		  clan1_id=$1, clan2_id=$2, clan1_kills=$3, clan2_kills=$4,
		  winner_id=$5, start_time=$6, end_time=$7, state=$8`,
		w.Clan1ID, w.Clan2ID, w.Clan1Kills, w.Clan2Kills, w.WinnerID,
		w.StartTime, w.EndTime, w.State,
	)
	if err != nil {
		return fmt.Errorf("save clan war %d vs %d: %w", w.Clan1ID, w.Clan2ID, err)
	}
	return nil
}

// DeleteWar removes the war row of an unordered clan pair.
func (r *ClanRepository) DeleteWar(ctx context.Context, clan1ID, clan2ID int32) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM clan_wars
		 WHERE (clan1_id = $1 AND clan2_id = $2) OR (clan1_id = $2 AND clan2_id = $1)`,
		clan1ID, clan2ID,
	)
	if err != nil {
		return fmt.Errorf("delete clan war %d vs %d: %w", clan1ID, clan2ID, err)
	}
	return nil
}
