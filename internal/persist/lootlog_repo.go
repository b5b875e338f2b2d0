package persist

import (
	"context"
	"encoding/json"
	"fmt"
)

// LootLogRow is one audit record: who killed what, what dropped, where.
// Written on every loot-dropped event so fairness disputes (loot protection,
// drop rates) can be settled from the database after the fact.
type LootLogRow struct {
	NpcType  int32
	NpcObjID int32
	KillerID int32
	Items    []LootLogItem
	X, Y, Z  float64
	Tick     int64
}

// LootLogItem is one dropped (item, quantity) pair inside a row.
type LootLogItem struct {
	ItemID   int32 `json:"item_id"`
	Quantity int32 `json:"quantity"`
}

// LootLogRepo persists loot audit rows.
type LootLogRepo struct {
	db *DB
}

func NewLootLogRepo(db *DB) *LootLogRepo {
	return &LootLogRepo{db: db}
}

// Insert writes one audit row. Items are stored as JSONB.
func (r *LootLogRepo) Insert(ctx context.Context, row *LootLogRow) error {
	items, err := json.Marshal(row.Items)
	if err != nil {
		return fmt.Errorf("marshal loot items: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO loot_log (npc_type, npc_obj_id, killer_id, items, pos_x, pos_y, pos_z, tick)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row.NpcType, row.NpcObjID, row.KillerID, items, row.X, row.Y, row.Z, row.Tick,
	)
	if err != nil {
		return fmt.Errorf("insert loot_log: %w", err)
	}
	return nil
}

// CountForKiller returns how many audit rows exist for one killer. Used by
// admin tooling when reviewing drop-rate complaints.
func (r *LootLogRepo) CountForKiller(ctx context.Context, killerID int32) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM loot_log WHERE killer_id = $1`, killerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count loot_log: %w", err)
	}
	return n, nil
}
