package oracles

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All returns row level checks that must hold at any instant.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_known_status",
			SQL:  `SELECT id, status FROM houses WHERE status NOT IN ('PENDING','ACTIVE','CLOSED')`,
		},
		{
			Name: "O2_updated_not_before_created",
			SQL:  `SELECT id, created_time, updated_time FROM houses WHERE updated_time < created_time`,
		},
		{
			Name: "O3_location_present",
			SQL:  `SELECT id FROM houses WHERE location = ''`,
		},
		{
			Name: "O4_established_present",
			SQL:  `SELECT id FROM houses WHERE established_time IS NULL`,
		},
		{
			Name: "O5_unique_ids",
			SQL:  `SELECT id, COUNT(*) FROM houses GROUP BY id HAVING COUNT(*) > 1`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}

// Divergence compares the stored ids with what callers were told once all
// writers have stopped. Orphans are rows nobody acknowledged (except ids in
// allowed); missing are acknowledged ids without a row.
func Divergence(ctx context.Context, pool *pgxpool.Pool, acknowledged, allowed map[int64]struct{}) (orphans, missing []int64, err error) {
	rows, err := pool.Query(ctx, `SELECT id FROM houses`)
	if err != nil {
		return nil, nil, fmt.Errorf("oracle divergence: %w", err)
	}
	defer rows.Close()

	stored := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, nil, err
		}
		stored[id] = struct{}{}
		_, ack := acknowledged[id]
		_, ok := allowed[id]
		if !ack && !ok {
			orphans = append(orphans, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	for id := range acknowledged {
		if _, ok := stored[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i] < orphans[j] })
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return orphans, missing, nil
}
