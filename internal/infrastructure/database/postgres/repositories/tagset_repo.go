package repositories

import (
	"context"

	"github.com/tupiana/lexipipe/internal/domain/tagset"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// TagsetRepo reads the semantic domain taxonomy.  The tagset is seeded by
// migration and read once at startup; there is no write path.
type TagsetRepo struct {
	db querier
}

// NewTagsetRepo builds the repository.
func NewTagsetRepo(db querier) *TagsetRepo {
	return &TagsetRepo{db: db}
}

// ListNodes implements tagset.Repository.
func (r *TagsetRepo) ListNodes(ctx context.Context) ([]tagset.Node, error) {
	rows, err := r.db.Query(ctx,
		"SELECT code, COALESCE(parent_code, ''), depth, label FROM tagset_nodes ORDER BY depth, code")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "tagset query failed")
	}
	defer rows.Close()

	var out []tagset.Node
	for rows.Next() {
		var n tagset.Node
		if err := rows.Scan(&n.Code, &n.ParentCode, &n.Depth, &n.Label); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "tagset row scan failed")
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "tagset rows failed")
	}
	return out, nil
}
