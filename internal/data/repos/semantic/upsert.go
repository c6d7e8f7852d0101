package semantic

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// getOrCreate inserts row unless another row already owns its unique key,
// then returns whichever row owns the key. created reports whether row was
// the one inserted. Safe under concurrent callers since the unique index
// arbitrates.
func getOrCreate[T any](ctx context.Context, t *gorm.DB, row *T, conflict []string, key map[string]interface{}) (*T, bool, error) {
	cols := make([]clause.Column, 0, len(conflict))
	for _, c := range conflict {
		cols = append(cols, clause.Column{Name: c})
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: cols, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return row, true, nil
	}
	var out T
	if err := t.WithContext(ctx).Where(key).Take(&out).Error; err != nil {
		return nil, false, err
	}
	return &out, false, nil
}

// takeOne returns nil, nil when nothing matches.
func takeOne[T any](ctx context.Context, t *gorm.DB, key map[string]interface{}) (*T, error) {
	var out []*T
	if err := t.WithContext(ctx).Where(key).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
