package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/calaisgraph/internal/domain"
)

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerType, ownerID string) *types.Document {
	tb.Helper()
	d := &types.Document{
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		AnalysisDate: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedEntity(tb testing.TB, ctx context.Context, tx *gorm.DB, typeName, uri, name string) *types.Entity {
	tb.Helper()
	et := &types.EntityType{Name: typeName, URLHash: "http://s.opencalais.com/1/type/em/e/" + typeName}
	if err := tx.WithContext(ctx).Where("name = ?", typeName).FirstOrCreate(et).Error; err != nil {
		tb.Fatalf("seed entity type: %v", err)
	}
	e := &types.Entity{
		URLHash:    uri,
		TypeID:     et.ID,
		Name:       name,
		Attributes: datatypes.JSON([]byte(`{"name":"` + name + `"}`)),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed entity: %v", err)
	}
	return e
}

func PtrFloat(v float64) *float64 { return &v }
