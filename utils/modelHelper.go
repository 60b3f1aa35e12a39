package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/wills_backend/config"
)

/* DB fetching */

// fetch model from db scoped to its owner
// (owner_id goes into the query's WHERE, so a foreign record reads as RecordNotFound)
func FetchOwned[T any](ctx context.Context, ownerId int, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("owner_id = ?", ownerId)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// fetch all of the owner's models from db
func FetchAllOwned[T any](ctx context.Context, ownerId int, orders ...string) ([]*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("owner_id = ?", ownerId)
	for _, order := range orders {
		dbCtx = dbCtx.Order(order)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
