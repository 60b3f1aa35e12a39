package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/wills_backend/config"
)

// check if id exists scoped to owner, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, ownerId int, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, ownerId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// count records, using WHERE owner_id = ? AND $condition
// ownerId can be zero for admin/console queries
func ResourceCountWhere[T any](ctx context.Context, ownerId int, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if ownerId != 0 {
		dbCtx = dbCtx.Where("owner_id = ?", ownerId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
