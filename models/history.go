package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/wills_backend/utils"
	"gorm.io/gorm"
)

// History is the audit trail: one row per will mutation, with before/after
// snapshots for support and dispute resolution.
type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type" binding:"required"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:255" json:"reference_type"`
	UserId        int       `gorm:"index;not null" json:"user_id"`
	UserName      string    `gorm:"size:100" json:"user_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func createHistory(tx *gorm.DB, ctx context.Context,
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) (err error) {

	var history History

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}
	userName, _ := utils.GetUserNameFromContext(ctx)

	history.ActionType = actionType
	history.Before = string(b)
	history.After = string(a)
	history.Description = description
	history.ReferenceID = referenceId
	history.ReferenceType = referenceType
	history.UserId = userId
	history.UserName = userName

	return tx.WithContext(ctx).Create(&history).Error
}

func SaveHistoryCreate(tx *gorm.DB, ctx context.Context, id int, referenceType string, obj interface{}, description string) error {
	return createHistory(tx, ctx, "CREATE", id, referenceType, nil, obj, description)
}

func SaveHistoryUpdate(tx *gorm.DB, ctx context.Context, id int, referenceType string, before interface{}, after interface{}, description string) error {
	return createHistory(tx, ctx, "UPDATE", id, referenceType, before, after, description)
}

func SaveHistoryDelete(tx *gorm.DB, ctx context.Context, id int, referenceType string, obj interface{}, description string) error {
	return createHistory(tx, ctx, "DELETE", id, referenceType, obj, nil, description)
}
