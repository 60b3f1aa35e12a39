package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/wills_backend/config"
	"bitbucket.org/mmdatafocus/wills_backend/utils"
	"gorm.io/gorm"
)

// Attachment is a supporting document uploaded alongside a will
// (property deed scan, ID photo, existing will copy).
type Attachment struct {
	ID       int    `gorm:"primary_key" json:"id"`
	WillID   int    `gorm:"index;not null" json:"will_id"`
	FileUrl  string `gorm:"size:512;not null" json:"file_url"`
	FileName string `gorm:"size:255" json:"file_name"`
}

func (a *Attachment) Store(tx *gorm.DB, ctx context.Context) error {
	return tx.WithContext(ctx).Create(a).Error
}

func (a *Attachment) Delete(tx *gorm.DB, ctx context.Context) error {
	// delete actual file too
	if err := tx.WithContext(ctx).Delete(a).Error; err != nil {
		return err
	}
	if objectKey := utils.ExtractObjectKeyFromURL(a.FileUrl); objectKey != "" {
		if err := utils.DeleteObjectFromGCS(ctx, objectKey); err != nil {
			return err
		}
	}
	return nil
}

// GetAttachment loads an attachment, enforcing ownership through the parent
// will. Fails closed on anything the caller does not own.
func GetAttachment(ctx context.Context, id int) (*Attachment, error) {

	var result Attachment
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if isAdmin, ok := utils.GetIsAdminFromContext(ctx); ok && isAdmin {
		return &result, nil
	}

	ownerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || ownerId == 0 {
		return nil, utils.ErrorUnauthenticated
	}
	if result.WillID <= 0 {
		return nil, errors.New("unauthorized")
	}
	if err := utils.ValidateResourceId[Will](ctx, ownerId, result.WillID); err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	return &result, nil
}

func ListAttachments(ctx context.Context, willId int) ([]*Attachment, error) {
	// ownership check through the parent will
	if _, err := GetWill(ctx, willId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*Attachment
	if err := db.WithContext(ctx).Where("will_id = ?", willId).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteAttachmentsForWill removes every attachment row for a will along
// with the stored objects. Used by the delete cascade.
func DeleteAttachmentsForWill(ctx context.Context, tx *gorm.DB, willId int) error {
	return deleteAttachments(ctx, tx, willId)
}

func deleteAttachments(ctx context.Context, tx *gorm.DB, willId int) error {
	var attachments []*Attachment
	if err := tx.WithContext(ctx).Where("will_id = ?", willId).Find(&attachments).Error; err != nil {
		return err
	}
	for _, a := range attachments {
		if err := a.Delete(tx, ctx); err != nil {
			return err
		}
	}
	return nil
}
