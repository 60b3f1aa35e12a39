package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/wills_backend/utils"
	"gorm.io/gorm"
)

const willFallbackName = "Untitled will"

type Will struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OwnerId     int             `gorm:"index;not null" json:"owner_id"`
	Status      WillStatus      `gorm:"type:enum('Draft','Paid','Completed');default:'Draft'" json:"status"`
	Name        *string         `gorm:"size:255" json:"name"`
	Data        json.RawMessage `gorm:"type:json" json:"data"`
	Progress    int             `gorm:"not null;default:0" json:"progress"`
	ArtifactUrl string          `json:"artifact_url"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewWill is the save-draft input. Data is kept raw here; tolerant decoding
// happens in the workflow so a partially-typed draft never fails binding.
type NewWill struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

func (w *Will) DisplayName() string {
	if w.Name == nil || *w.Name == "" {
		return willFallbackName
	}
	return *w.Name
}

// EnsureEditable gates the save/update path. Paid and Completed documents
// are immutable to edits.
func (w *Will) EnsureEditable() error {
	if !w.Status.Editable() {
		return utils.ErrorFinalized
	}
	return nil
}

// EnsureDeletable gates deletion; only drafts can be deleted.
func (w *Will) EnsureDeletable() error {
	if !w.Status.Editable() {
		return utils.ErrorFinalized
	}
	return nil
}

// EnsureFinalizable gates the export transition.
func (w *Will) EnsureFinalizable() error {
	if !w.Status.Finalizable() {
		return utils.ErrorFinalized
	}
	return nil
}

func (w *Will) DecodedData() (*WillData, error) {
	return DecodeWillData(w.Data)
}

func (w *Will) Store(tx *gorm.DB, ctx context.Context) error {
	return tx.WithContext(ctx).Create(w).Error
}

func (w *Will) UpdateDraft(tx *gorm.DB, ctx context.Context, name *string, data json.RawMessage, progress int) error {
	fillable := map[string]interface{}{
		"Data":     []byte(data),
		"Progress": progress,
	}
	if name != nil && *name != "" {
		fillable["Name"] = *name
	}
	return tx.WithContext(ctx).Model(w).Updates(fillable).Error
}

// MarkCompleted flips the document to Completed with a conditional update so
// two concurrent finalize calls cannot both succeed. The loser sees zero rows
// affected and gets the same conflict a finished document would report.
func (w *Will) MarkCompleted(tx *gorm.DB, ctx context.Context, artifactUrl string) error {
	result := tx.WithContext(ctx).Model(&Will{}).
		Where("id = ? AND status IN ?", w.ID, []string{string(WillStatusDraft), string(WillStatusPaid)}).
		Updates(map[string]interface{}{
			"Status":      WillStatusCompleted,
			"ArtifactUrl": artifactUrl,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorFinalized
	}
	w.Status = WillStatusCompleted
	w.ArtifactUrl = artifactUrl
	return nil
}

func (w *Will) Remove(tx *gorm.DB, ctx context.Context) error {
	return tx.WithContext(ctx).Delete(w).Error
}

// GetWill loads a will scoped to the authenticated owner. A will owned by
// someone else reads the same as a missing one.
func GetWill(ctx context.Context, id int) (*Will, error) {
	ownerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || ownerId == 0 {
		return nil, utils.ErrorUnauthenticated
	}
	return utils.FetchOwned[Will](ctx, ownerId, id)
}

// ListWills returns the owner's documents, most recently updated first.
func ListWills(ctx context.Context) ([]*Will, error) {
	ownerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || ownerId == 0 {
		return nil, utils.ErrorUnauthenticated
	}
	return utils.FetchAllOwned[Will](ctx, ownerId, "updated_at desc")
}
