package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/wills_backend/config"
	"bitbucket.org/mmdatafocus/wills_backend/models"
	"bitbucket.org/mmdatafocus/wills_backend/utils"
	"gorm.io/gorm"
)

const willReferenceType = "wills"

// CreateDraft opens a new will for the authenticated owner. The payload is
// decoded leniently so a half-typed form still produces a draft; whatever
// decodes contributes to the initial progress score.
func CreateDraft(ctx context.Context, input *models.NewWill) (*models.Will, error) {
	logger := config.GetLogger()

	ownerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || ownerId == 0 {
		return nil, utils.ErrorUnauthenticated
	}

	raw := json.RawMessage("{}")
	if input != nil && len(input.Data) > 0 {
		raw = input.Data
	}
	data, err := models.DecodeWillData(raw)
	if err != nil {
		config.LogError(logger, "willWorkflow.go", "CreateDraft", "DecodeWillData", string(raw), err)
		return nil, err
	}

	will := models.Will{
		OwnerId:  ownerId,
		Status:   models.WillStatusDraft,
		Data:     raw,
		Progress: models.CalculateProgress(data),
	}
	if input != nil {
		will.Name = utils.NilIfEmpty(input.Name)
	}

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := will.Store(tx, ctx); err != nil {
			config.LogError(logger, "willWorkflow.go", "CreateDraft", "Store", will, err)
			return err
		}
		desc := fmt.Sprintf("Will %q created.", will.DisplayName())
		if err := models.SaveHistoryCreate(tx, ctx, will.ID, willReferenceType, &will, desc); err != nil {
			config.LogError(logger, "willWorkflow.go", "CreateDraft", "SaveHistoryCreate", will.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishWillEvent(ctx, &will, "will.created")
	return &will, nil
}

// SaveDraft replaces a draft's payload with whatever the client sent.
// Last write wins; there is no merge and no version check. Paid and
// Completed documents refuse the write.
func SaveDraft(ctx context.Context, willId int, input *models.NewWill) (*models.Will, error) {
	logger := config.GetLogger()

	will, err := models.GetWill(ctx, willId)
	if err != nil {
		return nil, err
	}
	if err := will.EnsureEditable(); err != nil {
		return nil, err
	}

	raw := json.RawMessage("{}")
	var name *string
	if input != nil {
		if len(input.Data) > 0 {
			raw = input.Data
		}
		name = utils.NilIfEmpty(input.Name)
	}
	data, err := models.DecodeWillData(raw)
	if err != nil {
		config.LogError(logger, "willWorkflow.go", "SaveDraft", "DecodeWillData", string(raw), err)
		return nil, err
	}
	progress := models.CalculateProgress(data)

	before := *will
	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := will.UpdateDraft(tx, ctx, name, raw, progress); err != nil {
			config.LogError(logger, "willWorkflow.go", "SaveDraft", "UpdateDraft", will.ID, err)
			return err
		}
		desc := fmt.Sprintf("Will %q saved (progress %d%%).", will.DisplayName(), progress)
		if err := models.SaveHistoryUpdate(tx, ctx, will.ID, willReferenceType, &before, will, desc); err != nil {
			config.LogError(logger, "willWorkflow.go", "SaveDraft", "SaveHistoryUpdate", will.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	will.Data = raw
	will.Progress = progress
	return will, nil
}

// FinalizeForExport validates the document strictly, renders the PDF and
// flips the will to Completed in a single conditional update. Repeat calls
// on a completed will report a finalized conflict, so the transition fires
// exactly once even under concurrent requests.
func FinalizeForExport(ctx context.Context, willId int) (*models.Will, []byte, error) {
	logger := config.GetLogger()

	will, err := models.GetWill(ctx, willId)
	if err != nil {
		return nil, nil, err
	}
	if err := will.EnsureFinalizable(); err != nil {
		return nil, nil, err
	}

	// Best effort: keep concurrent finalize calls from racing through
	// validation and PDF rendering twice. Correctness does not depend on
	// the lock; the conditional status update is the real gate.
	release := obtainFinalizeLock(ctx, will.ID)
	defer release()

	data, err := will.DecodedData()
	if err != nil {
		config.LogError(logger, "willWorkflow.go", "FinalizeForExport", "DecodedData", will.ID, err)
		return nil, nil, err
	}
	if verr := models.ValidateForFinalize(data); verr != nil {
		return nil, nil, verr
	}

	pdf, err := RenderWillPDF(will, data)
	if err != nil {
		config.LogError(logger, "willWorkflow.go", "FinalizeForExport", "RenderWillPDF", will.ID, err)
		return nil, nil, err
	}

	artifactUrl := ""
	if objectKey, uploadErr := uploadWillArtifact(ctx, will, pdf); uploadErr != nil {
		// Artifact storage is optional; the PDF still goes back to the caller.
		config.LogError(logger, "willWorkflow.go", "FinalizeForExport", "uploadWillArtifact", will.ID, uploadErr)
	} else if objectKey != "" {
		artifactUrl = utils.BuildObjectAccessURL(objectKey)
	}

	before := *will
	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := will.MarkCompleted(tx, ctx, artifactUrl); err != nil {
			if err != utils.ErrorFinalized {
				config.LogError(logger, "willWorkflow.go", "FinalizeForExport", "MarkCompleted", will.ID, err)
			}
			return err
		}
		desc := fmt.Sprintf("Will %q finalized and exported.", will.DisplayName())
		if err := models.SaveHistoryUpdate(tx, ctx, will.ID, willReferenceType, &before, will, desc); err != nil {
			config.LogError(logger, "willWorkflow.go", "FinalizeForExport", "SaveHistoryUpdate", will.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	publishWillEvent(ctx, will, "will.completed")
	return will, pdf, nil
}

// DeleteDraft removes a draft and its attachments. Paid and Completed
// documents are legal records and cannot be deleted.
func DeleteDraft(ctx context.Context, willId int) (*models.Will, error) {
	logger := config.GetLogger()

	will, err := models.GetWill(ctx, willId)
	if err != nil {
		return nil, err
	}
	if err := will.EnsureDeletable(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := models.DeleteAttachmentsForWill(ctx, tx, will.ID); err != nil {
			config.LogError(logger, "willWorkflow.go", "DeleteDraft", "DeleteAttachmentsForWill", will.ID, err)
			return err
		}
		if err := will.Remove(tx, ctx); err != nil {
			config.LogError(logger, "willWorkflow.go", "DeleteDraft", "Remove", will.ID, err)
			return err
		}
		desc := fmt.Sprintf("Will %q deleted.", will.DisplayName())
		if err := models.SaveHistoryDelete(tx, ctx, will.ID, willReferenceType, will, desc); err != nil {
			config.LogError(logger, "willWorkflow.go", "DeleteDraft", "SaveHistoryDelete", will.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishWillEvent(ctx, will, "will.deleted")
	return will, nil
}

func uploadWillArtifact(ctx context.Context, will *models.Will, pdf []byte) (string, error) {
	objectKey := fmt.Sprintf("wills/%d/%s.pdf", will.OwnerId, utils.GenerateUniqueFilename())
	if err := utils.UploadBytesToGCS(ctx, objectKey, pdf, "application/pdf"); err != nil {
		return "", err
	}
	return objectKey, nil
}

func publishWillEvent(ctx context.Context, will *models.Will, action string) {
	logger := config.GetLogger()
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	msg := config.WillEventMessage{
		WillId:        will.ID,
		OwnerId:       will.OwnerId,
		Action:        action,
		Status:        string(will.Status),
		OccurredAt:    time.Now().UTC(),
		CorrelationId: correlationId,
	}
	if err := config.PublishWillEvent(ctx, msg); err != nil {
		config.LogError(logger, "willWorkflow.go", "publishWillEvent", action, msg, err)
	}
}
