package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"bitbucket.org/mmdatafocus/wills_backend/config"
	"bitbucket.org/mmdatafocus/wills_backend/models"
	"bitbucket.org/mmdatafocus/wills_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

var attachmentMimeTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/jpeg": true,
	"image/png":  true,
}

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// uploadAttachmentHandler stores a supporting document (deed, statement,
// photo) against a draft will. Images additionally get a thumbnail object
// next to the original.
func uploadAttachmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()

		willId, ok := pathId(c)
		if !ok {
			respondBadRequest(c, "invalid will id")
			return
		}
		will, err := models.GetWill(ctx, willId)
		if err != nil {
			respondTaxonomyError(c, "uploads.go", "uploadAttachmentHandler", err)
			return
		}
		if err := will.EnsureEditable(); err != nil {
			respondTaxonomyError(c, "uploads.go", "uploadAttachmentHandler", err)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondBadRequest(c, "file is required")
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			respondBadRequest(c, "file size exceeds 10MB limit")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadAttachmentHandler", "FormFile.Open", fileHeader.Filename, err)
			respondInternalError(c)
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadAttachmentHandler", "io.ReadAll", fileHeader.Filename, err)
			respondInternalError(c)
			return
		}

		mimeType := http.DetectContentType(content)
		if !attachmentMimeTypes[mimeType] {
			// docx sniffs as a zip; trust the extension for that one case.
			if !(strings.HasPrefix(mimeType, "application/zip") && strings.EqualFold(filepath.Ext(fileHeader.Filename), ".docx")) {
				respondBadRequest(c, "unsupported file type")
				return
			}
			mimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		objectKey := fmt.Sprintf("wills/%d/attachments/%s%s", will.ID, uuid.NewString(), ext)
		if err := utils.UploadBytesToGCS(ctx, objectKey, content, mimeType); err != nil {
			config.LogError(logger, "uploads.go", "uploadAttachmentHandler", "UploadBytesToGCS", objectKey, err)
			respondInternalError(c)
			return
		}

		if imageMimeTypes[mimeType] {
			if err := uploadThumbnail(c, objectKey, content); err != nil {
				// Thumbnail is cosmetic; the original upload already succeeded.
				config.LogError(logger, "uploads.go", "uploadAttachmentHandler", "uploadThumbnail", objectKey, err)
			}
		}

		attachment := models.Attachment{
			WillID:   will.ID,
			FileUrl:  utils.BuildObjectAccessURL(objectKey),
			FileName: path.Base(fileHeader.Filename),
		}
		db := config.GetDB()
		err = db.Transaction(func(tx *gorm.DB) error {
			return attachment.Store(tx, ctx)
		})
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadAttachmentHandler", "attachment.Store", attachment, err)
			respondInternalError(c)
			return
		}

		respondData(c, http.StatusCreated, attachment)
	}
}

func uploadThumbnail(c *gin.Context, objectKey string, content []byte) error {
	img, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return err
	}
	thumb := imaging.Fit(img, 320, 320, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return err
	}

	ext := filepath.Ext(objectKey)
	thumbKey := strings.TrimSuffix(objectKey, ext) + "_thumb.jpg"
	return utils.UploadBytesToGCS(c.Request.Context(), thumbKey, buf.Bytes(), "image/jpeg")
}

func listAttachmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		willId, ok := pathId(c)
		if !ok {
			respondBadRequest(c, "invalid will id")
			return
		}
		attachments, err := models.ListAttachments(c.Request.Context(), willId)
		if err != nil {
			respondTaxonomyError(c, "uploads.go", "listAttachmentsHandler", err)
			return
		}
		respondData(c, http.StatusOK, attachments)
	}
}

func deleteAttachmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()

		attachmentId, ok := pathId(c)
		if !ok {
			respondBadRequest(c, "invalid attachment id")
			return
		}
		attachment, err := models.GetAttachment(ctx, attachmentId)
		if err != nil {
			respondTaxonomyError(c, "uploads.go", "deleteAttachmentHandler", err)
			return
		}

		will, err := models.GetWill(ctx, attachment.WillID)
		if err != nil {
			respondTaxonomyError(c, "uploads.go", "deleteAttachmentHandler", err)
			return
		}
		if err := will.EnsureEditable(); err != nil {
			respondTaxonomyError(c, "uploads.go", "deleteAttachmentHandler", err)
			return
		}

		db := config.GetDB()
		err = db.Transaction(func(tx *gorm.DB) error {
			return attachment.Delete(tx, ctx)
		})
		if err != nil {
			config.LogError(logger, "uploads.go", "deleteAttachmentHandler", "attachment.Delete", attachment.ID, err)
			respondInternalError(c)
			return
		}

		respondData(c, http.StatusOK, attachment)
	}
}
