package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reassignment-service/internal/config"
	"reassignment-service/internal/events"
	"reassignment-service/internal/exporter"
	"reassignment-service/internal/importer"
	"reassignment-service/internal/middleware"
	"reassignment-service/internal/models"
	"reassignment-service/internal/repository"
	"reassignment-service/internal/workbook"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BookHandler exposes the import/export pipeline over HTTP.
type BookHandler struct {
	coordinator *importer.Coordinator
	assembler   *exporter.Assembler
	locks       repository.LockRepository
	audits      repository.AuditRepository
	publisher   *events.Publisher
	cfg         *config.Config
	logger      *logrus.Entry
}

func NewBookHandler(
	coordinator *importer.Coordinator,
	assembler *exporter.Assembler,
	locks repository.LockRepository,
	audits repository.AuditRepository,
	publisher *events.Publisher,
	cfg *config.Config,
	logger *logrus.Logger,
) *BookHandler {
	return &BookHandler{
		coordinator: coordinator,
		assembler:   assembler,
		locks:       locks,
		audits:      audits,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger.WithField("component", "book-handler"),
	}
}

// ImportBook imports a book workbook
// @Summary Import a book workbook
// @Description Runs the five-entity import pipeline on an uploaded xlsx file. Replace mode is destructive and requires confirmReplace=true.
// @Tags book
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook (.xlsx)"
// @Param mode formData string false "replace or add (default replace)"
// @Param confirmReplace formData boolean false "Required true for replace mode"
// @Success 200 {object} models.ImportSummary
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /api/v1/book/import [post]
func (h *BookHandler) ImportBook(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(middleware.NewBadRequestError("file is required", nil))
		return
	}
	if fileHeader.Size > h.cfg.MaxUploadSizeBytes {
		c.Error(middleware.NewBadRequestError(
			fmt.Sprintf("file exceeds the %d MB upload limit", h.cfg.MaxUploadSizeBytes>>20), nil))
		return
	}

	mode := models.ImportMode(c.DefaultPostForm("mode", string(models.ImportModeReplace)))
	if mode != models.ImportModeReplace && mode != models.ImportModeAdd {
		c.Error(middleware.NewBadRequestError(
			fmt.Sprintf("unknown mode %q, expected replace or add", mode), nil))
		return
	}
	if mode == models.ImportModeReplace {
		confirmed, _ := strconv.ParseBool(c.PostForm("confirmReplace"))
		if !confirmed {
			c.Error(middleware.NewConfirmRequiredError())
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(middleware.NewBadRequestError("uploaded file could not be opened", nil))
		return
	}
	defer file.Close()

	holder := c.GetString("request_id")
	if holder == "" {
		holder = uuid.New().String()
	}

	summary, err := h.coordinator.Run(c.Request.Context(), file, importer.Options{
		Mode:           mode,
		FileName:       fileHeader.Filename,
		FileSize:       fileHeader.Size,
		Holder:         holder,
		LockTTL:        h.cfg.ImportLockTTL,
		LegacyStatuses: h.cfg.LegacyStatuses,
	})
	if err != nil {
		switch e := err.(type) {
		case *workbook.ParseError:
			c.Error(middleware.NewWorkbookUnreadableError(e))
		case *importer.SchemaError:
			c.Error(middleware.NewSchemaInvalidError([]string{e.Error()}))
		default:
			c.Error(err)
		}
		return
	}

	h.publisher.PublishImportCompleted(summary)

	h.logger.WithFields(logrus.Fields{
		"mode":     string(mode),
		"file":     fileHeader.Filename,
		"imported": summary.TotalImported(),
		"errors":   summary.TotalErrors(),
	}).Info("Import run finished")
	c.JSON(http.StatusOK, summary)
}

// DownloadTemplate serves the blank import template
// @Summary Download the import template
// @Description Returns a blank workbook with the five import sheets, required-column markers, examples, and instructions.
// @Tags book
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /api/v1/book/import/template [get]
func (h *BookHandler) DownloadTemplate(c *gin.Context) {
	var buf bytes.Buffer
	if err := exporter.WriteImportTemplate(&buf); err != nil {
		c.Error(err)
		return
	}
	serveWorkbook(c, &buf, "book_import_template.xlsx")
}

// LockStatus reports the import lock
// @Summary Import lock status
// @Description Returns whether the import lock is currently held and by whom.
// @Tags book
// @Produce json
// @Success 200 {object} gin.H
// @Router /api/v1/book/import/lock [get]
func (h *BookHandler) LockStatus(c *gin.Context) {
	lock, err := h.locks.Current(c.Request.Context())
	if err != nil {
		c.Error(middleware.NewDatabaseError("failed to read import lock"))
		return
	}
	if lock == nil || lock.Expired(time.Now()) {
		c.JSON(http.StatusOK, gin.H{"held": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"held":       true,
		"holder":     lock.Holder,
		"acquiredAt": lock.AcquiredAt,
		"expiresAt":  lock.ExpiresAt,
	})
}

// ListAudits lists recent import runs
// @Summary List import audit records
// @Tags book
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 100)"
// @Success 200 {array} models.ImportAuditLog
// @Router /api/v1/book/import/audit [get]
func (h *BookHandler) ListAudits(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	logs, err := h.audits.List(c.Request.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		c.Error(middleware.NewDatabaseError("failed to list audit records"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":     page,
		"pageSize": pageSize,
		"items":    logs,
	})
}

// ExportBook serves the comprehensive export
// @Summary Export the book
// @Description Flattens accounts, revenues, relationships, sellers, and managers into one account-centric sheet.
// @Tags book
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /api/v1/book/export [post]
func (h *BookHandler) ExportBook(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.assembler.ExportComprehensive(c.Request.Context(), &buf); err != nil {
		c.Error(middleware.NewDatabaseError(fmt.Sprintf("export failed: %v", err)))
		return
	}
	serveWorkbook(c, &buf, fmt.Sprintf("book_export_%s.xlsx", time.Now().Format("20060102_150405")))
}

// ExportBackup serves the per-table backup export
// @Summary Export a full backup
// @Description Dumps each entity table as its own sheet in the import shape, suitable for a later replace-mode restore.
// @Tags book
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /api/v1/book/export/backup [post]
func (h *BookHandler) ExportBackup(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.assembler.ExportBackup(c.Request.Context(), &buf); err != nil {
		c.Error(middleware.NewDatabaseError(fmt.Sprintf("backup export failed: %v", err)))
		return
	}
	serveWorkbook(c, &buf, fmt.Sprintf("book_backup_%s.xlsx", time.Now().Format("20060102_150405")))
}

func serveWorkbook(c *gin.Context, buf *bytes.Buffer, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
