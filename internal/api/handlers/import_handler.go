// internal/api/handlers/import_handler.go
package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poslytics/backend/internal/cache"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/service"
)

type ImportHandler struct {
	imports *service.ImportService
	status  cache.ImportStatusCache
}

func NewImportHandler(imports *service.ImportService, status cache.ImportStatusCache) *ImportHandler {
	if status == nil {
		status = cache.NewNoopImportStatusCache()
	}
	return &ImportHandler{imports: imports, status: status}
}

// ImportSales accepts a Z-report spreadsheet and imports it synchronously.
func (h *ImportHandler) ImportSales(c *gin.Context) {
	fileName, data, ok := readUpload(c)
	if !ok {
		return
	}

	var author *string
	if v := strings.TrimSpace(c.PostForm("author")); v != "" {
		author = &v
	}

	result, err := h.imports.ImportSales(c.Request.Context(), fileName, data, author)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(statusForImport(result), result)
}

// ImportCogs accepts a cost spreadsheet and backfills COGS on stored records.
func (h *ImportHandler) ImportCogs(c *gin.Context) {
	fileName, data, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := h.imports.ImportCogs(c.Request.Context(), fileName, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(statusForImport(result), result)
}

// ImportLogs lists recent import attempts, newest first.
func (h *ImportHandler) ImportLogs(c *gin.Context) {
	limit := 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}

	logs, err := h.imports.ImportLogs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// ImportStatus reports the state of a background import job.
func (h *ImportHandler) ImportStatus(c *gin.Context) {
	jobID := c.Param("job_id")
	status, found, err := h.status.Get(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job id"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func readUpload(c *gin.Context) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return "", nil, false
	}

	data, err := readMultipartFile(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func statusForImport(result *domain.ImportResult) int {
	if result.Status == domain.ImportFailed {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}
