package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProcessorHandler exposes Pipeline A: document intake, processing and the
// transfer endpoints the pull-mode advisor polls.
type ProcessorHandler struct {
	processor *service.Processor
	bridge    *service.Bridge
	audit     service.AuditLog
	objects   *service.ObjectStore // nil when running without minio
	pushMode  bool
}

func NewProcessorHandler(processor *service.Processor, bridge *service.Bridge, audit service.AuditLog, objects *service.ObjectStore, pushMode bool) *ProcessorHandler {
	return &ProcessorHandler{
		processor: processor,
		bridge:    bridge,
		audit:     audit,
		objects:   objects,
		pushMode:  pushMode,
	}
}

// Upload handles document file upload and kicks off processing.
func (h *ProcessorHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".txt" && ext != ".md" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, TXT and MD files are allowed"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		switch ext {
		case ".pdf":
			contentType = "application/pdf"
		default:
			contentType = "text/plain"
		}
	}

	documentID := uuid.New().String()

	localPath, err := stashUpload(header.Filename, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file: " + err.Error()})
		return
	}

	if h.objects != nil {
		src, err := os.Open(localPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read stored file: " + err.Error()})
			return
		}
		defer src.Close()
		if _, err := h.objects.StoreSource(c.Request.Context(), documentID, header.Filename, src, header.Size, contentType); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file: " + err.Error()})
			return
		}
	}

	go h.runPipeline(documentID, localPath)

	c.JSON(http.StatusAccepted, gin.H{
		"id":       documentID,
		"filename": header.Filename,
		"status":   "received",
	})
}

// stashUpload writes the upload to a temp file for local extraction.
func stashUpload(filename string, src io.Reader) (string, error) {
	dir, err := os.MkdirTemp("", "legalassist-upload-")
	if err != nil {
		return "", err
	}
	localPath := filepath.Join(dir, filepath.Base(filename))
	dst, err := os.Create(localPath)
	if err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return localPath, nil
}

// runPipeline processes a document asynchronously and, in push mode, hands
// the finished result to the advisor.
func (h *ProcessorHandler) runPipeline(documentID, source string) {
	ctx := logger.WithDocument(context.Background(), documentID)
	defer os.RemoveAll(filepath.Dir(source))

	if _, err := h.processor.Process(ctx, documentID, source); err != nil {
		logger.Error(ctx, "pipeline failed", "error", err)
		return
	}
	if h.pushMode {
		if err := h.bridge.Deliver(ctx, documentID); err != nil {
			logger.Error(ctx, "delivery failed", "error", err)
		}
	}
}

// Process re-runs processing for a document, resuming from its current state.
func (h *ProcessorHandler) Process(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.processor.Result(id); errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	result, err := h.processor.Process(c.Request.Context(), id, "")
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		case errors.Is(err, service.ErrAlreadyReported):
			c.JSON(http.StatusConflict, gin.H{"error": "Document already reported"})
		default:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		}
		return
	}

	if h.pushMode {
		docID := id
		go func() {
			ctx := logger.WithDocument(context.Background(), docID)
			if err := h.bridge.Deliver(ctx, docID); err != nil {
				logger.Error(ctx, "delivery failed", "error", err)
			}
		}()
	}

	c.JSON(http.StatusOK, result)
}

// Get returns the document-scoped result: the document plus its clauses.
func (h *ProcessorHandler) Get(c *gin.Context) {
	id := c.Param("id")

	result, err := h.processor.Result(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStatus returns the processing status of a document.
func (h *ProcessorHandler) GetStatus(c *gin.Context) {
	id := c.Param("id")

	result, err := h.processor.Result(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        result.Document.ID,
		"status":    result.Document.Status,
		"tier":      result.Document.Tier,
		"error_msg": result.Document.ErrorMsg,
	})
}

// GetAudit returns the audit trail for a document.
func (h *ProcessorHandler) GetAudit(c *gin.Context) {
	id := c.Param("id")

	entries, err := h.audit.Entries(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No audit trail for document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// PollTransfers claims up to limit pending payloads for a pull-mode advisor.
func (h *ProcessorHandler) PollTransfers(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	payloads, err := h.bridge.PollBatch(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payloads": payloads})
}

// AckTransfer marks a claimed transfer delivered.
func (h *ProcessorHandler) AckTransfer(c *gin.Context) {
	id := c.Param("id")

	if err := h.bridge.Acknowledge(id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transfer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transfer acknowledged"})
}

// RequeueTransfer returns a claimed transfer to pending.
func (h *ProcessorHandler) RequeueTransfer(c *gin.Context) {
	id := c.Param("id")

	if err := h.bridge.Requeue(id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transfer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transfer requeued"})
}

// Health reports liveness.
func (h *ProcessorHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}
