package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/docchat/internal/auth"
	"github.com/suPer8Hu/docchat/internal/common"
	"github.com/suPer8Hu/docchat/internal/document"
	"github.com/suPer8Hu/docchat/internal/metrics"
)

func (h *Handler) UploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "cannot read file")
		return
	}
	data, err := document.ReadUpload(f, fh.Size)
	_ = f.Close()
	if err != nil {
		var ve *document.ValidationError
		if errors.As(err, &ve) {
			metrics.DocumentUploadsTotal.WithLabelValues("rejected").Inc()
			h.serviceError(c, err)
			return
		}
		common.Fail(c, http.StatusBadRequest, 10002, "cannot read file")
		return
	}

	doc, err := h.Documents.Upload(c.Request.Context(), auth.UserID(c), fh.Filename, data)
	if err != nil {
		var ve *document.ValidationError
		if errors.As(err, &ve) {
			metrics.DocumentUploadsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.DocumentUploadsTotal.WithLabelValues("failed").Inc()
		}
		h.serviceError(c, err)
		return
	}
	metrics.DocumentUploadsTotal.WithLabelValues("indexed").Inc()

	common.OK(c, gin.H{
		"message":     "Document uploaded and indexed successfully",
		"document_id": doc.ID,
		"status":      doc.Status,
	})
}

func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.Documents.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, docs)
}

func documentID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid document id")
		return 0, false
	}
	return id, true
}

func (h *Handler) GetDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	doc, err := h.Documents.Get(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, doc)
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}
	if err := h.Documents.Delete(c.Request.Context(), auth.UserID(c), id); err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, gin.H{"message": "Document deleted successfully"})
}
