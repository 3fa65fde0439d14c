package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"faqdesk/internal/app"
	"faqdesk/internal/pkg/logger"
	"faqdesk/internal/storage"
	"faqdesk/internal/transport/http/response"
)

const maxSignPaths = 50

type FileHandler struct {
	signer storage.Signer
	local  *storage.LocalSigner
	bucket string
	ttl    time.Duration
	log    *logger.Logger
}

type SignedFilesResponse struct {
	ExpiresIn int                    `json:"expires_in"`
	Items     []app.SignedAttachment `json:"items"`
}

// NewFileHandler builds the file endpoints. local is nil unless objects are
// served by this process.
func NewFileHandler(signer storage.Signer, local *storage.LocalSigner, bucket string, ttl time.Duration, log *logger.Logger) *FileHandler {
	if ttl <= 0 {
		ttl = app.DefaultSignedURLTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FileHandler{signer: signer, local: local, bucket: bucket, ttl: ttl, log: log}
}

// Signed signs ?path= or comma separated ?paths= in the default bucket.
func (h *FileHandler) Signed(c *gin.Context) {
	paths := collectPaths(c.Query("path"), c.Query("paths"))
	if len(paths) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing path")
		return
	}
	if len(paths) > maxSignPaths {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "too many paths")
		return
	}

	var toSign []string
	for _, p := range paths {
		if !storage.IsDirectURL(p) {
			toSign = append(toSign, p)
		}
	}

	signed := map[string]string{}
	if len(toSign) > 0 {
		urls, err := h.signer.SignURLs(c.Request.Context(), h.bucket, toSign, h.ttl)
		if err != nil {
			h.log.Warn("sign files failed", "bucket", h.bucket, "count", len(toSign), "error", err)
		}
		if urls != nil {
			signed = urls
		}
	}

	items := make([]app.SignedAttachment, 0, len(paths))
	for _, p := range paths {
		url := p
		if !storage.IsDirectURL(p) {
			url = signed[p]
		}
		if url == "" {
			continue
		}
		items = append(items, app.SignedAttachment{Name: storage.FileNameFromPath(p), Path: p, URL: url})
	}
	if len(items) == 0 {
		response.Error(c, http.StatusInternalServerError, response.CodeSigningFailed, "sign failed")
		return
	}

	response.OK(c, SignedFilesResponse{ExpiresIn: int(h.ttl.Seconds()), Items: items})
}

// Download serves a locally stored object named by a signed token.
func (h *FileHandler) Download(c *gin.Context) {
	if h.local == nil {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "not found")
		return
	}
	bucket, objectPath, err := h.local.Verify(c.Query("token"))
	if err != nil {
		response.Error(c, http.StatusForbidden, response.CodeInvalidToken, "invalid or expired token")
		return
	}
	full, err := h.local.Resolve(bucket, objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "file not found")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid object")
		return
	}
	c.FileAttachment(full, storage.FileNameFromPath(objectPath))
}

func collectPaths(single, multi string) []string {
	raw := []string{single}
	raw = append(raw, strings.Split(multi, ",")...)

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
