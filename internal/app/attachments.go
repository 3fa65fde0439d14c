package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"faqdesk/internal/model"
	"faqdesk/internal/pkg/logger"
	"faqdesk/internal/storage"
)

const (
	DefaultSignedURLTTL = 900 * time.Second
	maxSigningBuckets   = 4
)

type AttachmentStore interface {
	ListLinksByFAQID(ctx context.Context, faqID string) ([]model.AttachmentLink, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Attachment, error)
}

type SignedAttachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// AttachmentResolver turns the attachments linked to an entry into
// downloadable links. It never fails: anything it cannot sign is dropped.
type AttachmentResolver struct {
	store         AttachmentStore
	signer        storage.Signer
	defaultBucket string
	ttl           time.Duration
	log           *logger.Logger
}

func NewAttachmentResolver(store AttachmentStore, signer storage.Signer, defaultBucket string, ttl time.Duration, log *logger.Logger) *AttachmentResolver {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	if defaultBucket == "" {
		defaultBucket = "faq-files"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AttachmentResolver{
		store:         store,
		signer:        signer,
		defaultBucket: defaultBucket,
		ttl:           ttl,
		log:           log,
	}
}

func (r *AttachmentResolver) TTL() time.Duration {
	return r.ttl
}

type pendingAttachment struct {
	name   string
	path   string
	bucket string
	direct bool
}

// Resolve returns signed links in link order.
func (r *AttachmentResolver) Resolve(ctx context.Context, faqID string) []SignedAttachment {
	out := []SignedAttachment{}
	if strings.TrimSpace(faqID) == "" {
		return out
	}

	links, err := r.store.ListLinksByFAQID(ctx, faqID)
	if err != nil {
		r.log.Warn("list attachment links failed", "faq_id", faqID, "error", err)
		return out
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		if l.AttachmentID != "" {
			ids = append(ids, l.AttachmentID)
		}
	}
	if len(ids) == 0 {
		return out
	}

	records, err := r.store.ListByIDs(ctx, ids)
	if err != nil {
		r.log.Warn("list attachments failed", "faq_id", faqID, "error", err)
		return out
	}
	byID := make(map[string]model.Attachment, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	pending := make([]pendingAttachment, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			continue
		}
		p := strings.TrimSpace(rec.Path)
		if p == "" {
			continue
		}
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			name = storage.FileNameFromPath(p)
		}
		bucket := strings.TrimSpace(rec.Bucket)
		if bucket == "" {
			bucket = r.defaultBucket
		}
		pending = append(pending, pendingAttachment{name: name, path: p, bucket: bucket, direct: storage.IsDirectURL(p)})
	}

	signed := r.signAll(ctx, faqID, pending)
	for _, p := range pending {
		url := p.path
		if !p.direct {
			url = signed[p.bucket][p.path]
		}
		if url == "" {
			continue
		}
		out = append(out, SignedAttachment{Name: p.name, Path: p.path, URL: url})
	}
	return out
}

// signAll issues one batched signing call per bucket, buckets in parallel.
func (r *AttachmentResolver) signAll(ctx context.Context, faqID string, pending []pendingAttachment) map[string]map[string]string {
	byBucket := make(map[string][]string)
	seen := make(map[string]bool)
	for _, p := range pending {
		key := p.bucket + "\x00" + p.path
		if p.direct || seen[key] {
			continue
		}
		seen[key] = true
		byBucket[p.bucket] = append(byBucket[p.bucket], p.path)
	}

	var (
		mu     sync.Mutex
		signed = make(map[string]map[string]string, len(byBucket))
		g      errgroup.Group
	)
	if len(byBucket) == 0 || r.signer == nil {
		return signed
	}
	g.SetLimit(maxSigningBuckets)
	for bucket, paths := range byBucket {
		g.Go(func() error {
			urls, err := r.signer.SignURLs(ctx, bucket, paths, r.ttl)
			if err != nil {
				r.log.Warn("sign attachments failed", "faq_id", faqID, "bucket", bucket, "count", len(paths), "error", err)
			}
			if len(urls) == 0 {
				return nil
			}
			mu.Lock()
			signed[bucket] = urls
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return signed
}
