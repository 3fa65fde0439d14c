package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSSigner struct {
	client *gcs.Client
	now    func() time.Time
}

// NewGCSSigner builds a client from a credentials file or inline JSON; an
// empty value falls back to application default credentials.
func NewGCSSigner(ctx context.Context, credentials string) (*GCSSigner, error) {
	var opts []option.ClientOption
	credentials = strings.TrimSpace(credentials)
	switch {
	case strings.HasPrefix(credentials, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(credentials)))
	case credentials != "":
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	opts = append(opts, option.WithScopes(gcs.ScopeReadOnly))

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client failed: %w", err)
	}
	return &GCSSigner{client: client, now: time.Now}, nil
}

func (s *GCSSigner) SignURLs(_ context.Context, bucket string, paths []string, ttl time.Duration) (map[string]string, error) {
	handle := s.client.Bucket(bucket)
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: s.now().Add(ttl),
	}

	out := make(map[string]string, len(paths))
	var errs []error
	for _, p := range paths {
		u, err := handle.SignedURL(p, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("sign %s/%s: %w", bucket, p, err))
			continue
		}
		out[p] = u
	}
	if len(out) == 0 && len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

func (s *GCSSigner) Close() error {
	return s.client.Close()
}
