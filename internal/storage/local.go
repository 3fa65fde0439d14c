package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LocalSigner serves objects from a directory tree laid out as
// <root>/<bucket>/<path>. Signed URLs carry an HS256 token naming the object.
type LocalSigner struct {
	root    string
	secret  []byte
	baseURL string
	now     func() time.Time
}

type downloadClaims struct {
	Bucket string `json:"bkt"`
	Path   string `json:"path"`
	jwt.RegisteredClaims
}

func NewLocalSigner(root, secret, baseURL string) *LocalSigner {
	return &LocalSigner{
		root:    root,
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (s *LocalSigner) SignURLs(_ context.Context, bucket string, paths []string, ttl time.Duration) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	var errs []error
	for _, p := range paths {
		if _, err := s.Resolve(bucket, p); err != nil {
			errs = append(errs, err)
			continue
		}
		token, err := s.sign(bucket, p, ttl)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[p] = s.baseURL + "/api/v1/files/download?token=" + url.QueryEscape(token)
	}
	if len(out) == 0 && len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

// Verify checks a download token and returns the object it names.
func (s *LocalSigner) Verify(token string) (bucket, objectPath string, err error) {
	claims := &downloadClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", "", fmt.Errorf("parse download token failed: %w", err)
	}
	if !parsed.Valid || claims.Path == "" {
		return "", "", fmt.Errorf("invalid download token")
	}
	return claims.Bucket, claims.Path, nil
}

// Resolve maps bucket and object path to a file under root, refusing paths
// that escape it.
func (s *LocalSigner) Resolve(bucket, objectPath string) (string, error) {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	clean := filepath.Clean("/" + filepath.FromSlash(objectPath))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	full := filepath.Join(s.root, bucket, clean)

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s/%s: %w", bucket, objectPath, ErrObjectNotFound)
		}
		return "", fmt.Errorf("stat object failed: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s/%s: %w", bucket, objectPath, ErrObjectNotFound)
	}
	return full, nil
}

func (s *LocalSigner) sign(bucket, objectPath string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := downloadClaims{
		Bucket: bucket,
		Path:   objectPath,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign download token failed: %w", err)
	}
	return token, nil
}
