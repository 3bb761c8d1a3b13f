package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects under Dir/<bucket>/<key>. The directory is served
// at /uploads.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Name() string { return BackendLocal }

func (s *LocalStore) Put(_ context.Context, bucket, key, _ string, data []byte) (Object, error) {
	path, err := s.path(bucket, key)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Object{}, fmt.Errorf("write upload: %w", err)
	}
	return Object{
		Bucket:    bucket,
		Key:       key,
		PublicURL: s.BaseURL + "/uploads/" + bucket + "/" + key,
		Backend:   BackendLocal,
	}, nil
}

func (s *LocalStore) Delete(_ context.Context, bucket, key string) error {
	path, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (s *LocalStore) path(bucket, key string) (string, error) {
	if err := checkKey(bucket); err != nil {
		return "", err
	}
	if err := checkKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, bucket, filepath.FromSlash(key)), nil
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
