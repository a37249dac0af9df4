package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File stores each document as <root>/<key>.json. Suitable for single-node
// deployments and local development; writes are not atomic across documents.
type File struct {
	root string
}

func NewFile(root string) (*File, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &File{root: root}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key)+".json")
}

func (f *File) Get(_ context.Context, key string, into any) error {
	raw, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read document %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode document %s: %w", key, err)
	}
	return nil
}

func (f *File) Put(_ context.Context, key string, doc any) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document dir %s: %w", key, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", key, err)
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}

func (f *File) List(_ context.Context, prefix string) ([]string, error) {
	dir := filepath.Join(f.root, filepath.FromSlash(prefix))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", prefix, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

func (f *File) DeleteAll(_ context.Context, prefix string) error {
	dir := filepath.Join(f.root, filepath.FromSlash(prefix))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete documents %s: %w", prefix, err)
	}
	return nil
}
