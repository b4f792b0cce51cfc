package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// Supabase Storageのバケットに保存する。参照文字列はバケット内のパス。
type SupabaseBlobStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewSupabaseBlobStore(supabaseURL, serviceRoleKey, bucket string) *SupabaseBlobStore {
	baseURL := strings.TrimRight(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &SupabaseBlobStore{
		client: client,
		bucket: bucket,
		prefix: "orders",
	}
}

func (s *SupabaseBlobStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	storagePath := s.prefix + "/" + name

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	//同じ注文・同じ種類は上書き
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return storagePath, nil
}
