package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ローカルディスクに保存する。参照文字列はファイル名そのもの。
type LocalBlobStore struct {
	basePath string
}

func NewLocalBlobStore(basePath string) *LocalBlobStore {
	return &LocalBlobStore{basePath: basePath}
}

// 保存ディレクトリを作る。失敗しても起動は止めない（呼び出し側でログ）。
func (s *LocalBlobStore) EnsureDir() error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("create upload dir %s: %w", s.basePath, err)
	}
	return nil
}

func (s *LocalBlobStore) BasePath() string {
	return s.basePath
}

func (s *LocalBlobStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// キーはサニタイズ済みだが、ディレクトリを跨ぐ名前は拒否
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid blob name %q", name)
	}

	full := filepath.Join(s.basePath, name)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", full, err)
	}
	return name, nil
}
