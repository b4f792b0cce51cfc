package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	PhotoKindMaterial  = "material"
	PhotoKindFurniture = "furniture"

	// 1枚あたりの上限
	MaxPhotoBytes = 10 << 20
)

var allowedPhotoExt = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// 画像の保存先。戻り値は注文に保存する参照文字列。
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// handlerから渡されるアップロード1件。Filenameが空なら未指定扱い。
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

func (p *PhotoUpload) present() bool {
	return p != nil && p.Filename != ""
}

// 検証済みで書き込み待ちの画像
type pendingPhoto struct {
	kind string
	name string
	data []byte
}

// 拡張子とサイズを見て中身を読み込む
func readPhoto(orderID int64, kind string, p *PhotoUpload) (pendingPhoto, error) {
	ext := strings.ToLower(filepath.Ext(p.Filename))
	if _, ok := allowedPhotoExt[ext]; !ok {
		return pendingPhoto{}, ErrUploadRejected(fmt.Sprintf("%s photo: file type %q is not allowed", kind, ext))
	}
	if p.Size > MaxPhotoBytes {
		return pendingPhoto{}, ErrUploadRejected(fmt.Sprintf("%s photo: file exceeds %d bytes", kind, MaxPhotoBytes))
	}
	if p.Content == nil {
		return pendingPhoto{}, ErrUploadRejected(fmt.Sprintf("%s photo: empty content", kind))
	}

	// ヘッダのサイズは信用しない
	data, err := io.ReadAll(io.LimitReader(p.Content, MaxPhotoBytes+1))
	if err != nil {
		return pendingPhoto{}, ErrUploadRejected(fmt.Sprintf("%s photo: read failed", kind))
	}
	if len(data) > MaxPhotoBytes {
		return pendingPhoto{}, ErrUploadRejected(fmt.Sprintf("%s photo: file exceeds %d bytes", kind, MaxPhotoBytes))
	}

	return pendingPhoto{
		kind: kind,
		name: PhotoStorageKey(orderID, kind, p.Filename),
		data: data,
	}, nil
}

// "<order_id>_<kind>_<元のファイル名>"。パス区切りを含め、英数字と._-以外は"_"にする。
func PhotoStorageKey(orderID int64, kind string, filename string) string {
	return fmt.Sprintf("%d_%s_%s", orderID, kind, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "file"
	}
	return out
}
