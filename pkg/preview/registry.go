// Package preview は、選択中の画像を UI に表示するための一時的なプレビュー参照を管理します。
//
// プレビューは所有者（画面やセッション）ごとに1つだけ保持され、新しい選択で置き換えられた時、
// 明示的に解放された時、Registry が Close された時に破棄されます。
package preview

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/prisma-image-kit/pkg/imgutil"
)

const (
	DefaultMaxSide = 512
	DefaultQuality = 80
)

var (
	ErrClosed = errors.New("preview registry is closed")
	// ErrUnsupportedImage は JPEG に再エンコードできない画像（SVG など）を示します。
	ErrUnsupportedImage = errors.New("image format cannot be previewed")
)

// Preview は1つのプレビュー参照です。
type Preview struct {
	ID        string
	Owner     string
	Data      []byte
	MIMEType  string
	CreatedAt time.Time
}

// Registry はプレビュー参照の発行と破棄を行います。並行に利用できます。
type Registry struct {
	mu      sync.Mutex
	byID    map[string]*Preview
	byOwner map[string]string
	closed  bool

	maxSide int
	quality int
	now     func() time.Time
}

// Option は Registry の設定を変更します。
type Option func(*Registry)

// WithThumbnail はプレビューの最大辺と JPEG 品質を設定します。
// maxSide が 0 の場合は縮小せず、JPEG への再圧縮のみ行います。
func WithThumbnail(maxSide, quality int) Option {
	return func(r *Registry) {
		if maxSide >= 0 {
			r.maxSide = maxSide
		}
		if quality > 0 {
			r.quality = quality
		}
	}
}

// NewRegistry は空の Registry を作成します。
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byID:    make(map[string]*Preview),
		byOwner: make(map[string]string),
		maxSide: DefaultMaxSide,
		quality: DefaultQuality,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create は owner の新しいプレビューを作成し、以前のプレビューがあれば破棄します。
// プレビューは常に JPEG に再エンコードしたものを保持し、デコードできない形式は ErrUnsupportedImage を返します。
func (r *Registry) Create(owner string, data []byte, mimeType string) (*Preview, error) {
	thumb, err := r.shrink(data)
	if err != nil {
		slog.Debug("プレビューを作成できない形式です", "mime_type", mimeType, "error", err)
		return nil, fmt.Errorf("%w (%s)", ErrUnsupportedImage, mimeType)
	}
	p := &Preview{
		ID:       uuid.NewString(),
		Owner:    owner,
		Data:     thumb,
		MIMEType: "image/jpeg",
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	p.CreatedAt = r.now()
	if prev, ok := r.byOwner[owner]; ok {
		delete(r.byID, prev)
	}
	r.byID[p.ID] = p
	r.byOwner[owner] = p.ID
	return p, nil
}

func (r *Registry) shrink(data []byte) ([]byte, error) {
	if r.maxSide == 0 {
		return imgutil.CompressToJPEG(data, r.quality)
	}
	return imgutil.Thumbnail(data, r.maxSide, r.quality)
}

// Get は ID に対応するプレビューを返します。
func (r *Registry) Get(id string) (*Preview, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	return p, ok
}

// Release はプレビューを破棄します。存在しなかった場合は false を返します。
func (r *Registry) Release(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	if r.byOwner[p.Owner] == id {
		delete(r.byOwner, p.Owner)
	}
	return true
}

// ReleaseOwner は owner が保持しているプレビューを破棄します。
func (r *Registry) ReleaseOwner(owner string) bool {
	r.mu.Lock()
	id, ok := r.byOwner[owner]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return r.Release(id)
}

// Len は有効なプレビュー数を返します。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Close はすべてのプレビューを破棄し、以降の作成を拒否します。
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.byID)
	r.byID = make(map[string]*Preview)
	r.byOwner = make(map[string]string)
	r.closed = true
	slog.Info("プレビューをすべて解放しました", "count", n)
}
