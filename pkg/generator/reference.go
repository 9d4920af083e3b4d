package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/style"

	"github.com/shouni/gemini-image-kit/imgutil"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

const (
	// ReferenceJPEGQuality は参照画像を再エンコードするときのJPEG品質なのだ。
	// 生成コンテキストとして送るだけなので、非可逆で十分なのだ。
	ReferenceJPEGQuality = 75

	cacheKeyStyleRef = "styleref:"
)

// ReferenceLoader はスタイル参照画像を取得し、JPEGへ再エンコードして
// 画像ハンドルに変換します。結果はスタイルIDをキーにキャッシュされるため、
// 同じスタイルでステージを進める間は再取得が走りません。
// スタイルを切り替えるとキーが変わるので、古いスタイルのキャッシュが
// 新しいスタイルの生成へ混ざることはありません。
type ReferenceLoader struct {
	httpClient HTTPClient
	reader     remoteio.InputReader
	cache      ImageCacher
	expiration time.Duration
}

// NewReferenceLoader は依存関係を注入して ReferenceLoader を初期化します。
// cache は nil を許容（キャッシュなし動作）。
func NewReferenceLoader(httpClient HTTPClient, reader remoteio.InputReader, cache ImageCacher, cacheTTL time.Duration) (*ReferenceLoader, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	return &ReferenceLoader{
		httpClient: httpClient,
		reader:     reader,
		cache:      cache,
		expiration: cacheTTL,
	}, nil
}

// Load はスタイルの参照画像を画像ハンドルとして返すのだ。
// 取得失敗・デコード失敗は domain.FetchError として呼び出し元へ返すのだよ。
func (rl *ReferenceLoader) Load(ctx context.Context, st style.Style) (domain.ImageHandle, error) {
	cacheKey := cacheKeyStyleRef + string(st.ID)
	if rl.cache != nil {
		if val, ok := rl.cache.Get(cacheKey); ok {
			if h, ok := val.(domain.ImageHandle); ok {
				return h, nil
			}
		}
	}

	data, err := rl.fetchBytes(ctx, st.ReferencePath)
	if err != nil {
		return "", &domain.FetchError{Path: st.ReferencePath, Err: err}
	}

	// デコード → JPEG再エンコード。中間のデコード資源はこの呼び出し内で完結する
	jpegData, err := imgutil.CompressToJPEG(bytes.NewReader(data), ReferenceJPEGQuality)
	if err != nil {
		return "", &domain.FetchError{Path: st.ReferencePath, Err: fmt.Errorf("画像のデコードに失敗しました: %w", err)}
	}

	handle := domain.NewImageHandle("image/jpeg", jpegData)
	if rl.cache != nil {
		rl.cache.Set(cacheKey, handle, rl.expiration)
	}
	return handle, nil
}

// fetchBytes はパスの形式に応じて取得手段を切り替えるのだ。
// http(s) は HTTPクライアント、それ以外（ローカルパスや gs://）はリーダーなのだ。
func (rl *ReferenceLoader) fetchBytes(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return rl.httpClient.FetchBytes(ctx, path)
	}

	rc, err := rl.reader.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
