package publisher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/pipeline"
)

// OutputWriter はデータを外部ストレージに保存するためのインターフェースです。
// remoteio.OutputWriter がそのままこれを満たします。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, mimeType string) error
}

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string   // 生成されたギャラリー Markdown のパス
	ImagePaths   []string // 保存された全画像のパスリスト
}

const (
	defaultGalleryName  = "corpse_gallery.md"
	defaultImageDirName = "images"
)

// CorpsePublisher は完成したコープスと生成履歴の永続化を担います。
// 履歴は表示専用データなので、ギャラリー Markdown にだけ流し込みます。
type CorpsePublisher struct {
	writer OutputWriter
}

// NewCorpsePublisher は CorpsePublisher を初期化するのだ。
func NewCorpsePublisher(writer OutputWriter) (*CorpsePublisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer (OutputWriter) is required")
	}
	return &CorpsePublisher{writer: writer}, nil
}

// Publish は各スロットのステージ画像と履歴画像を保存し、
// ギャラリー Markdown を書き出すのだ！
func (p *CorpsePublisher) Publish(ctx context.Context, snaps []pipeline.SlotSnapshot, opts Options) (PublishResult, error) {
	result := PublishResult{}

	galleryPath, err := ResolveOutputPath(opts.OutputDir, defaultGalleryName)
	if err != nil {
		return result, err
	}
	result.MarkdownPath = galleryPath

	imgDir, err := ResolveOutputPath(opts.OutputDir, defaultImageDirName)
	if err != nil {
		return result, err
	}

	for _, snap := range snaps {
		// 現在のステージ別画像
		for _, stage := range domain.Stages {
			h, ok := snap.Images[stage]
			if !ok {
				continue
			}
			name := fmt.Sprintf("%s_%s.%s", snap.ID, stage, h.Ext())
			saved, err := p.saveImage(ctx, imgDir, name, h)
			if err != nil {
				return result, err
			}
			result.ImagePaths = append(result.ImagePaths, saved)
		}

		// 生成履歴（やり直し分も含む全追記）
		for i, h := range snap.History {
			name := fmt.Sprintf("%s_history_%02d.%s", snap.ID, i+1, h.Ext())
			saved, err := p.saveImage(ctx, imgDir, name, h)
			if err != nil {
				return result, err
			}
			result.ImagePaths = append(result.ImagePaths, saved)
		}
	}

	content := p.buildMarkdown(snaps)
	if err := p.writer.Write(ctx, galleryPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("ギャラリーの書き込みに失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "コープスを保存したのだ",
		"gallery", galleryPath, "images", len(result.ImagePaths))
	return result, nil
}

// SaveImage は単一の画像ハンドルを指定ディレクトリへ保存し、保存先パスを返すのだ。
// ステージごとの途中保存（ランナーから呼ばれる）に使うのだ。
func (p *CorpsePublisher) SaveImage(ctx context.Context, outputDir, fileName string, h domain.ImageHandle) (string, error) {
	return p.saveImage(ctx, outputDir, fileName, h)
}

func (p *CorpsePublisher) saveImage(ctx context.Context, dir, fileName string, h domain.ImageHandle) (string, error) {
	mimeType, data, err := h.Decode()
	if err != nil {
		return "", fmt.Errorf("保存対象画像の展開に失敗しました: %w", err)
	}

	fullPath, err := ResolveOutputPath(dir, fileName)
	if err != nil {
		return "", err
	}

	if err := p.writer.Write(ctx, fullPath, bytes.NewReader(data), mimeType); err != nil {
		return "", fmt.Errorf("画像 '%s' の保存に失敗しました: %w", fullPath, err)
	}
	return fullPath, nil
}

// buildMarkdown はスロットごとのギャラリー Markdown を構築するのだ。
func (p *CorpsePublisher) buildMarkdown(snaps []pipeline.SlotSnapshot) string {
	var sb strings.Builder
	sb.WriteString("# Exquisite Corpse Gallery\n\n")

	for _, snap := range snaps {
		sb.WriteString(fmt.Sprintf("## %s\n\n", snap.ID))
		for _, stage := range domain.Stages {
			h, ok := snap.Images[stage]
			if !ok {
				continue
			}
			rel := path.Join(defaultImageDirName, fmt.Sprintf("%s_%s.%s", snap.ID, stage, h.Ext()))
			sb.WriteString(fmt.Sprintf("![%s %s](%s)\n", snap.ID, stage, filepath.ToSlash(rel)))
		}
		if len(snap.History) > 0 {
			sb.WriteString(fmt.Sprintf("\n生成履歴: %d 枚\n", len(snap.History)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
