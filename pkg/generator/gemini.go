package generator

import (
	"context"
	"fmt"

	"github.com/shouni/go-corpse-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

// GeminiBodyPartGenerator は、身体パーツ1枚分の画像生成を担当する実体です。
// 1リクエスト = テキストプロンプト + 0〜2枚のインライン画像コンテキスト。
// リトライもタイムアウトも持ちません。失敗の扱いは呼び出し元の責務です。
type GeminiBodyPartGenerator struct {
	aiClient gemini.GenerativeModel
	model    string
}

// NewGeminiBodyPartGenerator は GeminiBodyPartGenerator を初期化するのだ。
func NewGeminiBodyPartGenerator(aiClient gemini.GenerativeModel, model string) (*GeminiBodyPartGenerator, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (gemini.GenerativeModel) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &GeminiBodyPartGenerator{
		aiClient: aiClient,
		model:    model,
	}, nil
}

// Generate は生成エンドポイントを1回呼び、応答の最初の画像パートを返すのだ。
// 応答に画像パートがひとつも無い場合は domain.ErrNoImage を返すのだよ。
func (g *GeminiBodyPartGenerator) Generate(ctx context.Context, prompt string, contexts ...domain.ImageHandle) (domain.ImageHandle, error) {
	parts := []*genai.Part{{Text: prompt}}

	for _, h := range contexts {
		if h.IsZero() {
			continue
		}
		mimeType, data, err := h.Decode()
		if err != nil {
			return "", fmt.Errorf("コンテキスト画像の展開に失敗しました: %w", err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: mimeType, Data: data},
		})
	}

	resp, err := g.aiClient.GenerateWithParts(ctx, g.model, parts, gemini.GenerateOptions{})
	if err != nil {
		return "", fmt.Errorf("生成エンドポイントの呼び出しに失敗しました: %w", err)
	}

	return firstImageHandle(resp)
}

// firstImageHandle は応答パート列から最初のインライン画像を取り出します。
// テキストパートは読み飛ばします（応答は画像とテキストの混在列のため）。
func firstImageHandle(resp *gemini.Response) (domain.ImageHandle, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return "", fmt.Errorf("生成エンドポイントから有効な応答がありませんでした")
	}

	candidate := resp.RawResponse.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return domain.NewImageHandle(part.InlineData.MIMEType, part.InlineData.Data), nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return "", fmt.Errorf("画像生成が異常終了しました (FinishReason: %s): %w", candidate.FinishReason, domain.ErrNoImage)
	}

	return "", domain.ErrNoImage
}
