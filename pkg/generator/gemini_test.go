package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/go-corpse-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

func TestGeminiBodyPartGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	modelName := "image-model"

	t.Run("成功: プロンプトとコンテキスト画像がパーツとして渡されるのだ", func(t *testing.T) {
		base := domain.NewImageHandle("image/jpeg", []byte("base-image"))

		ai := &mockAIClient{
			generateWithPartsFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				// テキスト(1) + 画像(1) = 2パーツあるはずなのだ
				if len(parts) != 2 {
					t.Errorf("expected 2 parts, got %d", len(parts))
				}
				if parts[0].Text != "a robot head" {
					t.Errorf("prompt mismatch: got %s", parts[0].Text)
				}
				if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "image/jpeg" {
					t.Error("コンテキスト画像がインラインパーツになっていないのだ")
				}
				return inlineImageResponse("image/png", []byte("generated")), nil
			},
		}

		gen, err := NewGeminiBodyPartGenerator(ai, modelName)
		if err != nil {
			t.Fatalf("初期化失敗なのだ: %v", err)
		}

		got, err := gen.Generate(ctx, "a robot head", base)
		if err != nil {
			t.Fatalf("error should be nil: %v", err)
		}

		mimeType, data, err := got.Decode()
		if err != nil {
			t.Fatalf("結果ハンドルがデコードできないのだ: %v", err)
		}
		if mimeType != "image/png" || string(data) != "generated" {
			t.Errorf("結果が違うのだ: %s / %s", mimeType, data)
		}
	})

	t.Run("ゼロ値のコンテキストは読み飛ばされるのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateWithPartsFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				if len(parts) != 1 {
					t.Errorf("expected 1 part, got %d", len(parts))
				}
				return inlineImageResponse("image/png", []byte("x")), nil
			},
		}

		gen, _ := NewGeminiBodyPartGenerator(ai, modelName)
		if _, err := gen.Generate(ctx, "a head", domain.ImageHandle("")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("画像パートが無い応答はErrNoImageなのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateWithPartsFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				return &gemini.Response{
					RawResponse: &genai.GenerateContentResponse{
						Candidates: []*genai.Candidate{{
							Content: &genai.Content{
								Parts: []*genai.Part{{Text: "ここに画像は無いのだ"}},
							},
						}},
					},
				}, nil
			},
		}

		gen, _ := NewGeminiBodyPartGenerator(ai, modelName)
		_, err := gen.Generate(ctx, "a head")
		if !errors.Is(err, domain.ErrNoImage) {
			t.Errorf("ErrNoImageであるべきなのだ: %v", err)
		}
	})

	t.Run("安全フィルターによる停止もErrNoImageとして扱われるのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateWithPartsFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				return &gemini.Response{
					RawResponse: &genai.GenerateContentResponse{
						Candidates: []*genai.Candidate{{
							FinishReason: genai.FinishReasonSafety,
						}},
					},
				}, nil
			},
		}

		gen, _ := NewGeminiBodyPartGenerator(ai, modelName)
		_, err := gen.Generate(ctx, "a head")
		if !errors.Is(err, domain.ErrNoImage) {
			t.Errorf("ErrNoImageであるべきなのだ: %v", err)
		}
	})

	t.Run("通信エラーはラップされて返るのだ", func(t *testing.T) {
		expectedErr := errors.New("ai error")
		ai := &mockAIClient{
			generateWithPartsFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				return nil, expectedErr
			},
		}

		gen, _ := NewGeminiBodyPartGenerator(ai, modelName)
		_, err := gen.Generate(ctx, "a head")
		if !errors.Is(err, expectedErr) {
			t.Errorf("元エラーに届かないのだ: %v", err)
		}
	})
}

func TestNewGeminiBodyPartGenerator(t *testing.T) {
	t.Run("nilチェック: 依存関係が足りない場合はエラーを返すのだ", func(t *testing.T) {
		if _, err := NewGeminiBodyPartGenerator(nil, "model"); err == nil {
			t.Error("expected error for nil client")
		}
		if _, err := NewGeminiBodyPartGenerator(&mockAIClient{}, ""); err == nil {
			t.Error("expected error for empty model")
		}
	})
}
