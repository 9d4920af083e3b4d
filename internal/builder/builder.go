package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-corpse-kit/internal/config"
	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/generator"
	"github.com/shouni/go-corpse-kit/pkg/pipeline"
	"github.com/shouni/go-corpse-kit/pkg/prompt"
	"github.com/shouni/go-corpse-kit/pkg/publisher"
	"github.com/shouni/go-corpse-kit/pkg/style"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

// BuildSoloSession は一人プレイ用（1スロット）のセッションを構築します。
func BuildSoloSession(ctx context.Context, appCtx *AppContext) (*pipeline.Session, error) {
	return buildSession(appCtx, []domain.SlotID{domain.SoloSlot})
}

// BuildTrioSession は三体同時生成用のセッションを構築します。
func BuildTrioSession(ctx context.Context, appCtx *AppContext) (*pipeline.Session, error) {
	return buildSession(appCtx, domain.TrioSlots())
}

func buildSession(appCtx *AppContext, slots []domain.SlotID) (*pipeline.Session, error) {
	st, err := ResolveStyle(appCtx.Options)
	if err != nil {
		return nil, err
	}

	imgGen, err := generator.NewGeminiBodyPartGenerator(appCtx.aiClient, appCtx.Config.GeminiImageModel)
	if err != nil {
		return nil, fmt.Errorf("画像ジェネレーターの初期化に失敗したのだ: %w", err)
	}

	cache := gocache.New(config.DefaultCacheTTL, config.DefaultCacheTTL)
	refs, err := generator.NewReferenceLoader(appCtx.httpClient, appCtx.Reader, cache, config.DefaultCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("参照画像ローダーの初期化に失敗したのだ: %w", err)
	}

	filler, err := prompt.NewFillerSource(appCtx.aiClient, appCtx.Config.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("お任せフレーズソースの初期化に失敗したのだ: %w", err)
	}

	return pipeline.NewSession(pipeline.Config{
		Style:        st,
		Slots:        slots,
		ImageGen:     imgGen,
		References:   refs,
		Filler:       filler,
		RateInterval: appCtx.Options.RateInterval,
	})
}

// BuildPublisher はコープス保存用のパブリッシャーを構築します。
func BuildPublisher(appCtx *AppContext) (*publisher.CorpsePublisher, error) {
	pub, err := publisher.NewCorpsePublisher(appCtx.Writer)
	if err != nil {
		return nil, fmt.Errorf("パブリッシャーの初期化に失敗しました: %w", err)
	}
	return pub, nil
}

// ResolveStyle は CLI オプションからスタイル定義を解決するのだ。
// --style-ref が指定されている場合はカタログの参照画像パスを上書きする。
func ResolveStyle(opts config.RunOptions) (style.Style, error) {
	st, err := style.Find(style.ID(opts.StyleID))
	if err != nil {
		return style.Style{}, fmt.Errorf("スタイルの解決に失敗しました: %w", err)
	}
	if opts.StyleRefPath != "" {
		st.ReferencePath = opts.StyleRefPath
	}
	return st, nil
}

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	const defaultGeminiTemperature = float32(0.2)
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}
