package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-corpse-kit/internal/builder"
	"github.com/shouni/go-corpse-kit/internal/config"
	"github.com/shouni/go-corpse-kit/internal/runner"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// ExecuteSolo は1体モードの対話フローを起動するのだ。
func ExecuteSolo(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	session, err := builder.BuildSoloSession(ctx, appCtx)
	if err != nil {
		return fmt.Errorf("セッションの構築に失敗したのだ: %w", err)
	}

	pub, err := builder.BuildPublisher(appCtx)
	if err != nil {
		return err
	}

	slog.Info("一人コープスモードを起動するのだ！",
		"style", session.Style().ID,
		"image_model", cfg.GeminiImageModel,
		"output_dir", cfg.Options.OutputDir)

	soloRunner := runner.NewSoloRunner(session, pub, cfg.Options, os.Stdin, os.Stdout)
	return soloRunner.Run(ctx)
}

// ExecuteTrio は3体同時モードの対話フローを起動するのだ。
func ExecuteTrio(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	session, err := builder.BuildTrioSession(ctx, appCtx)
	if err != nil {
		return fmt.Errorf("セッションの構築に失敗したのだ: %w", err)
	}

	pub, err := builder.BuildPublisher(appCtx)
	if err != nil {
		return err
	}

	slog.Info("3体コープスモードを起動するのだ！",
		"style", session.Style().ID,
		"image_model", cfg.GeminiImageModel,
		"text_model", cfg.GeminiModel,
		"output_dir", cfg.Options.OutputDir)

	trioRunner := runner.NewTrioRunner(session, pub, cfg.Options, os.Stdin, os.Stdout)
	return trioRunner.Run(ctx)
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、アプリケーションコンテキストを初期化して返すのだ。
// ライフサイクル管理用の context と設定オブジェクトを受け取るのだ。
// 初期化中にエラーが発生した場合は、AppContext のポインタとエラーを返すのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	timeout := cfg.Options.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	httpClient := httpkit.New(timeout)

	aiClient, err := builder.InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai client: %w", err)
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	appCtx := builder.NewAppContext(cfg, httpClient, aiClient, reader, writer)
	return &appCtx, nil
}
