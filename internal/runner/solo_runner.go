package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shouni/go-corpse-kit/internal/config"
	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/pipeline"
	"github.com/shouni/go-corpse-kit/pkg/publisher"
)

// CorpseRunner は対話型のコープス生成フローを実行するインターフェースです。
type CorpseRunner interface {
	Run(ctx context.Context) error
}

// SoloRunner は1体のコープスを head → torso → legs の順で対話的に組み立てる実体。
// 各ステージの失敗は致命ではなく、同じステージの再入力として扱うのだ。
type SoloRunner struct {
	session *pipeline.Session
	pub     *publisher.CorpsePublisher
	options config.RunOptions
	in      io.Reader
	out     io.Writer
}

// NewSoloRunner は SoloRunner の新しいインスタンスを生成して返す。
func NewSoloRunner(session *pipeline.Session, pub *publisher.CorpsePublisher, options config.RunOptions, in io.Reader, out io.Writer) *SoloRunner {
	return &SoloRunner{
		session: session,
		pub:     pub,
		options: options,
		in:      in,
		out:     out,
	}
}

// Run は全ステージを順番に進め、完成したコープスを保存するメインロジックなのだ。
func (sr *SoloRunner) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(sr.in)
	fmt.Fprintf(sr.out, "スタイル '%s' で一人コープスを始めるのだ！\n", sr.session.Style().Name)

	for _, stage := range domain.Stages {
		if err := sr.runStage(ctx, scanner, stage); err != nil {
			return err
		}
	}

	result, err := sr.pub.Publish(ctx, sr.session.Snapshot(), publisher.Options{OutputDir: sr.options.OutputDir})
	if err != nil {
		return fmt.Errorf("コープスの保存に失敗したのだ: %w", err)
	}

	fmt.Fprintf(sr.out, "コープスが完成したのだ！ギャラリー: %s\n", result.MarkdownPath)
	return nil
}

// runStage は単一ステージの入力と生成を、成功するまで繰り返すのだ。
func (sr *SoloRunner) runStage(ctx context.Context, scanner *bufio.Scanner, stage domain.Stage) error {
	for {
		fmt.Fprintf(sr.out, "%s を描写するフレーズを入力してほしいのだ> ", stage)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("入力の読み取りに失敗しました: %w", err)
			}
			return fmt.Errorf("入力が途中で終了したのだ（ステージ: %s）", stage)
		}
		phrase := strings.TrimSpace(scanner.Text())

		outcome, err := sr.session.AdvanceSolo(ctx, stage, phrase)
		if err != nil {
			if domain.IsValidation(err) {
				fmt.Fprintf(sr.out, "入力をやり直してほしいのだ: %v\n", err)
				continue
			}
			// 生成失敗は再試行可能。通知は一度だけ出して同じステージに留まるのだ。
			slog.ErrorContext(ctx, "ステージ生成に失敗したのだ", "stage", stage, "error", err)
			fmt.Fprintln(sr.out, "画像の生成に失敗したのだ。もう一度試してほしいのだ。")
			continue
		}

		saveStageImage(ctx, sr.pub, sr.options.OutputDir, stage, outcome)
		fmt.Fprintf(sr.out, "%s が描き上がったのだ！\n", stage)
		return nil
	}
}
