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

// TrioRunner は3体のコープスを同時に組み立てる対話フローの実体。
// 各ステージでプレイヤーのフレーズは担当スロットに入り、残り2体には
// お任せフレーズが充てられる。担当はステージごとに持ち回りなのだ。
type TrioRunner struct {
	session *pipeline.Session
	pub     *publisher.CorpsePublisher
	options config.RunOptions
	in      io.Reader
	out     io.Writer
}

// NewTrioRunner は TrioRunner の新しいインスタンスを生成して返す。
func NewTrioRunner(session *pipeline.Session, pub *publisher.CorpsePublisher, options config.RunOptions, in io.Reader, out io.Writer) *TrioRunner {
	return &TrioRunner{
		session: session,
		pub:     pub,
		options: options,
		in:      in,
		out:     out,
	}
}

// Run は全ステージを順番に進め、完成した3体のコープスを保存するのだ。
// 1ステージは3体まとめて成功するか、まとめて失敗するかのどちらかなのだ。
func (tr *TrioRunner) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(tr.in)
	slots := tr.session.SlotIDs()
	fmt.Fprintf(tr.out, "スタイル '%s' で3体コープスを始めるのだ！\n", tr.session.Style().Name)

	for i, stage := range domain.Stages {
		active := slots[i%len(slots)]
		if err := tr.runStage(ctx, scanner, stage, active); err != nil {
			return err
		}
	}

	result, err := tr.pub.Publish(ctx, tr.session.Snapshot(), publisher.Options{OutputDir: tr.options.OutputDir})
	if err != nil {
		return fmt.Errorf("コープスの保存に失敗したのだ: %w", err)
	}

	fmt.Fprintf(tr.out, "3体のコープスが完成したのだ！ギャラリー: %s\n", result.MarkdownPath)
	return nil
}

func (tr *TrioRunner) runStage(ctx context.Context, scanner *bufio.Scanner, stage domain.Stage, active domain.SlotID) error {
	for {
		fmt.Fprintf(tr.out, "[%s 担当: %s] フレーズを入力してほしいのだ> ", stage, active)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("入力の読み取りに失敗しました: %w", err)
			}
			return fmt.Errorf("入力が途中で終了したのだ（ステージ: %s）", stage)
		}
		phrase := strings.TrimSpace(scanner.Text())

		outcomes, err := tr.session.Advance(ctx, stage, active, phrase)
		if err != nil {
			if domain.IsValidation(err) {
				fmt.Fprintf(tr.out, "入力をやり直してほしいのだ: %v\n", err)
				continue
			}
			// 1体でも失敗したら3体ともやり直し。通知は一度だけなのだ。
			slog.ErrorContext(ctx, "ステージ生成に失敗したのだ", "stage", stage, "active", active, "error", err)
			fmt.Fprintln(tr.out, "画像の生成に失敗したのだ。このステージをもう一度試してほしいのだ。")
			continue
		}

		for _, oc := range outcomes {
			if oc.Filler {
				fmt.Fprintf(tr.out, "  %s にはお任せで『%s』を使ったのだ\n", oc.Slot, oc.Phrase)
			}
			saveStageImage(ctx, tr.pub, tr.options.OutputDir, stage, oc)
		}
		fmt.Fprintf(tr.out, "%s が3体ぶん描き上がったのだ！\n", stage)
		return nil
	}
}
