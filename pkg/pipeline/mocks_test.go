package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/style"
)

// --- Mocks ---

// genCall は画像ジェネレーターへの1呼び出しの記録なのだ。
type genCall struct {
	prompt   string
	contexts []domain.ImageHandle
}

// mockImageGen は呼び出しを記録する画像ジェネレーターなのだ。
// fn が無い場合は「プロンプト＋コンテキスト」を埋め込んだハンドルを返すので、
// どの入力から作られた画像かを後から検証できるのだ。
type mockImageGen struct {
	mu    sync.Mutex
	calls []genCall
	fn    func(ctx context.Context, prompt string, contexts ...domain.ImageHandle) (domain.ImageHandle, error)
}

func (m *mockImageGen) Generate(ctx context.Context, prompt string, contexts ...domain.ImageHandle) (domain.ImageHandle, error) {
	m.mu.Lock()
	m.calls = append(m.calls, genCall{prompt: prompt, contexts: append([]domain.ImageHandle(nil), contexts...)})
	m.mu.Unlock()

	if m.fn != nil {
		return m.fn(ctx, prompt, contexts...)
	}

	payload := prompt
	for _, c := range contexts {
		payload += "|" + string(c)
	}
	return domain.NewImageHandle("image/png", []byte(payload)), nil
}

func (m *mockImageGen) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockRefSource struct {
	mu     sync.Mutex
	handle domain.ImageHandle
	err    error
	called int
}

func (m *mockRefSource) Load(ctx context.Context, st style.Style) (domain.ImageHandle, error) {
	m.mu.Lock()
	m.called++
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.handle.IsZero() {
		return domain.NewImageHandle("image/jpeg", []byte("ref:"+string(st.ID))), nil
	}
	return m.handle, nil
}

// mockPhraseSource は呼び出しごとに一意のフレーズを返す供給元なのだ。
type mockPhraseSource struct {
	mu     sync.Mutex
	called int
}

func (m *mockPhraseSource) Phrase(ctx context.Context, stage domain.Stage, st style.Style) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called++
	return fmt.Sprintf("filler %s phrase %d", stage, m.called)
}
