// Package studio は、UI 操作（生成・解析）ごとにリクエストの組み立てから結果の抽出、
// エラーの正規化までを取りまとめます。
//
// 同じ種類の操作は同時に1つまでしか実行しません。この制御は Studio が持ち、
// 下位の generator.ImageService はステートレスのまま並行に呼び出されます。
package studio

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/shouni/prisma-image-kit/pkg/adapters"
	"github.com/shouni/prisma-image-kit/pkg/domain"
	"github.com/shouni/prisma-image-kit/pkg/generator"
)

// guard は同じ種類の操作を1つに制限します。
// busy は状態の参照専用で、セマフォを取得せずに読めます。
type guard struct {
	sem  *semaphore.Weighted
	busy atomic.Bool
}

func newGuard() *guard {
	return &guard{sem: semaphore.NewWeighted(1)}
}

func (g *guard) tryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.busy.Store(true)
	return true
}

func (g *guard) release() {
	g.busy.Store(false)
	g.sem.Release(1)
}

// Studio は生成と解析の操作を提供します。
type Studio struct {
	svc        generator.ImageService
	generating *guard
	analyzing  *guard
}

// New は ImageService を注入して Studio を初期化します。
func New(svc generator.ImageService) (*Studio, error) {
	if svc == nil {
		return nil, errors.New("svc (generator.ImageService) is required")
	}
	return &Studio{
		svc:        svc,
		generating: newGuard(),
		analyzing:  newGuard(),
	}, nil
}

// Generate はプロンプトから画像を生成し、data URI を含む結果を返します。
//
// 空白のみのプロンプトは domain.ErrEmptyPrompt、実行中の生成がある場合は ErrBusy を返し、
// いずれもサービスを呼び出しません。それ以外の失敗は *domain.ServiceError に正規化されます。
func (s *Studio) Generate(ctx context.Context, prompt string) (*domain.ServiceResult, error) {
	req, err := domain.BuildGenerationRequest(prompt)
	if err != nil {
		return nil, err
	}

	if !s.generating.tryAcquire() {
		return nil, ErrBusy
	}
	defer s.generating.release()

	resp, err := s.svc.Generate(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, OpGenerate, err)
	}

	dataURI, err := adapters.ParseImage(resp)
	if err != nil {
		return nil, s.fail(ctx, OpGenerate, err)
	}
	return domain.NewImageResult(dataURI), nil
}

// Analyze は選択された画像をプロンプトとともに解析し、テキスト結果を返します。
// プロンプトが空の場合は既定の指示文が使われます。
func (s *Studio) Analyze(ctx context.Context, media domain.EncodedMedia, prompt string) (*domain.ServiceResult, error) {
	req, err := domain.BuildAnalysisRequest(media.Data, media.MIMEType, prompt)
	if err != nil {
		return nil, err
	}

	if !s.analyzing.tryAcquire() {
		return nil, ErrBusy
	}
	defer s.analyzing.release()

	resp, err := s.svc.Analyze(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, OpAnalyze, err)
	}
	return domain.NewTextResult(adapters.ParseText(resp)), nil
}

// InFlight は指定した操作が実行中かを返します。UI のボタン制御に使います。
// 実行中の操作には影響しません。
func (s *Studio) InFlight(op Operation) bool {
	if op == OpAnalyze {
		return s.analyzing.busy.Load()
	}
	return s.generating.busy.Load()
}

func (s *Studio) fail(ctx context.Context, op Operation, err error) *domain.ServiceError {
	svcErr := Normalize(op, err)
	logFailure(ctx, op, svcErr)
	return svcErr
}
