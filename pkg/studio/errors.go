package studio

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shouni/prisma-image-kit/pkg/domain"
)

// Operation はユーザー操作の種別です。
type Operation string

const (
	OpGenerate Operation = "generate"
	OpAnalyze  Operation = "analyze"
)

const (
	GenerateFailedMessage = "Failed to generate image. Please try again."
	AnalyzeFailedMessage  = "Failed to analyze image. Please try again."
)

// ErrBusy は同じ種類の操作が実行中であることを示します。
var ErrBusy = errors.New("another request of the same kind is still in progress")

// FallbackMessage は操作ごとの汎用エラーメッセージを返します。
func FallbackMessage(op Operation) string {
	if op == OpAnalyze {
		return AnalyzeFailedMessage
	}
	return GenerateFailedMessage
}

// Normalize は任意の失敗を表示用の ServiceError に変換します。
// 失敗自体がメッセージを持っていればそれを使い、なければ操作ごとの汎用メッセージに置き換えます。
// 既に ServiceError であればそのまま返します。
func Normalize(op Operation, err error) *domain.ServiceError {
	if err == nil {
		return nil
	}

	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = FallbackMessage(op)
	}
	return &domain.ServiceError{Message: msg, Cause: err}
}

// logFailure は元のエラーを診断用に記録します。
func logFailure(ctx context.Context, op Operation, svcErr *domain.ServiceError) {
	slog.ErrorContext(ctx, "Gemini呼び出しに失敗しました",
		"operation", string(op),
		"message", svcErr.Message,
		"cause", svcErr.Cause,
	)
}
