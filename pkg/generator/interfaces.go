package generator

import (
	"context"

	"google.golang.org/genai"

	"github.com/shouni/prisma-image-kit/pkg/domain"
)

// ContentGenerator は Gemini の GenerateContent 呼び出しを抽象化します。
// *genai.Models がこれを満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImageService は生成と解析の2種類の要求をサービスへ送る窓口です。
// 戻り値は加工前のレスポンスで、解釈は呼び出し側（adapters パッケージ）が行います。
type ImageService interface {
	// Generate はプロンプトから画像を生成します。
	Generate(ctx context.Context, req domain.GenerationRequest) (*genai.GenerateContentResponse, error)
	// Analyze はインライン画像とプロンプトを送り、画像の解析結果を得ます。
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*genai.GenerateContentResponse, error)
}
