package generator

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/prisma-image-kit/pkg/domain"
)

// GeminiService はプロセス内で1つだけ作られる Gemini 呼び出しの基盤です。
// 生成後は状態を持たないため、複数のゴルーチンから同時に呼び出せます。
// 呼び出しは1回のみ行い、リトライやエラーの解釈はしません。
type GeminiService struct {
	models          ContentGenerator
	generationModel string
	analysisModel   string
}

var _ ImageService = (*GeminiService)(nil)

// NewGeminiService は依存関係を注入して GeminiService を初期化します。
func NewGeminiService(models ContentGenerator, opts Options) (*GeminiService, error) {
	if models == nil {
		return nil, ErrModelsRequired
	}
	return &GeminiService{
		models:          models,
		generationModel: opts.generationModel(),
		analysisModel:   opts.analysisModel(),
	}, nil
}

// NewGeminiServiceFromAPIKey は API キーから genai クライアントを作成し、GeminiService を返します。
// 起動時に一度だけ呼び出してください。
func NewGeminiServiceFromAPIKey(ctx context.Context, opts Options) (*GeminiService, error) {
	if opts.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの作成に失敗しました: %w", err)
	}

	return NewGeminiService(client.Models, opts)
}

// Generate はプロンプトのテキストパーツ1つとアスペクト比の設定で画像生成モデルを呼び出します。
func (s *GeminiService) Generate(ctx context.Context, req domain.GenerationRequest) (*genai.GenerateContentResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
		},
	}

	slog.InfoContext(ctx, "Geminiに画像生成をリクエストします", "model", s.generationModel, "aspect_ratio", req.AspectRatio)
	return s.models.GenerateContent(ctx, s.generationModel, contents, config)
}

// Analyze はインライン画像、プロンプトの順にパーツを並べて画像理解モデルを呼び出します。
func (s *GeminiService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*genai.GenerateContentResponse, error) {
	if req.ImageData == "" {
		return nil, domain.ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil {
		return nil, fmt.Errorf("画像データのデコードに失敗しました: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, req.MIMEType),
		genai.NewPartFromText(req.Prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	slog.InfoContext(ctx, "Geminiに画像解析をリクエストします", "model", s.analysisModel, "mime_type", req.MIMEType, "bytes", len(data))
	return s.models.GenerateContent(ctx, s.analysisModel, contents, nil)
}
