package generator

import "errors"

const (
	// DefaultGenerationModel は画像生成に使うモデルです。
	DefaultGenerationModel = "gemini-2.5-flash-image"
	// DefaultAnalysisModel は画像理解に使うモデルです。
	DefaultAnalysisModel = "gemini-2.5-flash"
)

var (
	ErrAPIKeyRequired = errors.New("Gemini API キーが設定されていません")
	ErrModelsRequired = errors.New("models (ContentGenerator) is required")
)

// Options はサービス初期化用の設定です。
// モデル名が空の場合はデフォルト値を使用します。
type Options struct {
	APIKey          string
	GenerationModel string
	AnalysisModel   string
}

func (o Options) generationModel() string {
	if o.GenerationModel == "" {
		return DefaultGenerationModel
	}
	return o.GenerationModel
}

func (o Options) analysisModel() string {
	if o.AnalysisModel == "" {
		return DefaultAnalysisModel
	}
	return o.AnalysisModel
}
