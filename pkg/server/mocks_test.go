package server

import (
	"context"

	"google.golang.org/genai"

	"github.com/shouni/prisma-image-kit/pkg/domain"
)

// --- Mocks ---

// mockService は generator.ImageService を実装します。
type mockService struct {
	generateFunc func(ctx context.Context, req domain.GenerationRequest) (*genai.GenerateContentResponse, error)
	analyzeFunc  func(ctx context.Context, req domain.AnalysisRequest) (*genai.GenerateContentResponse, error)
}

func (m *mockService) Generate(ctx context.Context, req domain.GenerationRequest) (*genai.GenerateContentResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*genai.GenerateContentResponse, error) {
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, req)
	}
	return nil, nil
}

func imageResponse(data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/png", Data: data}}}},
		}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}
