package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGenerationRequest(t *testing.T) {
	t.Run("プロンプトは加工されずアスペクト比は常に1:1なのだ", func(t *testing.T) {
		prompts := []string{
			"走るずんだもん",
			"  a cyberpunk street market at night  ",
			"x",
			"line1\nline2",
		}
		for _, p := range prompts {
			req, err := BuildGenerationRequest(p)
			require.NoError(t, err)
			assert.Equal(t, p, req.Prompt)
			assert.Equal(t, "1:1", req.AspectRatio)
		}
	})

	t.Run("空白のみのプロンプトは ErrEmptyPrompt", func(t *testing.T) {
		for _, p := range []string{"", " ", "\t\n", "　"} {
			_, err := BuildGenerationRequest(p)
			assert.ErrorIs(t, err, ErrEmptyPrompt, "prompt %q", p)
		}
	})
}

func TestBuildAnalysisRequest(t *testing.T) {
	tests := []struct {
		name       string
		encoded    string
		mimeType   string
		prompt     string
		wantData   string
		wantPrompt string
	}{
		{
			name:       "正常系: プレフィックスなし・プロンプトあり",
			encoded:    "QQ==",
			mimeType:   "image/png",
			prompt:     "What is this?",
			wantData:   "QQ==",
			wantPrompt: "What is this?",
		},
		{
			name:       "正常系: PNG プレフィックスを除去",
			encoded:    "data:image/png;base64,QQ==",
			mimeType:   "image/png",
			prompt:     "",
			wantData:   "QQ==",
			wantPrompt: DefaultAnalysisPrompt,
		},
		{
			name:       "正常系: JPEG プレフィックスと空白プロンプト",
			encoded:    "data:image/jpeg;base64,/9j/",
			mimeType:   "image/jpeg",
			prompt:     "   ",
			wantData:   "/9j/",
			wantPrompt: "Describe this image in detail.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildAnalysisRequest(tt.encoded, tt.mimeType, tt.prompt)
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, req.ImageData)
			assert.Equal(t, tt.mimeType, req.MIMEType)
			assert.Equal(t, tt.wantPrompt, req.Prompt)
		})
	}

	t.Run("任意の subtype でペイロードだけが残る", func(t *testing.T) {
		for _, subtype := range []string{"png", "jpeg", "webp", "gif", "heic"} {
			encoded := fmt.Sprintf("data:image/%s;base64,%s", subtype, "UEFZTE9BRA==")
			req, err := BuildAnalysisRequest(encoded, "image/"+subtype, "")
			require.NoError(t, err)
			assert.Equal(t, "UEFZTE9BRA==", req.ImageData)

			// 既に除去済みの値を再投入しても変わらない
			again, err := BuildAnalysisRequest(req.ImageData, req.MIMEType, req.Prompt)
			require.NoError(t, err)
			assert.Equal(t, req, again)
		}
	})

	t.Run("画像がない場合は ErrNoImage", func(t *testing.T) {
		for _, encoded := range []string{"", "data:image/png;base64,", "  "} {
			_, err := BuildAnalysisRequest(encoded, "image/png", "prompt")
			assert.True(t, errors.Is(err, ErrNoImage), "encoded %q", encoded)
		}
	})
}
