package adapters

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/prisma-image-kit/pkg/utils"
)

// NoAnalysisText は解析レスポンスにテキストがなかったときに返す文字列です。
// エラーではなく成功結果として扱います。
const NoAnalysisText = "No analysis text returned."

// ContentError は、通信には成功したもののレスポンスに期待するペイロードがない場合のエラーです。
type ContentError struct {
	msg string
}

func (e *ContentError) Error() string { return e.msg }

// 生成レスポンスの異常を区別するためのセンチネルエラー。
var (
	// ErrNoContentGenerated は候補やパーツリスト自体が存在しないことを示します。
	ErrNoContentGenerated = &ContentError{msg: "No content generated."}
	// ErrNoImageData はパーツリストはあるが画像データを持つパーツがないことを示します。
	ErrNoImageData = &ContentError{msg: "No image data found in response."}
)

// ParseImage は生成レスポンスから最初の画像パーツを探し、表示用の data URI に変換します。
// サービスが報告する MIME タイプに関わらず image/png として宣言します。
func ParseImage(resp *genai.GenerateContentResponse) (string, error) {
	parts, ok := firstCandidateParts(resp)
	if !ok {
		return "", ErrNoContentGenerated
	}

	// Geminiからの最初の候補 (Candidate) のみを利用する。
	for _, part := range parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if mt := part.InlineData.MIMEType; mt != "" && !strings.EqualFold(mt, "image/png") {
			slog.Debug("PNG以外の画像をPNGとして宣言します", "reported_mime_type", mt)
		}
		return utils.ToPNGDataURI(base64.StdEncoding.EncodeToString(part.InlineData.Data)), nil
	}

	candidate := resp.Candidates[0]
	if blockedReason(candidate.FinishReason) {
		return "", fmt.Errorf("%w (FinishReason: %s)", ErrNoImageData, candidate.FinishReason)
	}
	return "", ErrNoImageData
}

// ParseText は解析レスポンスのテキストを返します。テキストがなければ NoAnalysisText を返します。
func ParseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return NoAnalysisText
	}
	if text := resp.Text(); text != "" {
		return text
	}
	return NoAnalysisText
}

// blockedReason は安全フィルター等による異常終了かを判定します。
func blockedReason(r genai.FinishReason) bool {
	switch r {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
		return false
	default:
		return true
	}
}

// firstCandidateParts は最初の候補のパーツリストを返します。
// リストが存在しない場合は false を返し、空のリストは存在するものとして扱います。
func firstCandidateParts(resp *genai.GenerateContentResponse) ([]*genai.Part, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, false
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || candidate.Content.Parts == nil {
		return nil, false
	}
	return candidate.Content.Parts, true
}
