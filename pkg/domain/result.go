package domain

// ResultKind は ServiceResult の種別です。
type ResultKind int

const (
	ResultImage ResultKind = iota + 1
	ResultText
)

func (k ResultKind) String() string {
	switch k {
	case ResultImage:
		return "image"
	case ResultText:
		return "text"
	default:
		return "unknown"
	}
}

// ServiceResult は成功した呼び出し1回につき1つだけ生成される結果です。
// Kind が ResultImage のときは DataURI、ResultText のときは Text のみが有効です。
type ServiceResult struct {
	Kind    ResultKind
	DataURI string
	Text    string
}

// NewImageResult は画像結果を作成します。
func NewImageResult(dataURI string) *ServiceResult {
	return &ServiceResult{Kind: ResultImage, DataURI: dataURI}
}

// NewTextResult はテキスト結果を作成します。
func NewTextResult(text string) *ServiceResult {
	return &ServiceResult{Kind: ResultText, Text: text}
}

// ServiceError は失敗経路で生成される表示用のエラーです。
// Message はユーザーにそのまま表示でき、Cause は診断ログ用に元の失敗を保持します。
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Cause }

// EncodedMedia はユーザーが選択した画像を転送用に base64 化したものです。
// 生成した呼び出しだけが所有し、リクエスト間で使い回しません。
type EncodedMedia struct {
	Data     string
	MIMEType string
}
