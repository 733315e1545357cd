// Package server は Studio を HTTP API と簡易ページとして公開します。
package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/shouni/prisma-image-kit/pkg/domain"
	"github.com/shouni/prisma-image-kit/pkg/encoder"
	"github.com/shouni/prisma-image-kit/pkg/imgutil"
	"github.com/shouni/prisma-image-kit/pkg/preview"
	"github.com/shouni/prisma-image-kit/pkg/studio"
	"github.com/shouni/prisma-image-kit/pkg/utils"
)

//go:embed web/index.html
var indexHTML []byte

// maxFormBytes はリクエストボディ全体の上限です。
// base64 は元のバイト列の 4/3 倍になるため、JSON で送られる data URI もこの範囲に収まります。
const maxFormBytes = encoder.MaxImageBytes*4/3 + 1<<20

var errInvalidBody = errors.New("invalid request body")

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Image string `json:"image"`
}

type analyzeResponse struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed,omitempty"`
}

// analyzeJSONRequest は FileReader で読み込んだ data URI をそのまま送る場合の形式です。
type analyzeJSONRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
	Prompt   string `json:"prompt"`
}

type statusResponse struct {
	Generating bool `json:"generating"`
	Analyzing  bool `json:"analyzing"`
}

type previewResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type downloadRequest struct {
	Image string `json:"image"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler は生成・解析・プレビュー・ダウンロードのエンドポイントを提供します。
type Handler struct {
	studio   *studio.Studio
	previews *preview.Registry
	now      func() time.Time
}

// NewHandler は依存を注入して Handler を初期化します。
func NewHandler(s *studio.Studio, previews *preview.Registry) (*Handler, error) {
	if s == nil {
		return nil, errors.New("studio is required")
	}
	if previews == nil {
		return nil, errors.New("previews (preview.Registry) is required")
	}
	return &Handler{studio: s, previews: previews, now: time.Now}, nil
}

// RegisterRoutes はエンドポイントをルーターに登録します。
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/api/generate", h.handleGenerate).Methods(http.MethodPost)
	r.HandleFunc("/api/analyze", h.handleAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/api/status", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/previews", h.handleCreatePreview).Methods(http.MethodPost)
	r.HandleFunc("/api/previews", h.handleReleaseOwner).Methods(http.MethodDelete)
	r.HandleFunc("/api/previews/{id}", h.handleGetPreview).Methods(http.MethodGet)
	r.HandleFunc("/api/previews/{id}", h.handleDeletePreview).Methods(http.MethodDelete)
	r.HandleFunc("/api/download", h.handleDownload).Methods(http.MethodPost)
}

// NewRouter は Handler を登録済みのルーターを返します。
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	result, err := h.studio.Generate(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Image: result.DataURI})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	media, prompt, err := h.readAnalyzeInput(w, r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	result, err := h.studio.Analyze(r.Context(), media, prompt)
	var svcErr *domain.ServiceError
	switch {
	case errors.As(err, &svcErr):
		// 解析の失敗は結果欄に汎用メッセージを表示する
		writeJSON(w, http.StatusOK, analyzeResponse{Text: studio.AnalyzeFailedMessage, Failed: true})
	case err != nil:
		writeError(w, statusFor(err), err.Error())
	default:
		writeJSON(w, http.StatusOK, analyzeResponse{Text: result.Text})
	}
}

// readAnalyzeInput はマルチパートのファイル、または JSON の data URI から解析対象を読み込みます。
func (h *Handler) readAnalyzeInput(w http.ResponseWriter, r *http.Request) (domain.EncodedMedia, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req analyzeJSONRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return domain.EncodedMedia{}, "", err
		}
		media := encoder.EncodeString(req.Image, req.MIMEType)
		raw, err := utils.DecodeDataURI(media.Data)
		if err != nil {
			return domain.EncodedMedia{}, "", fmt.Errorf("%w: %v", domain.ErrNoImage, err)
		}
		if len(raw) > encoder.MaxImageBytes {
			return domain.EncodedMedia{}, "", encoder.ErrImageTooLarge
		}
		if media.MIMEType, err = encoder.DetectImage(raw, req.MIMEType); err != nil {
			return domain.EncodedMedia{}, "", err
		}
		return media, req.Prompt, nil
	}

	data, declared, err := readImageField(w, r)
	if err != nil {
		return domain.EncodedMedia{}, "", err
	}
	mimeType, err := encoder.DetectImage(data, declared)
	if err != nil {
		return domain.EncodedMedia{}, "", err
	}
	return encoder.Encode(data, mimeType), r.FormValue("prompt"), nil
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Generating: h.studio.InFlight(studio.OpGenerate),
		Analyzing:  h.studio.InFlight(studio.OpAnalyze),
	})
}

func (h *Handler) handleCreatePreview(w http.ResponseWriter, r *http.Request) {
	data, declared, err := readImageField(w, r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	mimeType, err := encoder.DetectImage(data, declared)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	owner := strings.TrimSpace(r.FormValue("owner"))
	if owner == "" {
		owner = "default"
	}

	p, err := h.previews.Create(owner, data, mimeType)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, previewResponse{ID: p.ID, URL: "/api/previews/" + p.ID})
}

func (h *Handler) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	p, ok := h.previews.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}
	w.Header().Set("Content-Type", p.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'")
	_, _ = w.Write(p.Data)
}

func (h *Handler) handleDeletePreview(w http.ResponseWriter, r *http.Request) {
	if !h.previews.Release(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReleaseOwner は選択解除時に所有者のプレビューをまとめて破棄します。
func (h *Handler) handleReleaseOwner(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" || !h.previews.ReleaseOwner(owner) {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if !utils.HasDataURIPrefix(req.Image) {
		writeError(w, http.StatusBadRequest, "image must be a data URI")
		return
	}
	data, err := utils.DecodeDataURI(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", imgutil.DownloadFileName(h.now())))
	if _, err := w.Write(data); err != nil {
		slog.WarnContext(r.Context(), "ダウンロードの書き込みに失敗しました", "error", err)
	}
}

// decodeJSON はサイズ上限付きで JSON ボディを読み込みます。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return encoder.ErrImageTooLarge
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// readImageField はフォームの image フィールドを読み込み、申告された Content-Type とともに返します。
func readImageField(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", encoder.ErrImageTooLarge
		}
		return nil, "", fmt.Errorf("%w: %v", domain.ErrNoImage, err)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", domain.ErrNoImage
	}
	defer func(f multipart.File) {
		_ = f.Close()
	}(file)

	data, err := encoder.ReadLimited(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Header.Get("Content-Type"), nil
}

// statusFor はエラーの種類を HTTP ステータスに対応付けます。
func statusFor(err error) int {
	var svcErr *domain.ServiceError
	switch {
	case errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrNoImage),
		errors.Is(err, errInvalidBody),
		errors.Is(err, encoder.ErrNotImage):
		return http.StatusBadRequest
	case errors.Is(err, encoder.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, studio.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, preview.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, preview.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &svcErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("レスポンスのエンコードに失敗しました", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
