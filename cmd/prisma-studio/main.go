// Command prisma-studio は画像の生成と解析を行う Studio を HTTP サーバーまたは CLI として起動します。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/shouni/prisma-image-kit/pkg/config"
	"github.com/shouni/prisma-image-kit/pkg/domain"
	"github.com/shouni/prisma-image-kit/pkg/encoder"
	"github.com/shouni/prisma-image-kit/pkg/generator"
	"github.com/shouni/prisma-image-kit/pkg/imgutil"
	"github.com/shouni/prisma-image-kit/pkg/preview"
	"github.com/shouni/prisma-image-kit/pkg/server"
	"github.com/shouni/prisma-image-kit/pkg/studio"
)

const usage = `usage: prisma-studio [-config FILE] <command> [flags]

commands:
  serve                          HTTP サーバーを起動します
  generate -prompt TEXT [-out DIR] 画像を生成して保存します
  analyze -image PATH [-prompt TEXT] 画像を解析して結果を表示します
`

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("prisma-studio の実行に失敗しました", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("prisma-studio", flag.ContinueOnError)
	configPath := global.String("config", "config.yaml", "設定ファイルのパス")
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("command is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	svc, err := generator.NewGeminiServiceFromAPIKey(ctx, cfg.GeneratorOptions())
	if err != nil {
		return fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
	}
	s, err := studio.New(svc)
	if err != nil {
		return err
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "serve":
		return serve(ctx, cfg, s)
	case "generate":
		return generate(ctx, cfg, s, rest)
	case "analyze":
		return analyze(ctx, s, rest)
	default:
		global.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func serve(ctx context.Context, cfg *config.Config, s *studio.Studio) error {
	previews := preview.NewRegistry(preview.WithThumbnail(cfg.Preview.MaxSide, cfg.Preview.Quality))
	defer previews.Close()

	h, err := server.NewHandler(s, previews)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバーを起動します", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("サーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗しました: %w", err)
	}
	return nil
}

func generate(ctx context.Context, cfg *config.Config, s *studio.Studio, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	prompt := fs.String("prompt", "", "生成する画像の説明")
	out := fs.String("out", cfg.OutputDir, "保存先ディレクトリ")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := s.Generate(ctx, *prompt)
	if err != nil {
		return err
	}

	path, err := imgutil.SaveDataURI(*out, result.DataURI, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func analyze(ctx context.Context, s *studio.Studio, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	imagePath := fs.String("image", "", "解析する画像ファイル")
	prompt := fs.String("prompt", "", "解析の指示（省略時は既定の指示文）")
	if err := fs.Parse(args); err != nil {
		return err
	}

	media, err := readImage(*imagePath)
	if err != nil {
		return err
	}

	result, err := s.Analyze(ctx, media, *prompt)
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		fmt.Println(studio.AnalyzeFailedMessage)
		return err
	}
	if err != nil {
		return err
	}
	fmt.Println(result.Text)
	return nil
}

// readImage はファイルを読み込み、画像であることを確認してから転送用に変換します。
func readImage(path string) (domain.EncodedMedia, error) {
	if path == "" {
		return domain.EncodedMedia{}, errors.New("-image is required")
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return domain.EncodedMedia{}, fmt.Errorf("画像ファイルを開けません: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := encoder.ReadLimited(f)
	if err != nil {
		return domain.EncodedMedia{}, err
	}
	mimeType, err := encoder.DetectImage(data, mime.TypeByExtension(filepath.Ext(path)))
	if err != nil {
		return domain.EncodedMedia{}, err
	}
	return encoder.Encode(data, mimeType), nil
}
