package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsbedrockagent "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	awsbedrock "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"kb-chat/handler"
	"kb-chat/internal/classifier"
	"kb-chat/internal/config"
	"kb-chat/internal/integrations/bedrock"
	"kb-chat/internal/integrations/knowledgebase"
	"kb-chat/internal/transcript"
	"kb-chat/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		slog.Error("failed to open log file", "err", err)
		os.Exit(1)
	}
	defer closeLog()

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		logger.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	runtimeClient, err := bedrock.New(awsbedrock.NewFromConfig(awsCfg), cfg.ModelID)
	if err != nil {
		logger.Error("failed to create bedrock runtime client", "err", err)
		os.Exit(1)
	}
	kbClient, err := knowledgebase.New(awsbedrockagent.NewFromConfig(awsCfg), cfg.KnowledgeBaseID, cfg.ModelArn())
	if err != nil {
		logger.Error("failed to create knowledge base client", "err", err)
		os.Exit(1)
	}

	var cl classifier.Classifier
	if cfg.Classifier == config.ClassifierModel {
		cl, err = classifier.NewModel(runtimeClient, cfg.ProductName)
		if err != nil {
			logger.Error("failed to create model classifier", "err", err)
			os.Exit(1)
		}
	} else {
		cl = classifier.NewKeyword(cfg.ProductName, cfg.DomainKeywords)
	}

	// ---- Service & handler ----
	chatSvc, err := usecase.NewChatService(cl, kbClient, cfg.ProductName, cfg.RequestTimeout, logger)
	if err != nil {
		logger.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatSvc, transcript.NewStore(), handler.Info{
		AppTitle:    cfg.AppTitle,
		Region:      cfg.Region,
		ModelID:     cfg.ModelID,
		ProductName: cfg.ProductName,
	}, logger)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	// ---- Router ----
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Correlation-Id"},
	}))
	handler.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// Tie in-flight requests to the signal context so pending
		// knowledge-base calls are cancelled on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "app", cfg.AppTitle, "classifier", cfg.Classifier)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

// newLogger builds the process logger, mirroring output to logFile when
// one is configured.
func newLogger(logFile string) (*slog.Logger, func(), error) {
	out := io.Writer(os.Stderr)
	closeFn := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = func() { _ = f.Close() }
	}
	logger := slog.New(slog.NewTextHandler(out, nil))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
