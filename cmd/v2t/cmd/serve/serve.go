package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"upload-whisper/cmd/v2t/cmd/common"
	"upload-whisper/internal/api/server"
	"upload-whisper/internal/app"
	"upload-whisper/internal/app/util/files"
)

const shutdownTimeout = 30 * time.Second

var (
	host string
	port int
)

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	Cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP transcription API",
	Long: `Run the HTTP transcription API.

Endpoints:
  GET  /            service banner
  GET  /health      model status
  POST /transcribe  multipart field "file", returns the transcript
  GET  /metrics     Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := common.Bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cmd.Flags().Changed("host") {
			cfg.Server.Host = host
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}

		a, err := app.InitializeApp(cfg, logger)
		if err != nil {
			return err
		}

		logger.Info("Starting Audio/Video to Text API",
			zap.String("addr", cfg.Server.Addr()),
			zap.String("upload_dir", cfg.Upload.Dir),
			zap.Strings("supported_formats", files.SupportedExtensions),
			zap.Bool("model_loaded", a.Pipeline.Ready()),
		)

		srv := server.NewServer(server.Config{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			Environment:    cfg.Server.Environment,
			CORSOrigins:    cfg.Server.CORSOrigins,
			MaxUploadBytes: cfg.Upload.MaxBytes,
		}, a.Pipeline, a.Metrics, logger)

		if err := srv.Start(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
