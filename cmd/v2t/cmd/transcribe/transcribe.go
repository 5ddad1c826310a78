package transcribe

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"upload-whisper/cmd/v2t/cmd/common"
	"upload-whisper/internal/app"
	"upload-whisper/internal/app/batch"
	"upload-whisper/internal/app/util/files"
)

var (
	parallel  int
	outputDir string
	progress  bool
)

func init() {
	Cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "number of files transcribed concurrently")
	Cmd.Flags().StringVarP(&outputDir, "output", "o", "",
		"write <name>.txt per input into this directory instead of printing to stdout")
	Cmd.Flags().BoolVar(&progress, "progress", false, "show the progress bar even when stderr is not a terminal")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <file>...",
	Short: "Transcribe local audio or video files",
	Long: `Transcribe local audio or video files with the same pipeline the API uses.

- Accepts ` + strings.Join(files.SupportedExtensions, ", ") + `
- Non-wav input is converted to mono 16kHz WAV with ffmpeg
- Input files are never modified or removed`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := common.Bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		a, err := app.InitializeApp(cfg, logger)
		if err != nil {
			return err
		}

		if outputDir != "" {
			if err := files.EnsureDir(outputDir); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := batch.NewRunner(a.Pipeline, parallel, batch.ProgressConfig{
			Enabled: len(args) > 1 && batch.ShouldShowProgress(progress),
		}, logger)

		names := batch.TranscriptNames(args)
		failed := 0
		for i, item := range runner.Run(ctx, args) {
			if item.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", item.Path, item.Err)
				continue
			}
			if err := emit(cmd, item, names[i]); err != nil {
				return err
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func emit(cmd *cobra.Command, item batch.Item, name string) error {
	if outputDir == "" {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "== %s ==\n%s\n", item.Path, item.Result.Transcript); err != nil {
			return err
		}
		return nil
	}

	return os.WriteFile(filepath.Join(outputDir, name), []byte(item.Result.Transcript+"\n"), 0o644)
}
