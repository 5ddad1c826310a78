package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"upload-whisper/cmd/v2t/cmd/common"
	"upload-whisper/cmd/v2t/cmd/config"
	"upload-whisper/cmd/v2t/cmd/serve"
	"upload-whisper/cmd/v2t/cmd/transcribe"
	"upload-whisper/cmd/v2t/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "v2t",
	Short: "Transcribe uploaded audio and video files to text with Whisper",
	Long: `Transcribe audio and video files to text with Whisper.

- serve runs the HTTP upload API (POST /transcribe)
- transcribe runs the same pipeline on local files
- Every input is normalized to mono 16kHz WAV with ffmpeg first
- Supports native whisper.cpp or the OpenAI Whisper API as the engine`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().StringP(common.FlagConfig, "c", "", "config file (yaml); environment variables override it")
	rootCmd.PersistentFlags().BoolP(common.FlagVerbose, "V", false, "verbose output")
}
