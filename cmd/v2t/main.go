package main

import (
	"upload-whisper/cmd/v2t/cmd"
)

func main() {
	cmd.Execute()
}
