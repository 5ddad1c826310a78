package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// WavInfo describes the header of a PCM WAV file.
type WavInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// IsCanonical reports whether the file is mono 16 kHz.
func (i WavInfo) IsCanonical() bool {
	return i.SampleRate == CanonicalSampleRate && i.Channels == CanonicalChannels
}

// InspectWav reads the header of the WAV file at path.
func InspectWav(path string) (*WavInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%s is not a valid WAV file: %w", path, err)
	}
	if dec.SampleRate == 0 || dec.NumChans == 0 {
		return nil, fmt.Errorf("%s has an empty WAV format chunk", path)
	}

	info := &WavInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}

	bytesPerSecond := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if bytesPerSecond > 0 {
		info.Duration = time.Duration(float64(dec.PCMLen()) / float64(bytesPerSecond) * float64(time.Second))
	}

	return info, nil
}
