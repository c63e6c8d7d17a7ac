package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// dumpCaptureWAV writes captured PCM to a timestamped WAV file under dir so
// recognition issues can be replayed against the model offline.
func dumpCaptureWAV(dir string, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	path := filepath.Join(dir, fmt.Sprintf("capture-%d.wav", time.Now().UnixNano()))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, captureSampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: captureSampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		v := int(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		buf.Data[i] = v
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return path, nil
}
