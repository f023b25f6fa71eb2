package testfw

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WaveReader is a pipeline.InputPort backed by an interleaved PCM WAV
// file, deinterleaved into per-channel float32 on Read (mirrors the
// teacher's WAV-to-float32 decode idiom, generalized from mono to N
// channels and from fixed bit depths to whatever the file declares).
type WaveReader struct {
	file    *os.File
	decoder *wav.Decoder
	divisor float32
	channels int
}

// OpenWaveReader opens path for streaming decode. The caller must Close
// it when done.
func OpenWaveReader(path string) (*WaveReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioFailed("open wav file", err)
	}
	d := wav.NewDecoder(f)
	d.ReadInfo()
	if !d.IsValidFile() {
		f.Close()
		return nil, invalidArgf("%s is not a valid WAV file", path)
	}

	var divisor float32
	switch d.BitDepth {
	case 16:
		divisor = 32768.0
	case 24:
		divisor = 8388608.0
	case 32:
		divisor = 2147483648.0
	default:
		f.Close()
		return nil, invalidArgf("%s: unsupported bit depth %d", path, d.BitDepth)
	}

	return &WaveReader{
		file:     f,
		decoder:  d,
		divisor:  divisor,
		channels: int(d.NumChans),
	}, nil
}

// Channels implements pipeline.InputPort.
func (r *WaveReader) Channels() int { return r.channels }

// SampleRate reports the file's declared sample rate.
func (r *WaveReader) SampleRate() int { return int(r.decoder.SampleRate) }

// Read implements pipeline.InputPort: decodes up to len(buf[0]) interleaved
// frames and deinterleaves them into buf. A short or zero read signals
// end of file; the caller is responsible for zero-padding the remainder.
func (r *WaveReader) Read(buf [][]float32) (framesRead int, err error) {
	if len(buf) == 0 {
		return 0, nil
	}
	want := len(buf[0])
	pcm := &audio.IntBuffer{
		Data:   make([]int, want*r.channels),
		Format: &audio.Format{SampleRate: int(r.decoder.SampleRate), NumChannels: r.channels},
	}
	n, derr := r.decoder.PCMBuffer(pcm)
	if derr != nil && derr != io.EOF {
		return 0, ioFailed("decode wav samples", derr)
	}
	frames := n / r.channels
	for i := 0; i < frames; i++ {
		for ch := 0; ch < r.channels; ch++ {
			buf[ch][i] = float32(pcm.Data[i*r.channels+ch]) / r.divisor
		}
	}
	return frames, nil
}

// Close releases the underlying file.
func (r *WaveReader) Close() error { return r.file.Close() }

// WaveWriter is a pipeline.OutputPort that interleaves incoming float32
// frames and encodes them as 16-bit PCM WAV.
type WaveWriter struct {
	file    *os.File
	encoder *wav.Encoder
	channels int
}

// CreateWaveWriter opens path for streaming encode at the given sample
// rate and channel count. The caller must Close it to flush the WAV
// header/trailer.
func CreateWaveWriter(path string, sampleRate, channels int) (*WaveWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, ioFailed("create wav file", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	return &WaveWriter{file: f, encoder: enc, channels: channels}, nil
}

// Channels implements pipeline.OutputPort.
func (w *WaveWriter) Channels() int { return w.channels }

// Write implements pipeline.OutputPort: interleaves buf and appends it as
// 16-bit PCM samples.
func (w *WaveWriter) Write(buf [][]float32) error {
	if len(buf) == 0 {
		return nil
	}
	frames := len(buf[0])
	pcm := &audio.IntBuffer{
		Data:   make([]int, frames*w.channels),
		Format: &audio.Format{SampleRate: int(w.encoder.SampleRate), NumChannels: w.channels},
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < w.channels; ch++ {
			s := buf[ch][i]
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			pcm.Data[i*w.channels+ch] = int(s * 32767.0)
		}
	}
	if err := w.encoder.Write(pcm); err != nil {
		return ioFailed("encode wav samples", err)
	}
	return nil
}

// Close flushes the WAV trailer and closes the file.
func (w *WaveWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		w.file.Close()
		return ioFailed("close wav encoder", err)
	}
	return w.file.Close()
}
