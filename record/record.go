// Package record streams rendered frames to ffmpeg.
package record

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// frameQueue is the number of frames the producer may run ahead of ffmpeg.
const frameQueue = 4

var (
	// ErrClosed is returned by WriteFrame after Close.
	ErrClosed = errors.New("recorder closed")
	// errEncoderExited closes the pipe when ffmpeg stops reading.
	errEncoderExited = errors.New("ffmpeg exited")
)

// Settings describes the output of a recording.
type Settings struct {
	Width  int
	Height int
	FPS    int
	// Output is the file ffmpeg writes. Its extension picks the container.
	Output string
	// Codec is an ffmpeg encoder name; empty selects libx264.
	Codec string
	// FFmpegPath overrides the ffmpeg binary found on PATH.
	FFmpegPath string
}

func (s Settings) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", s.Width, s.Height)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %d", s.FPS)
	}
	if s.Output == "" {
		return fmt.Errorf("no output file")
	}
	return nil
}

// FrameSize is the byte length of one RGBA frame.
func (s Settings) FrameSize() int {
	return s.Width * s.Height * 4
}

// Args returns the ffmpeg input and output arguments. Frames arrive as raw
// RGBA read back bottom row first, so the output is flipped vertically.
func Args(s Settings) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", s.Width, s.Height),
		"r":       strconv.Itoa(s.FPS),
	}

	codec := s.Codec
	if codec == "" {
		codec = "libx264"
	}
	outputArgs = ffmpeg.KwArgs{
		"vf":      "vflip",
		"c:v":     codec,
		"pix_fmt": "yuv420p",
	}
	return
}

// Command builds the ffmpeg invocation reading frames from r.
func Command(s Settings, r io.Reader) *ffmpeg.Stream {
	inputArgs, outputArgs := Args(s)
	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(s.Output, outputArgs).
		OverWriteOutput().WithInput(r).ErrorToStdOut()
	if s.FFmpegPath != "" {
		cmd = cmd.SetFfmpegPath(s.FFmpegPath)
	}
	return cmd
}

// Frame is one captured image.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// Recorder is the producer side of the encoder: WriteFrame queues frames for
// a consumer goroutine that pipes them into ffmpeg.
type Recorder struct {
	settings Settings
	frames   chan *Frame
	done     chan error
	pts      int64
	closed   bool
}

// Start launches ffmpeg and the consumer goroutine.
func Start(s Settings) (*Recorder, error) {
	return start(s, func(r io.Reader) error {
		return Command(s, r).Run()
	})
}

// start runs the consumer against encode, which must read r until EOF.
func start(s Settings, encode func(r io.Reader) error) (*Recorder, error) {
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("failed to start recording: %w", err)
	}
	rec := &Recorder{
		settings: s,
		frames:   make(chan *Frame, frameQueue),
		done:     make(chan error, 1),
	}
	go rec.runEncoder(encode)
	log.Printf("Recording %dx%d at %d fps to %s", s.Width, s.Height, s.FPS, s.Output)
	return rec, nil
}

// runEncoder is the consumer. It keeps draining frames after a failure so
// that the producer never blocks.
func (rec *Recorder) runEncoder(encode func(r io.Reader) error) {
	pipeReader, pipeWriter := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		err := encode(pipeReader)
		pipeReader.CloseWithError(errEncoderExited)
		errc <- err
	}()

	var writeErr error
	for frame := range rec.frames {
		if writeErr != nil {
			continue
		}
		if _, err := pipeWriter.Write(frame.Pixels); err != nil {
			log.Printf("Error writing frame %d to ffmpeg: %v", frame.PTS, err)
			writeErr = fmt.Errorf("failed to write frame %d: %w", frame.PTS, err)
		}
	}
	pipeWriter.Close()

	encodeErr := <-errc
	if encodeErr != nil {
		rec.done <- fmt.Errorf("ffmpeg failed: %w", encodeErr)
		return
	}
	rec.done <- writeErr
}

// WriteFrame queues one RGBA frame. pix must hold exactly one frame and is
// not retained after the call.
func (rec *Recorder) WriteFrame(pix []byte) error {
	if rec.closed {
		return ErrClosed
	}
	if len(pix) != rec.settings.FrameSize() {
		return fmt.Errorf("frame is %d bytes, want %d", len(pix), rec.settings.FrameSize())
	}
	frame := &Frame{Pixels: append([]byte(nil), pix...), PTS: rec.pts}
	rec.pts++
	rec.frames <- frame
	return nil
}

// Frames returns the number of frames queued so far.
func (rec *Recorder) Frames() int64 {
	return rec.pts
}

// Close flushes the queue, waits for ffmpeg to exit and returns its error.
func (rec *Recorder) Close() error {
	if rec.closed {
		return ErrClosed
	}
	rec.closed = true
	close(rec.frames)
	err := <-rec.done
	if err == nil {
		log.Printf("Recorded %d frames to %s", rec.pts, rec.settings.Output)
	}
	return err
}
