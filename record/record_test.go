package record

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestArgs(t *testing.T) {
	in, out := Args(Settings{Width: 640, Height: 360, FPS: 30, Output: "out.mp4"})
	wantIn := map[string]string{"f": "rawvideo", "pix_fmt": "rgba", "s": "640x360", "r": "30"}
	for k, v := range wantIn {
		if in[k] != v {
			t.Errorf("input %s = %v, want %v", k, in[k], v)
		}
	}
	if out["vf"] != "vflip" {
		t.Errorf("output vf = %v, want vflip", out["vf"])
	}
	if out["c:v"] != "libx264" {
		t.Errorf("output codec = %v, want libx264 default", out["c:v"])
	}

	_, out = Args(Settings{Width: 1, Height: 1, FPS: 1, Codec: "libvpx-vp9"})
	if out["c:v"] != "libvpx-vp9" {
		t.Errorf("output codec = %v, want libvpx-vp9", out["c:v"])
	}
}

func TestCommand(t *testing.T) {
	s := Settings{Width: 4, Height: 2, FPS: 24, Output: "clip.mp4", FFmpegPath: "/opt/ffmpeg"}
	cmd := Command(s, strings.NewReader("")).Compile()

	if cmd.Path != "/opt/ffmpeg" && (len(cmd.Args) == 0 || cmd.Args[0] != "/opt/ffmpeg") {
		t.Errorf("ffmpeg binary = %q %v, want /opt/ffmpeg", cmd.Path, cmd.Args)
	}
	args := strings.Join(cmd.Args, " ")
	for _, want := range []string{"-f rawvideo", "-pix_fmt rgba", "-s 4x2", "-i pipe:", "-vf vflip", "clip.mp4", "-y"} {
		if !strings.Contains(args, want) {
			t.Errorf("ffmpeg args %q lack %q", args, want)
		}
	}
}

func TestStartRejectsBadSettings(t *testing.T) {
	tests := []Settings{
		{Width: 0, Height: 10, FPS: 30, Output: "a.mp4"},
		{Width: 10, Height: 10, FPS: 0, Output: "a.mp4"},
		{Width: 10, Height: 10, FPS: 30},
	}
	for _, s := range tests {
		if _, err := Start(s); err == nil {
			t.Errorf("Start(%+v) succeeded, want error", s)
		}
	}
}

func TestRecorderPipesFrames(t *testing.T) {
	s := Settings{Width: 2, Height: 1, FPS: 30, Output: "out.mp4"}
	var got bytes.Buffer
	rec, err := start(s, func(r io.Reader) error {
		_, err := io.Copy(&got, r)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	frames := [][]byte{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{9, 10, 11, 12, 13, 14, 15, 16},
	}
	for _, f := range frames {
		if err := rec.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
		// The recorder copies the frame; reusing the buffer is safe.
		f[0] = 0xff
	}
	if err := rec.WriteFrame([]byte{1, 2, 3}); err == nil {
		t.Error("WriteFrame(short) succeeded")
	}
	if rec.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", rec.Frames())
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if !bytes.Equal(got.Bytes(), want) {
		t.Errorf("piped bytes = %v, want %v", got.Bytes(), want)
	}
	if err := rec.WriteFrame(want[:8]); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteFrame() after Close = %v, want ErrClosed", err)
	}
	if err := rec.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() = %v, want ErrClosed", err)
	}
}

func TestRecorderReportsEncoderFailure(t *testing.T) {
	s := Settings{Width: 1, Height: 1, FPS: 1, Output: "out.mp4"}
	boom := errors.New("encoder not found")
	rec, err := start(s, func(r io.Reader) error { return boom })
	if err != nil {
		t.Fatal(err)
	}
	// Frames written after the encoder died must not block.
	for i := 0; i < frameQueue*3; i++ {
		if err := rec.WriteFrame([]byte{0, 0, 0, 0}); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}
	if err := rec.Close(); !errors.Is(err, boom) {
		t.Errorf("Close() = %v, want %v", err, boom)
	}
}
