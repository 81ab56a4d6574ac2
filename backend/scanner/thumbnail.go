package scanner

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os/exec"
	"time"
)

// FFmpegThumbnailer extracts a single frame from a video with the system
// ffmpeg binary and returns it as a base64 JPEG, ready to embed in a catalog
// row. A missing binary disables the feature instead of failing scans.
type FFmpegThumbnailer struct {
	binary  string
	seekSec int
	width   int
	timeout time.Duration
}

func NewFFmpegThumbnailer() *FFmpegThumbnailer {
	return &FFmpegThumbnailer{
		binary:  "ffmpeg",
		seekSec: 5,
		width:   320,
		timeout: 20 * time.Second,
	}
}

// Available reports whether ffmpeg can be invoked at all.
func (t *FFmpegThumbnailer) Available() bool {
	_, err := exec.LookPath(t.binary)
	return err == nil
}

// Generate grabs a frame a few seconds in (videos shorter than the seek
// offset fall back to the first frame) and returns it base64-encoded.
func (t *FFmpegThumbnailer) Generate(path string) (string, error) {
	out, err := t.grab(path, t.seekSec)
	if err != nil {
		out, err = t.grab(path, 0)
	}
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func (t *FFmpegThumbnailer) grab(path string, seek int) ([]byte, error) {
	args := []string{
		"-ss", fmt.Sprintf("%d", seek),
		"-i", path,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", t.width),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-loglevel", "error",
		"pipe:1",
	}

	cmd := exec.Command(t.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg: %v: %s", err, stderr.String())
		}
	case <-time.After(t.timeout):
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("ffmpeg: timed out after %s", t.timeout)
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	return stdout.Bytes(), nil
}
