package util

import (
	"os"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// LocateFFmpeg finds the ffmpeg binary, either from the FFMPEG environment
// variable or from $PATH.
func LocateFFmpeg() (string, error) {
	if p := os.Getenv("FFMPEG"); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	}
	return exec.LookPath("ffmpeg")
}

func LocateFFmpegOrDie() string {
	p, err := LocateFFmpeg()
	if err != nil {
		log.Fatalf("Unable to locate ffmpeg binary: %v", err)
	}
	return p
}
