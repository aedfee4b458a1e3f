package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"CameraURI": "0"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := Load(ctx, path); err != nil {
		t.Fatal(err)
	}

	c := Get()
	if c.CameraURI != "0" {
		t.Errorf("CameraURI = %q", c.CameraURI)
	}
	if c.PreviewWidth != 300 || c.PreviewHeight != 300 {
		t.Errorf("preview = %dx%d, expected 300x300", c.PreviewWidth, c.PreviewHeight)
	}
	if c.ConfidenceThreshold != 0.5 {
		t.Errorf("ConfidenceThreshold = %v, expected 0.5", c.ConfidenceThreshold)
	}
	if c.WindowName != "preview" {
		t.Errorf("WindowName = %q, expected preview", c.WindowName)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"CameraURI": "rtsp://camera/stream",
		"PreviewWidth": 640,
		"PreviewHeight": 480,
		"ConfidenceThreshold": 0.25,
		"WindowName": "gate",
		"NotificationHoursStart": 6,
		"NotificationHoursEnd": 20
	}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := Load(ctx, path); err != nil {
		t.Fatal(err)
	}

	c := Get()
	if c.PreviewWidth != 640 || c.PreviewHeight != 480 {
		t.Errorf("preview = %dx%d", c.PreviewWidth, c.PreviewHeight)
	}
	if c.ConfidenceThreshold != 0.25 {
		t.Errorf("ConfidenceThreshold = %v", c.ConfidenceThreshold)
	}
	if c.WindowName != "gate" {
		t.Errorf("WindowName = %q", c.WindowName)
	}
	if c.NotificationHoursStart != 6 || c.NotificationHoursEnd != 20 {
		t.Errorf("notification hours = %d-%d", c.NotificationHoursStart, c.NotificationHoursEnd)
	}
}

func TestLoadReloadsOnChange(t *testing.T) {
	path := writeConfig(t, `{"CameraURI": "0", "RecordTriggerConfidence": 0.7}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := Load(ctx, path); err != nil {
		t.Fatal(err)
	}
	if c := Get(); c.RecordTriggerConfidence != 0.7 {
		t.Fatalf("RecordTriggerConfidence = %v", c.RecordTriggerConfidence)
	}

	if err := os.WriteFile(path, []byte(`{"CameraURI": "0", "RecordTriggerConfidence": 0.4}`), 0644); err != nil {
		t.Fatal(err)
	}

	// The watcher debounces writes; poll Get until the reload lands.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if Get().RecordTriggerConfidence == 0.4 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("config not reloaded, RecordTriggerConfidence = %v", Get().RecordTriggerConfidence)
}

func TestLoadMissingFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := Load(ctx, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := Load(ctx, path); err == nil {
		t.Error("expected error for malformed config file")
	}
}
