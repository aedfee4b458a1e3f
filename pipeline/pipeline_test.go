package pipeline

import (
	"image"
	"testing"
)

func validPipeline() *Pipeline {
	return New("0", "deploy.prototxt", "mobilenet.caffemodel")
}

func TestNewDefaults(t *testing.T) {
	p := validPipeline()
	if p.Camera.PreviewSize != (image.Point{X: 300, Y: 300}) {
		t.Errorf("preview size = %v, expected 300x300", p.Camera.PreviewSize)
	}
	if p.Camera.Interleaved {
		t.Error("preview should default to planar")
	}
	if p.Network.ConfidenceThreshold != 0.5 {
		t.Errorf("confidence threshold = %v, expected 0.5", p.Network.ConfidenceThreshold)
	}
	if p.PreviewStream != StreamPreview || p.DetectionStream != StreamDetections {
		t.Errorf("streams = %q, %q", p.PreviewStream, p.DetectionStream)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default pipeline should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Pipeline)
	}{
		{"missing uri", func(p *Pipeline) { p.Camera.URI = "" }},
		{"zero preview", func(p *Pipeline) { p.Camera.PreviewSize = image.Point{} }},
		{"no streams", func(p *Pipeline) { p.PreviewStream = ""; p.DetectionStream = "" }},
		{"duplicate stream", func(p *Pipeline) { p.DetectionStream = p.PreviewStream }},
		{"dangling detection stream", func(p *Pipeline) { p.Network = nil }},
		{"missing model", func(p *Pipeline) { p.Network.CaffeModelPath = "" }},
		{"bad threshold", func(p *Pipeline) { p.Network.ConfidenceThreshold = 1.5 }},
		{"negative queue size", func(p *Pipeline) { p.QueueSize = -1 }},
	}

	for _, tt := range tests {
		p := validPipeline()
		tt.mutate(p)
		if err := p.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestValidatePreviewOnly(t *testing.T) {
	p := validPipeline()
	p.DetectionStream = ""
	p.Network = nil
	if err := p.Validate(); err != nil {
		t.Errorf("preview-only pipeline should validate: %v", err)
	}
	if s := p.Streams(); len(s) != 1 || s[0] != StreamPreview {
		t.Errorf("Streams() = %v", s)
	}
}

func TestEffectiveQueueSize(t *testing.T) {
	p := validPipeline()
	if n := p.EffectiveQueueSize(); n != DefaultQueueSize {
		t.Errorf("EffectiveQueueSize() = %d, expected default %d", n, DefaultQueueSize)
	}
	p.QueueSize = 16
	if n := p.EffectiveQueueSize(); n != 16 {
		t.Errorf("EffectiveQueueSize() = %d, expected 16", n)
	}
}
