package config

// Config is the on-disk JSON configuration. Zero values fall back to the
// defaults applied in applyDefaults.
type Config struct {
	// Camera settings.
	CameraURI  string
	CameraName string

	PreviewWidth  int
	PreviewHeight int
	CaptureFPS    int

	// Detection network settings.
	PrototxtPath        string
	CaffeModelPath      string
	ConfidenceThreshold float32
	QueueSize           int

	// Display settings.
	WindowName    string
	ShowTimestamp bool

	// Port hosts the debug HTTP endpoints (mjpeg, events, metrics).
	// Zero disables the server.
	Port int

	// Recording settings. An empty RecordPath disables recording.
	RecordPath              string
	RecordMaxSize           int64
	RecordTriggerConfidence float32
	BufferTimeSec           int
	RecordTimeSec           int
	MaxRecordTimeSec        int

	// Notification settings.
	NotifyConfidence       float32
	NotificationHoursStart int
	NotificationHoursEnd   int
	NotifyCooldownSec      int

	// Web push settings. An empty PushDSN disables push notifications.
	PushDSN        string
	PushSubscriber string
}

func (c *Config) applyDefaults() {
	if c.PreviewWidth == 0 {
		c.PreviewWidth = 300
	}
	if c.PreviewHeight == 0 {
		c.PreviewHeight = 300
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.5
	}
	if c.WindowName == "" {
		c.WindowName = "preview"
	}
	if c.RecordTriggerConfidence == 0 {
		c.RecordTriggerConfidence = 0.7
	}
	if c.BufferTimeSec == 0 {
		c.BufferTimeSec = 2
	}
	if c.RecordTimeSec == 0 {
		c.RecordTimeSec = 20
	}
	if c.MaxRecordTimeSec == 0 {
		c.MaxRecordTimeSec = 300
	}
	if c.NotifyConfidence == 0 {
		c.NotifyConfidence = 0.9
	}
	if c.NotifyCooldownSec == 0 {
		c.NotifyCooldownSec = 60
	}
}
