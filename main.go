package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"oakview/config"
	"oakview/device"
	"oakview/host"
	"oakview/notify"
	"oakview/pipeline"
	"oakview/serve"
	"oakview/video"
	"oakview/video/process"
	"oakview/video/sink"
)

var (
	configPath = flag.String("config", "oakview.json", "Path to JSON configuration file.")
	verbose    = flag.Bool("verbose", false, "Enable debug logging.")
)

func buildPipeline(cfg *config.Config) *pipeline.Pipeline {
	p := pipeline.New(cfg.CameraURI, cfg.PrototxtPath, cfg.CaffeModelPath)
	p.Camera.PreviewSize = image.Point{X: cfg.PreviewWidth, Y: cfg.PreviewHeight}
	p.Camera.FPS = cfg.CaptureFPS
	p.Network.ConfidenceThreshold = cfg.ConfidenceThreshold
	p.QueueSize = cfg.QueueSize
	return p
}

func main() {
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.Load(ctx, *configPath); err != nil {
		log.Fatalf("Failed to load config %v: %v", *configPath, err)
	}
	cfg := config.Get()

	if cfg.CameraURI == "" {
		fmt.Println("No camera configured.")
		fmt.Println("Set CameraURI in the config file to a device index (\"0\"),")
		fmt.Println("an rtsp:// address, or a video file path.")
		os.Exit(1)
	}

	pipe := buildPipeline(cfg)
	dev, err := device.Open(pipe)
	if err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer dev.Close()

	frames, err := dev.FrameQueue(pipeline.StreamPreview)
	if err != nil {
		log.Fatalf("Missing preview stream: %v", err)
	}
	detections, err := dev.DetectionQueue(pipeline.StreamDetections)
	if err != nil {
		log.Fatalf("Missing detection stream: %v", err)
	}

	window := sink.NewWindow(cfg.WindowName)
	defer window.Close()

	display := &host.PreviewDisplay{
		Window: window,
		MinConfidence: func() float32 {
			return config.Get().ConfidenceThreshold
		},
		TriggerThreshold: func() float32 {
			return config.Get().RecordTriggerConfidence
		},
	}
	if cfg.ShowTimestamp {
		display.CameraName = cfg.CameraName
	}

	// Use the default mux so the pprof handlers come along.
	mux := http.DefaultServeMux

	if cfg.Port > 0 {
		mjpegServer := sink.NewMJPEGServer()

		msraw := mjpegServer.NewStream("raw")
		defer msraw.Close()
		display.RawStream = msraw

		msannotated := mjpegServer.NewStream("annotated")
		defer msannotated.Close()
		display.AnnotatedStream = msannotated

		mux.Handle("/mjpeg", mjpegServer)
		mux.Handle("/metrics", promhttp.Handler())
	}

	if cfg.RecordPath != "" {
		fs, err := video.NewFilesystem(video.FilesystemOptions{
			BasePath: cfg.RecordPath,
			MaxSize:  cfg.RecordMaxSize,
		})
		if err != nil {
			log.Fatalf("Failed to create clip filesystem: %v", err)
		}

		vp := &video.VideoSinkProducer{
			FFmpegOptions: sink.FFmpegOptions{
				Size: pipe.Camera.PreviewSize,
				FPS:  15,
			},
			Filesystem:     fs,
			VThumbProducer: process.NewVThumbProducer(),
		}

		rec := video.NewRecorder(vp, func() video.RecorderOptions {
			c := config.Get()
			return video.RecorderOptions{
				BufferTime:    time.Duration(c.BufferTimeSec) * time.Second,
				RecordTime:    time.Duration(c.RecordTimeSec) * time.Second,
				MaxRecordTime: time.Duration(c.MaxRecordTimeSec) * time.Second,
			}
		})
		defer rec.Close()
		display.Recorder = rec

		metaws := serve.NewEventUpdater()
		fs.Listeners = append(fs.Listeners, metaws) // Receive filesystem updates

		mux.Handle("/trigger", rec)
		mux.Handle("/events", &serve.EventServer{FS: fs})
		mux.Handle("/eventsws", metaws)
		mux.Handle("/video", serve.NewVideoServer(fs))
		mux.Handle("/thumb", serve.NewThumbServer(fs))
		mux.Handle("/vthumb", serve.NewVThumbServer(fs))
		mux.Handle("/delete", &serve.DeleteServer{FS: fs})
	}

	notifier := notify.NewNotifier(func() notify.Options {
		c := config.Get()
		return notify.Options{
			ConfidenceThreshold:    c.NotifyConfidence,
			NotificationHoursStart: c.NotificationHoursStart,
			NotificationHoursEnd:   c.NotificationHoursEnd,
			Cooldown:               time.Duration(c.NotifyCooldownSec) * time.Second,
		}
	})
	display.Notifier = notifier

	if cfg.PushDSN != "" {
		db, err := gorm.Open(mysql.Open(cfg.PushDSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to open push database: %v", err)
		}
		wp, err := notify.NewWebPush(cfg.PushSubscriber, db)
		if err != nil {
			log.Fatalf("Failed to initialize web push: %v", err)
		}
		wp.RegisterHandlers(mux)
		notifier.Listeners = append(notifier.Listeners, wp)
	}

	if cfg.Port > 0 {
		go func() {
			log.Infof("Hosting debug endpoints on port %d", cfg.Port)
			h := handlers.CombinedLoggingHandler(os.Stdout, mux)
			log.Errorf("Debug server exited: %v",
				http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), h))
		}()
	}

	loop := &host.Loop{
		Frames:     frames,
		Detections: detections,
		Display:    display,
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Infof("Caught signal %v", sig)
		loop.Stop()
	}()

	loop.Run()
}
