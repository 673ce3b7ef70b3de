package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"picam/config"
	"picam/device"
	"picam/monitor"
	"picam/notify"
	"picam/serve"
	"picam/trigger"
	"picam/util"
	"picam/video"
)

var (
	configPath = flag.String("config", config.DefaultPath, "Path to the properties file.")
	port       = flag.Int("port", 0, "Port for manual trigger, status and metrics. 0 disables HTTP.")
	debug      = flag.Bool("debug", false, "Enable debug logging, including ffmpeg output.")
)

func main() {
	flag.Parse()
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	// Configuration must be complete before any input is armed.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.WarnInsecure()

	ffmpegp, err := util.LocateFFmpeg()
	if err != nil {
		fmt.Println("Unable to locate ffmpeg binary", err)
		fmt.Println("FFmpeg is required for recording video.")
		fmt.Println("Either ensure the ffmpeg binary is in $PATH,")
		fmt.Println("or set the FFMPEG environment variable.")
		os.Exit(1)
		return
	}
	log.Infof("Located ffmpeg binary, %v", ffmpegp)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.WatchForChanges(ctx, *configPath, nil)

	fs, err := video.NewFilesystem(cfg.Video.OutputDir)
	if err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := monitor.RegisterUsage(prometheus.DefaultRegisterer, fs); err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	gpio, err := device.Open()
	if err != nil {
		log.Fatalf("Failed to open GPIO: %v", err)
	}
	defer gpio.Close()

	d := cfg.Devices
	led := device.NewRGBLED(device.Output(d.LEDRed), device.Output(d.LEDGreen), device.Output(d.LEDBlue))
	defer led.SetColor(device.Off)

	ranger := device.NewUltrasonic(device.Output(d.Trigger), device.FloatingInput(d.Echo), d.MaxDistance)
	sources := []trigger.Source{
		trigger.NewButton("button", device.Input(d.Button)),
		trigger.NewRange("distance", ranger, d.ThresholdDistance, d.MaxDistance),
	}

	capturer := video.NewFFmpeg(video.CaptureOptions{
		Binary:     ffmpegp,
		Format:     cfg.Video.Format,
		FPS:        cfg.Video.FPS,
		Resolution: cfg.Video.Resolution,
		Device:     cfg.Video.Device,
	})

	status := serve.NewStatusUpdater()
	notifier := &notify.Notifier{
		Listeners: []notify.NotifyListener{notify.NewMailer(cfg.SMTP), status},
	}

	mon := monitor.New(cfg, led, capturer, fs, notifier)
	mon.Listeners = append(mon.Listeners, status)

	if *port != 0 {
		manual := trigger.NewManual("http")
		sources = append(sources, manual)
		mux := serve.NewMux(manual, status, prometheus.DefaultGatherer)
		go func() {
			if err := serve.ListenAndServe(ctx, *port, mux); err != nil {
				log.Errorf("HTTP server failed: %v", err)
			}
		}()
	}

	log.Infof("Recording from %v", cfg.Video.Device)
	if err := mon.Watch(ctx, sources...); err != nil && ctx.Err() == nil {
		log.Fatalf("Watcher failed: %v", err)
	}
	log.Info("Caught signal, shutting down")
}
