// Package monitor records a clip and emails it whenever a trigger fires.
package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"picam/config"
	"picam/device"
	"picam/notify"
	"picam/trigger"
	"picam/video"
)

const (
	StateArmed     = "armed"
	StateRecording = "recording"
)

var rule = strings.Repeat("=", 45)

// Indicator shows the monitor state, normally the RGB LED.
type Indicator interface {
	SetColor(device.Color) error
}

// StatusListener is told about every state change.
type StatusListener interface {
	StatusChanged(state string)
}

// Monitor is the action bound to every trigger source. One recording runs at
// a time; triggers arriving meanwhile are dropped with trigger.ErrBusy.
type Monitor struct {
	Config     *config.Config
	LED        Indicator
	Capturer   video.Capturer
	Filesystem *video.Filesystem
	Notifier   notify.NotifyListener

	Listeners []StatusListener

	// Now is the clock used to name clips.
	Now func() time.Time

	busy sync.Mutex
}

func New(c *config.Config, led Indicator, capturer video.Capturer, fs *video.Filesystem, n notify.NotifyListener) *Monitor {
	return &Monitor{
		Config:     c,
		LED:        led,
		Capturer:   capturer,
		Filesystem: fs,
		Notifier:   n,
		Now:        time.Now,
	}
}

func (m *Monitor) setState(c device.Color, state string) {
	if err := m.LED.SetColor(c); err != nil {
		log.Warnf("Failed to set indicator to %v: %v", c, err)
	}
	for _, l := range m.Listeners {
		l.StatusChanged(state)
	}
}

// Arm shows the idle state. Call once the watcher is running.
func (m *Monitor) Arm() {
	m.setState(device.Green, StateArmed)
}

// Watch shows the idle state, then hands every event from sources to Handle
// until ctx is done. The indicator is green before any source can fire.
func (m *Monitor) Watch(ctx context.Context, sources ...trigger.Source) error {
	m.Arm()
	w := trigger.NewWatcher(m, sources...)
	go func() {
		select {
		case <-w.Armed.C():
			log.Infof("Armed, recording %v clips", m.Config.Video.LengthString)
		case <-ctx.Done():
		}
	}()
	return w.Run(ctx)
}

// Handle records one clip and sends it. A failed capture is logged and the
// clip is sent anyway; a failed send is returned, leaving the clip on disk.
func (m *Monitor) Handle(ctx context.Context, ev trigger.Event) error {
	if !m.busy.TryLock() {
		return trigger.ErrBusy
	}
	defer m.busy.Unlock()

	start := time.Now()
	defer func() { actionSeconds.Observe(time.Since(start).Seconds()) }()

	m.setState(device.Red, StateRecording)
	defer m.setState(device.Green, StateArmed)

	log.Info(rule)
	log.Info("Recording...")
	vr := m.Filesystem.NewRecord(m.Now())
	res := m.Capturer.Capture(ctx, vr.VideoPath, m.Config.Video.LengthString)
	if !res.OK() {
		captureFailures.Inc()
		log.Warnf("Capture exited with status %d (%v), sending %v anyway", res.ExitCode, res.Err, res.Path)
	} else {
		log.Info("Recorded video")
	}

	err := m.Notifier.Notify(&notify.Notification{
		Subject:        m.Config.Email.Topic,
		From:           m.Config.Email.From,
		To:             m.Config.Email.To,
		AttachmentPath: res.Path,
		Source:         ev.Source,
		Time:           vr.Time,
	})
	log.Info(rule)
	if err != nil {
		emailFailures.Inc()
		return errors.Wrapf(err, "failed to send %v", res.Path)
	}
	emailsSent.Inc()
	return nil
}
