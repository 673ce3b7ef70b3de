package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var props = `
[VideoSection]
video.length = 5

[EmailSection]
email.topic = Alert
email.to = a@x.com
email.from = b@x.com

[SmtpSection]
smtp.server = mail.example.com
smtp.user = pi
smtp.password = s3cr#t;pw
`

func ExampleFormatDuration() {
	s, _ := FormatDuration(3661)
	fmt.Println(s)
	// Output:
	// 01:01:01
}

func TestFormatDuration(t *testing.T) {
	for secs, want := range map[int]string{
		0:     "00:00:00",
		5:     "00:00:05",
		59:    "00:00:59",
		60:    "00:01:00",
		3599:  "00:59:59",
		3661:  "01:01:01",
		86399: "23:59:59",
		90000: "25:00:00",
	} {
		got, err := FormatDuration(secs)
		assert.NoError(t, err)
		assert.Equal(t, want, got, "seconds=%d", secs)
		assert.Regexp(t, `^\d{2,}:\d{2}:\d{2}$`, got)
	}

	_, err := FormatDuration(-1)
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	assert := assert.New(t)
	c, err := Parse([]byte(props))
	require.NoError(t, err)

	assert.Equal(5*time.Second, c.Video.Length)
	assert.Equal("00:00:05", c.Video.LengthString)
	assert.Equal("/dev/video0", c.Video.Device)
	assert.Equal("v4l2", c.Video.Format)
	assert.Equal(25, c.Video.FPS)
	assert.Equal("1024x768", c.Video.Resolution)
	assert.Equal(os.TempDir(), c.Video.OutputDir)

	assert.Equal(EmailConfig{Topic: "Alert", To: "a@x.com", From: "b@x.com"}, c.Email)

	assert.Equal("mail.example.com", c.SMTP.Server)
	assert.Equal("pi", c.SMTP.User)
	assert.Equal("s3cr#t;pw", c.SMTP.Password)
	assert.Equal(SecurityPlain, c.SMTP.Security)
	assert.True(c.SMTP.SecurityDefaulted)

	assert.Equal(DeviceConfig{
		LEDRed: 13, LEDGreen: 19, LEDBlue: 26,
		Button: 17,
		Echo:   12, Trigger: 16,
		ThresholdDistance: 0.2,
		MaxDistance:       2,
	}, c.Devices)
}

func TestParseOptionalKeys(t *testing.T) {
	assert := assert.New(t)
	c, err := Parse([]byte(props + `
smtp.security = STARTTLS

[DeviceSection]
button = 4
threshold = 0.5
max_distance = 1.5
`))
	require.NoError(t, err)
	assert.Equal(SecurityStartTLS, c.SMTP.Security)
	assert.False(c.SMTP.SecurityDefaulted)
	assert.Equal(4, c.Devices.Button)
	assert.Equal(0.5, c.Devices.ThresholdDistance)
	assert.Equal(1.5, c.Devices.MaxDistance)
}

func TestParseCaseInsensitiveKeys(t *testing.T) {
	c, err := Parse([]byte(`
[VideoSection]
Video.Length: 61
[EmailSection]
EMAIL.TOPIC: t
email.to: to@x.com
email.from: from@x.com
[SmtpSection]
smtp.server: s
smtp.user: u
smtp.password: p
`))
	require.NoError(t, err)
	assert.Equal(t, "00:01:01", c.Video.LengthString)
	assert.Equal(t, "t", c.Email.Topic)
}

func TestParseErrors(t *testing.T) {
	for name, data := range map[string]string{
		"empty":            ``,
		"missing section":  `[VideoSection]` + "\nvideo.length = 5\n",
		"missing key":      replace(props, "email.to = a@x.com", ""),
		"bad length":       replace(props, "video.length = 5", "video.length = five"),
		"negative length":  replace(props, "video.length = 5", "video.length = -5"),
		"overflow length":  replace(props, "video.length = 5", "video.length = 9300000000"),
		"unknown security": props + "smtp.security = ssl\n",
		"bad range":        props + "[DeviceSection]\nthreshold = 3\nmax_distance = 2\n",
	} {
		_, err := Parse([]byte(data))
		assert.Error(t, err, name)
	}
}

func replace(s, old, new string) string {
	if !strings.Contains(s, old) {
		panic("not found: " + old)
	}
	return strings.Replace(s, old, new, 1)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(props), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", c.Email.To)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.properties"))
	assert.Error(t, err)
}

func TestRedacted(t *testing.T) {
	c, err := Parse([]byte(props))
	require.NoError(t, err)
	r := c.Redacted()
	assert.Equal(t, "REDACTED", r.SMTP.Password)
	assert.Equal(t, "s3cr#t;pw", c.SMTP.Password)
}

func TestWatchForChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(props), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	WatchForChanges(ctx, path, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	// Keep writing until the watch is in place and reports.
	deadline := time.After(5 * time.Second)
	for {
		require.NoError(t, os.WriteFile(path, []byte(props+"\n"), 0600))
		select {
		case <-changed:
			return
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}

func TestWatchMissingFileLogsOnce(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	level := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	go watch(ctx, filepath.Join(t.TempDir(), "gone.properties"), func() {}, time.Millisecond)

	count := func(l log.Level) int {
		n := 0
		for _, e := range hook.AllEntries() {
			if e.Level == l && strings.Contains(e.Message, "config") {
				n++
			}
		}
		return n
	}
	require.Eventually(t, func() bool {
		return count(log.DebugLevel) >= 3
	}, 5*time.Second, time.Millisecond)
	cancel()

	assert.Equal(t, 1, count(log.ErrorLevel))
}
