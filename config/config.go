package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-ini/ini"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultPath is where the properties file is expected, relative to the
// working directory of the process.
const DefaultPath = "monitoring.properties"

const (
	SectionVideo  = "VideoSection"
	SectionEmail  = "EmailSection"
	SectionSMTP   = "SmtpSection"
	SectionDevice = "DeviceSection"
)

// Security selects how the SMTP session is protected.
type Security string

const (
	// SecurityPlain authenticates over an unencrypted connection. Credentials
	// cross the network in the clear.
	SecurityPlain    Security = "plain"
	SecurityStartTLS Security = "starttls"
	SecurityTLS      Security = "tls"
)

func parseSecurity(s string) (Security, error) {
	switch sec := Security(strings.ToLower(strings.TrimSpace(s))); sec {
	case SecurityPlain, SecurityStartTLS, SecurityTLS:
		return sec, nil
	}
	return "", errors.Errorf("unknown smtp.security %q (want plain, starttls or tls)", s)
}

type VideoConfig struct {
	// Length of each clip.
	Length time.Duration
	// LengthString is Length formatted as HH:MM:SS for ffmpeg.
	LengthString string

	Device     string
	Format     string
	FPS        int
	Resolution string

	// OutputDir receives the recorded clips. Files are never removed.
	OutputDir string
}

type EmailConfig struct {
	Topic string
	To    string
	From  string
}

type SMTPConfig struct {
	Server   string
	User     string
	Password string

	Security Security
	// SecurityDefaulted is set when smtp.security was absent from the file.
	SecurityDefaulted bool
}

// DeviceConfig holds BCM pin numbers and the near-range window of the
// distance sensor, in metres.
type DeviceConfig struct {
	LEDRed, LEDGreen, LEDBlue int
	Button                    int
	Echo, Trigger             int

	ThresholdDistance float64
	MaxDistance       float64
}

// Config is built once at startup and is read-only afterwards.
type Config struct {
	Video   VideoConfig
	Email   EmailConfig
	SMTP    SMTPConfig
	Devices DeviceConfig
}

// FormatDuration renders a number of seconds as HH:MM:SS. Hours are not
// wrapped at 24.
func FormatDuration(seconds int) (string, error) {
	if seconds < 0 {
		return "", errors.Errorf("negative duration %d", seconds)
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s), nil
}

func loadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		// Option names are case-insensitive in the properties format.
		InsensitiveKeys: true,
		// Passwords may legitimately contain '#' or ';'.
		IgnoreInlineComment: true,
	}
}

// Load reads the properties file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	f, err := ini.LoadSources(loadOptions(), path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	c, err := fromFile(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	log.Infof("Loaded configuration: %v", spew.Sdump(c.Redacted()))
	return c, nil
}

// Parse builds a Config from the contents of a properties file.
func Parse(data []byte) (*Config, error) {
	f, err := ini.LoadSources(loadOptions(), data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse properties")
	}
	return fromFile(f)
}

func required(f *ini.File, section, key string) (*ini.Key, error) {
	s, err := f.GetSection(section)
	if err != nil {
		return nil, errors.Errorf("missing section [%s]", section)
	}
	k, err := s.GetKey(key)
	if err != nil {
		return nil, errors.Errorf("missing key %s in [%s]", key, section)
	}
	return k, nil
}

func requiredString(f *ini.File, section, key string) (string, error) {
	k, err := required(f, section, key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(k.String()), nil
}

func fromFile(f *ini.File) (*Config, error) {
	c := &Config{}

	k, err := required(f, SectionVideo, "video.length")
	if err != nil {
		return nil, err
	}
	secs, err := k.Int()
	if err != nil {
		return nil, errors.Wrapf(err, "video.length %q is not a whole number of seconds", k.String())
	}
	if int64(secs) > math.MaxInt64/int64(time.Second) {
		return nil, errors.Errorf("video.length %d is too long", secs)
	}
	if c.Video.LengthString, err = FormatDuration(secs); err != nil {
		return nil, errors.Wrap(err, "video.length")
	}
	c.Video.Length = time.Duration(secs) * time.Second

	video := f.Section(SectionVideo)
	c.Video.Device = video.Key("video.device").MustString("/dev/video0")
	c.Video.Format = video.Key("video.format").MustString("v4l2")
	c.Video.FPS = video.Key("video.fps").MustInt(25)
	c.Video.Resolution = video.Key("video.resolution").MustString("1024x768")
	c.Video.OutputDir = video.Key("video.dir").MustString(os.TempDir())

	for _, r := range []struct {
		key string
		dst *string
	}{
		{"email.topic", &c.Email.Topic},
		{"email.to", &c.Email.To},
		{"email.from", &c.Email.From},
	} {
		if *r.dst, err = requiredString(f, SectionEmail, r.key); err != nil {
			return nil, err
		}
	}

	for _, r := range []struct {
		key string
		dst *string
	}{
		{"smtp.server", &c.SMTP.Server},
		{"smtp.user", &c.SMTP.User},
		{"smtp.password", &c.SMTP.Password},
	} {
		if *r.dst, err = requiredString(f, SectionSMTP, r.key); err != nil {
			return nil, err
		}
	}

	smtp := f.Section(SectionSMTP)
	if smtp.HasKey("smtp.security") {
		if c.SMTP.Security, err = parseSecurity(smtp.Key("smtp.security").String()); err != nil {
			return nil, err
		}
	} else {
		c.SMTP.Security = SecurityPlain
		c.SMTP.SecurityDefaulted = true
	}

	dev := f.Section(SectionDevice)
	c.Devices = DeviceConfig{
		LEDRed:            dev.Key("led.red").MustInt(13),
		LEDGreen:          dev.Key("led.green").MustInt(19),
		LEDBlue:           dev.Key("led.blue").MustInt(26),
		Button:            dev.Key("button").MustInt(17),
		Echo:              dev.Key("echo").MustInt(12),
		Trigger:           dev.Key("trigger").MustInt(16),
		ThresholdDistance: dev.Key("threshold").MustFloat64(0.2),
		MaxDistance:       dev.Key("max_distance").MustFloat64(2),
	}
	if c.Devices.ThresholdDistance <= 0 || c.Devices.MaxDistance <= 0 {
		return nil, errors.New("distances in [DeviceSection] must be positive")
	}
	if c.Devices.ThresholdDistance > c.Devices.MaxDistance {
		return nil, errors.Errorf("threshold %v exceeds max_distance %v",
			c.Devices.ThresholdDistance, c.Devices.MaxDistance)
	}

	return c, nil
}

// Redacted returns a copy that is safe to log.
func (c *Config) Redacted() Config {
	r := *c
	if r.SMTP.Password != "" {
		r.SMTP.Password = "REDACTED"
	}
	return r
}

// WarnInsecure logs the transport security decision. Plaintext sessions are
// called out loudly since the password is sent unencrypted.
func (c *Config) WarnInsecure() {
	switch {
	case c.SMTP.Security == SecurityPlain && c.SMTP.SecurityDefaulted:
		log.Warnf("smtp.security not set, using plain: credentials for %v are sent unencrypted", c.SMTP.Server)
	case c.SMTP.Security == SecurityPlain:
		log.Warnf("smtp.security=plain: credentials for %v are sent unencrypted", c.SMTP.Server)
	default:
		log.Infof("SMTP transport security: %v", c.SMTP.Security)
	}
}
