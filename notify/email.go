package notify

import (
	"crypto/tls"
	"net"
	"net/smtp"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"picam/config"
)

const (
	// DefaultPort is used for plain and STARTTLS sessions when smtp.server
	// carries no port.
	DefaultPort = 25
	// DefaultTLSPort is used for implicit TLS sessions.
	DefaultTLSPort = 465
)

// plainAuth is AUTH PLAIN without net/smtp's refusal to send credentials
// over an unencrypted connection. Only used with config.SecurityPlain.
type plainAuth struct {
	username, password string
}

func (a *plainAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	return "PLAIN", []byte("\x00" + a.username + "\x00" + a.password), nil
}

func (a *plainAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if more {
		return nil, errors.New("unexpected server challenge")
	}
	return nil, nil
}

// Mailer sends notifications as email with the clip attached. Each call opens
// a fresh SMTP session.
type Mailer struct {
	SMTP config.SMTPConfig

	// TLSConfig is used for tls and starttls sessions. If nil, a config for
	// the server host is used.
	TLSConfig *tls.Config

	Dial func(network, addr string) (net.Conn, error)
}

func NewMailer(c config.SMTPConfig) *Mailer {
	return &Mailer{
		SMTP: c,
		Dial: net.Dial,
	}
}

// addr returns host:port and the bare host of the configured server.
func (m *Mailer) addr() (string, string) {
	if host, _, err := net.SplitHostPort(m.SMTP.Server); err == nil {
		return m.SMTP.Server, host
	}
	port := DefaultPort
	if m.SMTP.Security == config.SecurityTLS {
		port = DefaultTLSPort
	}
	return net.JoinHostPort(m.SMTP.Server, strconv.Itoa(port)), m.SMTP.Server
}

func (m *Mailer) tlsConfig(host string) *tls.Config {
	if m.TLSConfig != nil {
		return m.TLSConfig
	}
	return &tls.Config{ServerName: host}
}

func (m *Mailer) auth(host string) smtp.Auth {
	if m.SMTP.Security == config.SecurityPlain {
		return &plainAuth{username: m.SMTP.User, password: m.SMTP.Password}
	}
	return smtp.PlainAuth("", m.SMTP.User, m.SMTP.Password, host)
}

// Notify implements NotifyListener.
func (m *Mailer) Notify(n *Notification) error {
	msg, err := BuildMessage(n, n.Time)
	if err != nil {
		return err
	}
	log.Infof("Sending email...")
	if err := m.Send(n.From, []string{n.To}, msg); err != nil {
		return err
	}
	log.Infof("Sent email")
	return nil
}

// Send delivers msg in a single SMTP session.
func (m *Mailer) Send(from string, to []string, msg []byte) error {
	addr, host := m.addr()
	dial := m.Dial
	if dial == nil {
		dial = net.Dial
	}
	conn, err := dial("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", addr)
	}
	if m.SMTP.Security == config.SecurityTLS {
		conn = tls.Client(conn, m.tlsConfig(host))
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return errors.Wrapf(err, "smtp handshake with %s", addr)
	}
	defer c.Close()

	if m.SMTP.Security == config.SecurityStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.Errorf("%s does not offer STARTTLS", addr)
		}
		if err := c.StartTLS(m.tlsConfig(host)); err != nil {
			return errors.Wrap(err, "starttls")
		}
	}

	if m.SMTP.User != "" {
		if err := c.Auth(m.auth(host)); err != nil {
			return errors.Wrapf(err, "smtp login as %s", m.SMTP.User)
		}
	}

	if err := c.Mail(from); err != nil {
		return errors.Wrap(err, "smtp MAIL")
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return errors.Wrapf(err, "smtp RCPT %s", rcpt)
		}
	}
	w, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "smtp DATA")
	}
	if _, err := w.Write(msg); err != nil {
		return errors.Wrap(err, "smtp DATA")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "smtp DATA")
	}
	return c.Quit()
}
