// Package smtptest provides an in-process SMTP server for tests.
package smtptest

import (
	"encoding/base64"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
)

// Message is one message accepted by Server.
type Message struct {
	Auth string
	From string
	To   []string
	Data []byte
}

// Server is a minimal SMTP server good enough for net/smtp's client. It
// speaks plaintext only.
type Server struct {
	// RejectAuth makes every AUTH attempt fail with 535.
	RejectAuth bool
	// AdvertiseStartTLS lists STARTTLS in the EHLO reply without supporting it.
	AdvertiseStartTLS bool

	ln net.Listener

	l        sync.Mutex
	messages []Message
	sessions int
}

// NewServer starts a server on a loopback port. It is closed when the test
// finishes.
func NewServer(t testing.TB) *Server {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &Server{ln: ln}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()
	return s
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops accepting sessions.
func (s *Server) Close() error {
	return s.ln.Close()
}

func (s *Server) Messages() []Message {
	s.l.Lock()
	defer s.l.Unlock()
	return append([]Message(nil), s.messages...)
}

// Sessions counts accepted connections.
func (s *Server) Sessions() int {
	s.l.Lock()
	defer s.l.Unlock()
	return s.sessions
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()
	s.l.Lock()
	s.sessions++
	s.l.Unlock()

	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 localhost ESMTP fake")
	var cur Message
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "EHLO":
			tp.PrintfLine("250-localhost")
			if s.AdvertiseStartTLS {
				tp.PrintfLine("250-STARTTLS")
			}
			tp.PrintfLine("250 AUTH PLAIN")
		case "HELO":
			tp.PrintfLine("250 localhost")
		case "AUTH":
			if s.RejectAuth {
				tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
				continue
			}
			_, resp, _ := strings.Cut(arg, " ")
			b, _ := base64.StdEncoding.DecodeString(resp)
			cur.Auth = string(b)
			tp.PrintfLine("235 2.7.0 Authentication successful")
		case "MAIL":
			cur.From = strings.Trim(strings.TrimPrefix(arg, "FROM:"), "<>")
			tp.PrintfLine("250 OK")
		case "RCPT":
			cur.To = append(cur.To, strings.Trim(strings.TrimPrefix(arg, "TO:"), "<>"))
			tp.PrintfLine("250 OK")
		case "DATA":
			tp.PrintfLine("354 go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			cur.Data = data
			s.l.Lock()
			s.messages = append(s.messages, cur)
			s.l.Unlock()
			cur = Message{Auth: cur.Auth}
			tp.PrintfLine("250 OK queued")
		case "QUIT":
			tp.PrintfLine("221 bye")
			return
		default:
			tp.PrintfLine("501 unrecognised")
		}
	}
}
