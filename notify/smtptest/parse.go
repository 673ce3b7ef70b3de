package smtptest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
)

// Attachment is one decoded part of a multipart message.
type Attachment struct {
	Header   textproto.MIMEHeader
	Filename string
	Data     []byte
}

// Parse splits a raw multipart message into its header and parts. Base64
// parts are decoded.
func Parse(raw []byte) (*mail.Message, []Attachment, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}
	mt, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasPrefix(mt, "multipart/") {
		return nil, nil, fmt.Errorf("not multipart: %v", mt)
	}

	var parts []Attachment
	r := multipart.NewReader(msg.Body, params["boundary"])
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		b, err := io.ReadAll(p)
		if err != nil {
			return nil, nil, err
		}
		if strings.EqualFold(p.Header.Get("Content-Transfer-Encoding"), "base64") {
			if b, err = base64.StdEncoding.DecodeString(string(b)); err != nil {
				return nil, nil, err
			}
		}
		parts = append(parts, Attachment{Header: p.Header, Filename: p.FileName(), Data: b})
	}
	return msg, parts, nil
}

// Parse is Parse applied to the message data.
func (m Message) Parse() (*mail.Message, []Attachment, error) {
	return Parse(m.Data)
}
