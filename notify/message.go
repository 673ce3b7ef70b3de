package notify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// lineLength is the maximum length of a base64 body line (RFC 2045).
const lineLength = 76

// BuildMessage renders n as a multipart/mixed message with the clip as its
// only part, base64 encoded as application/octet-stream.
func BuildMessage(n *Notification, date time.Time) ([]byte, error) {
	data, err := os.ReadFile(n.AttachmentPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read attachment")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Transfer-Encoding", "base64")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(n.AttachmentPath)))
	pw, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > lineLength {
		fmt.Fprintf(pw, "%s\r\n", enc[:lineLength])
		enc = enc[lineLength:]
	}
	fmt.Fprintf(pw, "%s\r\n", enc)
	if err := mw.Close(); err != nil {
		return nil, err
	}

	if date.IsZero() {
		date = time.Now()
	}
	var msg bytes.Buffer
	for _, kv := range [][2]string{
		{"MIME-Version", "1.0"},
		{"Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary())},
		{"To", n.To},
		{"From", n.From},
		{"Subject", mime.QEncoding.Encode("utf-8", n.Subject)},
		{"Date", date.Format(time.RFC1123Z)},
	} {
		fmt.Fprintf(&msg, "%s: %s\r\n", kv[0], kv[1])
	}
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
