// Package notify delivers run reports by email. The core decides when to
// notify and what to attach; this package only carries the message. It is a
// collaborator surface: pipelines depend on the Notifier interface, not on
// SMTP.
package notify

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// Notifier delivers a message with optional attachments. compress asks for
// the attachments to be bundled into a single zip archive.
type Notifier interface {
	Notify(subject string, recipients []string, body string, attachments []string, compress bool) error
}

// Mailer sends notifications over SMTP. Connection settings come from the
// environment (MAIL_SERVER, MAIL_SERVER_PORT, MAIL_SENDER_ADDRESS), keeping
// credentials out of run configuration.
type Mailer struct {
	Server string
	Port   string
	Sender string
}

// NewMailerFromEnv builds a Mailer from the environment, or an error if the
// server settings are absent.
func NewMailerFromEnv() (*Mailer, error) {
	m := &Mailer{
		Server: os.Getenv("MAIL_SERVER"),
		Port:   os.Getenv("MAIL_SERVER_PORT"),
		Sender: os.Getenv("MAIL_SENDER_ADDRESS"),
	}
	if m.Server == "" || m.Port == "" || m.Sender == "" {
		return nil, fmt.Errorf("mail settings incomplete: MAIL_SERVER, MAIL_SERVER_PORT and MAIL_SENDER_ADDRESS must be set")
	}
	return m, nil
}

// Notify sends the message. Attachments that cannot be read are skipped;
// delivery failure is returned to the caller, who logs it rather than
// failing the run.
func (m *Mailer) Notify(subject string, recipients []string, body string, attachments []string, compress bool) error {
	msg, err := buildMessage(m.Sender, recipients, subject, body, attachments, compress)
	if err != nil {
		return err
	}
	addr := m.Server + ":" + m.Port
	if err := smtp.SendMail(addr, nil, m.Sender, recipients, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

func buildMessage(sender string, recipients []string, subject, body string, attachments []string, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", sender)
	fmt.Fprintf(&buf, "Bcc: %s\r\n", strings.Join(recipients, ","))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", w.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := w.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, body); err != nil {
		return nil, err
	}

	if compress && len(attachments) > 0 {
		archive, err := zipFiles(attachments)
		if err != nil {
			return nil, err
		}
		if err := attach(w, "reports.zip", "application/zip", archive); err != nil {
			return nil, err
		}
	} else {
		for _, path := range attachments {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if err := attach(w, filepath.Base(path), "application/octet-stream", data); err != nil {
				return nil, err
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func attach(w *multipart.Writer, name, contentType string, data []byte) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "base64")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	encoder := base64.NewEncoder(base64.StdEncoding, part)
	if _, err := encoder.Write(data); err != nil {
		return err
	}
	return encoder.Close()
}

func zipFiles(paths []string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := zw.Create(filepath.Base(path))
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AttachmentsSize sums the on-disk size of the attachment files; unreadable
// files count as zero. Used against the compression threshold.
func AttachmentsSize(paths []string) int64 {
	var total int64
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}
