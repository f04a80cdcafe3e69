package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSMTPClient struct {
	mailFrom string
	rcpts    []string
	data     bytes.Buffer
	quit     bool
}

func (f *fakeSMTPClient) Mail(from string) error { f.mailFrom = from; return nil }
func (f *fakeSMTPClient) Rcpt(to string) error   { f.rcpts = append(f.rcpts, to); return nil }
func (f *fakeSMTPClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.data}, nil
}
func (f *fakeSMTPClient) Quit() error                     { f.quit = true; return nil }
func (f *fakeSMTPClient) Close() error                    { return nil }
func (f *fakeSMTPClient) StartTLS(*tls.Config) error      { return nil }
func (f *fakeSMTPClient) Auth(smtp.Auth) error            { return nil }
func (f *fakeSMTPClient) Extension(string) (bool, string) { return false, "" }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newTestMailer(client *fakeSMTPClient) Mailer {
	return &smtpMailer{
		cfg: SMTPSettings{
			Enabled: true,
			Host:    "mail.example.com",
			Port:    587,
			From:    "noreply@example.com",
			Timeout: time.Second,
		},
		dialFn: func(context.Context, SMTPSettings) (net.Conn, smtpClient, error) {
			server, _ := net.Pipe()
			return server, client, nil
		},
		authFn: func(smtpClient, SMTPSettings) error { return nil },
	}
}

func TestSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: []string{"a@b.com"}})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSendPlainText(t *testing.T) {
	client := &fakeSMTPClient{}
	mailer := newTestMailer(client)

	err := mailer.Send(context.Background(), Message{
		To:      []string{"user@example.com", "user@example.com"},
		Subject: "Verify Your Email - OTP",
		Body:    "Your OTP is 482913.",
	})
	require.NoError(t, err)

	require.Equal(t, "noreply@example.com", client.mailFrom)
	require.Equal(t, []string{"user@example.com"}, client.rcpts, "duplicate recipients collapse")
	require.Contains(t, client.data.String(), "Your OTP is 482913.")
	require.Contains(t, client.data.String(), "Content-Type: text/plain")
	require.True(t, client.quit)
}

func TestSendMultipartWhenHTMLPresent(t *testing.T) {
	client := &fakeSMTPClient{}
	mailer := newTestMailer(client)

	err := mailer.Send(context.Background(), Message{
		To:       []string{"user@example.com"},
		Subject:  "Welcome",
		Body:     "Welcome aboard",
		HTMLBody: "<h1>Welcome aboard</h1>",
	})
	require.NoError(t, err)

	body := client.data.String()
	require.Contains(t, body, "multipart/alternative")
	require.Contains(t, body, "<h1>Welcome aboard</h1>")
}

func TestSubjectHeaderInjectionStripped(t *testing.T) {
	client := &fakeSMTPClient{}
	mailer := newTestMailer(client)

	err := mailer.Send(context.Background(), Message{
		To:      []string{"user@example.com"},
		Subject: "hello\r\nBcc: evil@example.com",
		Body:    "hi",
	})
	require.NoError(t, err)
	require.NotContains(t, client.data.String(), "Bcc: evil@example.com")
}
