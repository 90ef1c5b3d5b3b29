package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	body []byte
}

func newTestSMTPSender(user string, sendErr error) (*SMTPSender, *capturedMail) {
	got := &capturedMail{}
	s := NewSMTPSender("smtp.example.com", "587", user, "pw", NewFrom("Warehouse", "noreply@example.com"))
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	s.send = func(_ context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*got = capturedMail{addr: addr, auth: a, from: from, to: to, body: msg}
		return sendErr
	}
	return s, got
}

func readParts(t *testing.T, r io.Reader, contentType string) map[string][]byte {
	t.Helper()
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	parts := map[string][]byte{}
	mr := multipart.NewReader(r, params["boundary"])
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(p)
		require.NoError(t, err)
		mediaType, _, err := mime.ParseMediaType(p.Header.Get("Content-Type"))
		require.NoError(t, err)
		parts[mediaType] = body
		if id := p.Header.Get("Content-Id"); id != "" {
			parts["cid:"+id] = body
		}
		if strings.HasPrefix(mediaType, "multipart/") {
			for k, v := range readParts(t, bytes.NewReader(body), p.Header.Get("Content-Type")) {
				parts[k] = v
			}
		}
	}
	return parts
}

func TestSMTPSender_SendAlternative(t *testing.T) {
	s, got := newTestSMTPSender("user", nil)

	err := s.Send(context.Background(), &Message{
		To:      "alice@x.com",
		Subject: "Şifre Sıfırlama",
		HTML:    "<p>Hello alice</p>",
		Text:    "Hello alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", got.addr)
	assert.NotNil(t, got.auth)
	assert.Equal(t, "noreply@example.com", got.from)
	assert.Equal(t, []string{"alice@x.com"}, got.to)

	m, err := mail.ReadMessage(bytes.NewReader(got.body))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(m.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Şifre Sıfırlama", subject)
	assert.Contains(t, m.Header.Get("From"), "noreply@example.com")
	assert.Equal(t, "Fri, 02 Jan 2026 03:04:05 +0000", m.Header.Get("Date"))

	ct := m.Header.Get("Content-Type")
	assert.True(t, strings.HasPrefix(ct, "multipart/alternative"))

	parts := readParts(t, m.Body, ct)
	assert.Contains(t, string(parts["text/plain"]), "Hello alice")
	assert.Contains(t, string(parts["text/html"]), "<p>Hello alice</p>")
}

func TestSMTPSender_SendInlineLogo(t *testing.T) {
	s, got := newTestSMTPSender("", nil)
	logo := bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 50)

	err := s.Send(context.Background(), &Message{
		To:      "alice@x.com",
		Subject: "Reset",
		HTML:    `<img src="cid:logo">`,
		Text:    "reset",
		Inline:  []Attachment{{Filename: "logo.png", ContentType: "image/png", ContentID: "logo", Data: logo}},
	})
	require.NoError(t, err)
	assert.Nil(t, got.auth)

	m, err := mail.ReadMessage(bytes.NewReader(got.body))
	require.NoError(t, err)
	ct := m.Header.Get("Content-Type")
	assert.True(t, strings.HasPrefix(ct, "multipart/related"))

	parts := readParts(t, m.Body, ct)
	assert.Contains(t, parts, "multipart/alternative")
	assert.Contains(t, string(parts["text/html"]), "cid:logo")
	require.Contains(t, parts, "cid:<logo>")
	assert.NotEmpty(t, parts["cid:<logo>"])
}

func TestSMTPSender_Errors(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		s, _ := newTestSMTPSender("", nil)
		require.ErrorIs(t, s.Send(context.Background(), &Message{Subject: "x"}), ErrNoRecipient)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s, got := newTestSMTPSender("", nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, s.Send(ctx, &Message{To: "a@x.com"}), context.Canceled)
		assert.Nil(t, got.body)
	})

	t.Run("transport failure", func(t *testing.T) {
		s, _ := newTestSMTPSender("", errors.New("connection reset"))
		err := s.Send(context.Background(), &Message{To: "a@x.com", Text: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestDeliver(t *testing.T) {
	t.Run("plain exchange", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { ln.Close() })

		received := make(chan string, 1)
		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			tp := textproto.NewConn(conn)
			_ = tp.PrintfLine("220 test ready")
			var data strings.Builder
			for {
				line, err := tp.ReadLine()
				if err != nil {
					return
				}
				switch {
				case strings.HasPrefix(line, "EHLO"):
					_ = tp.PrintfLine("250 test")
				case strings.HasPrefix(line, "DATA"):
					_ = tp.PrintfLine("354 go ahead")
					body, _ := tp.ReadDotLines()
					data.WriteString(strings.Join(body, "\n"))
					_ = tp.PrintfLine("250 queued")
				case strings.HasPrefix(line, "QUIT"):
					_ = tp.PrintfLine("221 bye")
					received <- data.String()
					return
				default:
					_ = tp.PrintfLine("250 ok")
				}
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = deliver(ctx, ln.Addr().String(), nil, "noreply@example.com", []string{"a@x.com"}, []byte("Subject: hi\r\n\r\nhello\r\n"))
		require.NoError(t, err)
		assert.Contains(t, <-received, "hello")
	})

	t.Run("stalled server", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { ln.Close() })

		// Accepts and never greets.
		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			_, _ = io.Copy(io.Discard, conn)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		start := time.Now()
		err = deliver(ctx, ln.Addr().String(), nil, "noreply@example.com", []string{"a@x.com"}, []byte("x"))
		require.Error(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}
