package emailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/relay"
)

type mockSender struct {
	err  error
	sent []relay.Message
}

func (m *mockSender) Send(_ context.Context, msg relay.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

var settings = Settings{
	From:         "studio@example.com",
	SiteURL:      "https://photos.example.com",
	ContactInbox: "inbox@example.com",
}

func TestCreateUser(t *testing.T) {

	tt := []struct {
		name    string
		input   string
		sendErr error
		err     string
	}{
		{name: "event_casing", input: `{"address":"jo@example.com","emailType":"createUser","attributes":{
			"uid":{"stringValue":"abc-123","dataType":"String"},
			"expires":{"stringValue":"1776604800000","dataType":"String"}}}`},
		{name: "sdk_casing", input: `{"address":"jo@example.com","attributes":{
			"uid":{"StringValue":"abc-123","DataType":"String"},
			"expires":{"StringValue":"1776604800000","DataType":"String"}}}`},
		{name: "no_uid", input: `{"address":"jo@example.com","attributes":{"expires":{"stringValue":"1"}}}`, err: "missing [uid]"},
		{name: "no_address", input: `{"attributes":{"uid":{"stringValue":"a"},"expires":{"stringValue":"1"}}}`, err: "missing [address]"},
		{name: "bad_expires", input: `{"address":"jo@example.com","attributes":{"uid":{"stringValue":"a"},"expires":{"stringValue":"soon"}}}`, err: "invalid expires"},
		{name: "not_json", input: `{"address":`, err: "not valid JSON"},
		{name: "relay_down", input: `{"address":"jo@example.com","attributes":{
			"uid":{"stringValue":"abc-123"},"expires":{"stringValue":"1776604800000"}}}`,
			sendErr: errors.New("relay replied 503"), err: "failed to send invitation"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			snd := &mockSender{err: tc.sendErr}
			e := NewEmailer(snd, settings, zap.NewNop())

			err := e.CreateUser(context.Background(), []byte(tc.input))
			if err != nil {
				if tc.err == "" || !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("expected error %q, got: %q", tc.err, err)
				}
				return
			}
			if tc.err != "" {
				t.Fatalf("expected error %q, got none", tc.err)
			}

			if len(snd.sent) != 1 {
				t.Fatalf("expected 1 message, got %d", len(snd.sent))
			}
			m := snd.sent[0]
			if m.From != settings.From || len(m.To) != 1 || m.To[0] != "jo@example.com" {
				t.Errorf("unexpected addressing: %+v", m)
			}
			link := "https://photos.example.com/register?token=abc-123"
			if !strings.Contains(m.Text, link) {
				t.Errorf("text is missing the sign-up link: %v", m.Text)
			}
			if !strings.Contains(m.HTML, `href="`+link+`"`) {
				t.Errorf("html is missing the sign-up link: %v", m.HTML)
			}
			if !strings.Contains(m.Text, "Sunday 19 April 2026") {
				t.Errorf("text is missing the expiry date: %v", m.Text)
			}
		})
	}
}

func TestContact(t *testing.T) {

	tt := []struct {
		name  string
		inbox string
		input string
		err   string
	}{
		{name: "happy", inbox: "inbox@example.com", input: `{"address":"al@example.com","emailType":"contact","attributes":{
			"name":{"stringValue":"Al"},"message":{"stringValue":"<b>hi</b>"}}}`},
		{name: "no_message", inbox: "inbox@example.com", input: `{"address":"al@example.com","attributes":{"name":{"stringValue":"Al"}}}`,
			err: "missing [message]"},
		{name: "no_inbox", input: `{}`, err: "no contact inbox"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			snd := &mockSender{}
			set := settings
			set.ContactInbox = tc.inbox
			e := NewEmailer(snd, set, zap.NewNop())

			err := e.Contact(context.Background(), []byte(tc.input))
			if err != nil {
				if tc.err == "" || !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("expected error %q, got: %q", tc.err, err)
				}
				return
			}

			m := snd.sent[0]
			if m.To[0] != "inbox@example.com" || m.ReplyTo != "al@example.com" {
				t.Errorf("unexpected addressing: %+v", m)
			}
			if m.Subject != "Contact form: Al" {
				t.Errorf("unexpected subject: %v", m.Subject)
			}
			if !strings.Contains(m.Text, "<b>hi</b>") {
				t.Errorf("text should carry the message verbatim: %v", m.Text)
			}
			if !strings.Contains(m.HTML, "&lt;b&gt;hi&lt;/b&gt;") {
				t.Errorf("html should escape the message: %v", m.HTML)
			}
		})
	}
}
