// Package emailer renders the emails requested through the queue and hands
// them to the mail relay.
package emailer

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"text/template"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/relay"
)

// Sender delivers rendered messages
type Sender interface {
	Send(ctx context.Context, m relay.Message) error
}

// Settings are the addresses and links emails are built from
type Settings struct {
	From         string
	SiteURL      string
	ContactInbox string
}

// Emailer renders and sends one kind of email
type Emailer struct {
	snd Sender
	set Settings
	log *zap.Logger
}

// NewEmailer returns a new Emailer
func NewEmailer(s Sender, set Settings, log *zap.Logger) *Emailer {
	return &Emailer{snd: s, set: set, log: log}
}

// attr reads a forwarded queue attribute in either SQS event or SDK casing
func attr(in []byte, name string) string {
	for _, p := range []string{"attributes." + name + ".stringValue", "attributes." + name + ".StringValue"} {
		if v := gjson.GetBytes(in, p); v.Exists() {
			return v.String()
		}
	}
	return ""
}

func required(in []byte, names ...string) (map[string]string, error) {

	if !gjson.ValidBytes(in) {
		return nil, fmt.Errorf("emailer input is not valid JSON")
	}

	out := map[string]string{"address": gjson.GetBytes(in, "address").String()}
	for _, n := range names {
		out[n] = attr(in, n)
	}

	var missing []string
	for _, n := range append([]string{"address"}, names...) {
		if out[n] == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("emailer input is missing %v", missing)
	}
	return out, nil
}

type rendered struct {
	subject string
	text    string
	html    string
}

func render(subject string, text *template.Template, html *htmltemplate.Template, data any) (*rendered, error) {

	var tb, hb bytes.Buffer
	err := text.Execute(&tb, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render %v text: %v", text.Name(), err)
	}
	err = html.Execute(&hb, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render %v html: %v", html.Name(), err)
	}
	return &rendered{subject: subject, text: tb.String(), html: hb.String()}, nil
}

// CreateUser sends a sign-up invitation
func (e *Emailer) CreateUser(ctx context.Context, in []byte) error {

	f, err := required(in, "uid", "expires")
	if err != nil {
		return err
	}

	ms, err := strconv.ParseInt(f["expires"], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expires attribute %q", f["expires"])
	}

	data := struct {
		Link    string
		Expires string
	}{
		Link:    e.set.SiteURL + "/register?token=" + f["uid"],
		Expires: time.UnixMilli(ms).UTC().Format("Monday 2 January 2006, 15:04 MST"),
	}

	r, err := render("Finish setting up your account", inviteText, inviteHTML, data)
	if err != nil {
		return err
	}

	err = e.snd.Send(ctx, relay.Message{
		From:    e.set.From,
		To:      []string{f["address"]},
		Subject: r.subject,
		Text:    r.text,
		HTML:    r.html,
	})
	if err != nil {
		return fmt.Errorf("failed to send invitation: %v", err)
	}

	e.log.Info("invitation sent", zap.String("uid", f["uid"]))
	return nil
}

// Contact forwards a contact form message to the studio inbox
func (e *Emailer) Contact(ctx context.Context, in []byte) error {

	if e.set.ContactInbox == "" {
		return fmt.Errorf("no contact inbox configured")
	}

	f, err := required(in, "name", "message")
	if err != nil {
		return err
	}

	data := struct {
		Name    string
		Address string
		Message string
	}{f["name"], f["address"], f["message"]}

	r, err := render("Contact form: "+f["name"], contactText, contactHTML, data)
	if err != nil {
		return err
	}

	err = e.snd.Send(ctx, relay.Message{
		From:    e.set.From,
		To:      []string{e.set.ContactInbox},
		ReplyTo: f["address"],
		Subject: r.subject,
		Text:    r.text,
		HTML:    r.html,
	})
	if err != nil {
		return fmt.Errorf("failed to send contact message: %v", err)
	}

	e.log.Info("contact message forwarded")
	return nil
}
