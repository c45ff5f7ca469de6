// Function contactemailer hands the router's input to the Contact emailer.
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/lensworks/studio/internal/config"
	"github.com/lensworks/studio/internal/logging"
	"github.com/lensworks/studio/internal/relay"
	"github.com/lensworks/studio/pkg/emailer"
)

var e *emailer.Emailer

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Require("MAIL_RELAY_URL", "CONTACT_INBOX"); err != nil {
		log.Fatal(err)
	}

	c, err := relay.New(cfg.RelayURL, cfg.RelayUser, cfg.RelayPass)
	if err != nil {
		log.Fatal(err)
	}

	e = emailer.NewEmailer(c, emailer.Settings{
		From:         cfg.MailFrom,
		SiteURL:      cfg.SiteURL,
		ContactInbox: cfg.ContactInbox,
	}, logging.Must(cfg.LogLevel, "contactemailer"))
}

func handler(ctx context.Context, in json.RawMessage) error {
	return e.Contact(ctx, in)
}

func main() {
	lambda.Start(handler)
}
