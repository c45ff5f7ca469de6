// Function contact builds an SQS publisher and hands over to package contact.
package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/lensworks/studio/internal/config"
	"github.com/lensworks/studio/internal/logging"
	"github.com/lensworks/studio/internal/mailqueue"
	"github.com/lensworks/studio/pkg/contact"
)

var h *contact.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Require("QUEUE_URL"); err != nil {
		log.Fatal(err)
	}

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	svc := sqs.New(sess, &aws.Config{Region: aws.String(cfg.Region)})

	h = contact.NewHandler(mailqueue.NewPublisher(svc, cfg.QueueURL), logging.Must(cfg.LogLevel, "contact"))
}

func main() {
	lambda.Start(h.Handle)
}
