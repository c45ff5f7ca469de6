// Function createuserqueue builds a DynamoDB store and an SQS publisher and hands over to package createuserqueue.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/lensworks/studio/internal/config"
	"github.com/lensworks/studio/internal/logging"
	"github.com/lensworks/studio/internal/mailqueue"
	"github.com/lensworks/studio/internal/store"
	"github.com/lensworks/studio/pkg/createuserqueue"
)

var h *createuserqueue.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Require("TABLE_NAME", "QUEUE_URL"); err != nil {
		log.Fatal(err)
	}
	lg := logging.Must(cfg.LogLevel, "createuserqueue")

	ac, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}
	db := store.New(dynamodb.NewFromConfig(ac), cfg.TableName, cfg.IndexName, lg)

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	pub := mailqueue.NewPublisher(sqs.New(sess, &aws.Config{Region: aws.String(cfg.Region)}), cfg.QueueURL)
	h = createuserqueue.NewHandler(db, pub, lg, cfg.TokenTTL, cfg.AdminGroup)
}

func main() {
	lambda.Start(h.Handle)
}
