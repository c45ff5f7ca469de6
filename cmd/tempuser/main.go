// Function tempuser builds a DynamoDB store and hands over to package tempuser.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/lensworks/studio/internal/config"
	"github.com/lensworks/studio/internal/logging"
	"github.com/lensworks/studio/internal/store"
	"github.com/lensworks/studio/pkg/tempuser"
)

var h *tempuser.Resolver

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Require("TABLE_NAME"); err != nil {
		log.Fatal(err)
	}
	lg := logging.Must(cfg.LogLevel, "tempuser")

	ac, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}
	db := store.New(dynamodb.NewFromConfig(ac), cfg.TableName, cfg.IndexName, lg)
	h = tempuser.NewResolver(db, lg)
}

func main() {
	lambda.Start(h.Handle)
}
