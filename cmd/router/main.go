// Function router starts Step Functions and Lambda sessions and hands over to package router.
package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sfn"

	"github.com/lensworks/studio/internal/config"
	"github.com/lensworks/studio/internal/logging"
	"github.com/lensworks/studio/pkg/router"
	service "github.com/aws/aws-sdk-go/service/lambda"
)

var r *router.Router

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	// emailer names are needed even with a state machine, to validate the type
	if err := cfg.Require("CREATE_USER_EMAILER", "CONTACT_EMAILER"); err != nil {
		log.Fatal(err)
	}

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	ac := &aws.Config{Region: aws.String(cfg.Region)}

	r = router.NewRouter(
		sfn.New(sess, ac),
		service.New(sess, ac),
		cfg.StateMachineARN,
		router.Targets{CreateUser: cfg.CreateUserEmailer, Contact: cfg.ContactEmailer},
		logging.Must(cfg.LogLevel, "router"),
	)
}

func main() {
	lambda.Start(r.Handle)
}
