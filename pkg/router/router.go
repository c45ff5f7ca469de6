// Package router fans queued email requests out to the emailer that
// handles their type.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/sfn"
	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/mailqueue"
	"github.com/lensworks/studio/internal/model"
)

// Starter starts state machine executions
type Starter interface {
	StartExecutionWithContext(aws.Context, *sfn.StartExecutionInput, ...request.Option) (*sfn.StartExecutionOutput, error)
}

// Invoker invokes another lambda
type Invoker interface {
	InvokeWithContext(aws.Context, *lambda.InvokeInput, ...request.Option) (*lambda.InvokeOutput, error)
}

// Input is what an emailer receives
type Input struct {
	Address    string                                `json:"address"`
	Attributes map[string]events.SQSMessageAttribute `json:"attributes"`
	EmailType  model.EmailType                       `json:"emailType"`
}

// Targets names the emailer function per email type
type Targets struct {
	CreateUser string
	Contact    string
}

// Choose returns the emailer for an email type
func (t Targets) Choose(et model.EmailType) (string, error) {

	var fn string
	switch et {
	case model.EmailCreateUser:
		fn = t.CreateUser
	case model.EmailContact:
		fn = t.Contact
	default:
		return "", fmt.Errorf("unknown email type %q", et)
	}
	if fn == "" {
		return "", fmt.Errorf("no emailer configured for %v", et)
	}
	return fn, nil
}

// Router dispatches queue records
type Router struct {
	sfn     Starter
	inv     Invoker
	machine string
	targets Targets
	log     *zap.Logger
}

// NewRouter returns a Router. A non-empty machine ARN routes through Step
// Functions, otherwise the emailer is invoked directly.
func NewRouter(s Starter, i Invoker, machine string, t Targets, log *zap.Logger) *Router {
	return &Router{sfn: s, inv: i, machine: machine, targets: t, log: log}
}

// Handle routes every record and reports the ones that failed
func (r *Router) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {

	var res events.SQSEventResponse
	for _, msg := range ev.Records {
		err := r.Route(ctx, msg)
		if err != nil {
			r.log.Error("could not route message", zap.String("message", msg.MessageId), zap.Error(err))
			res.BatchItemFailures = append(res.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: msg.MessageId})
		}
	}
	return res, nil
}

// Route dispatches a single record
func (r *Router) Route(ctx context.Context, msg events.SQSMessage) error {

	in, err := NewInput(msg)
	if err != nil {
		return err
	}

	fn, err := r.targets.Choose(in.EmailType)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal emailer input: %v", err)
	}

	if r.machine != "" {
		return r.start(ctx, msg.MessageId, payload)
	}
	return r.invoke(ctx, fn, payload)
}

// NewInput reads the address and email type from a record's attributes
func NewInput(msg events.SQSMessage) (*Input, error) {

	address := stringAttr(msg, mailqueue.AttrEmail)
	if address == "" {
		return nil, fmt.Errorf("message %v has no email attribute", msg.MessageId)
	}

	return &Input{
		Address:    address,
		Attributes: msg.MessageAttributes,
		EmailType:  model.EmailType(stringAttr(msg, mailqueue.AttrEmailType)),
	}, nil
}

func stringAttr(msg events.SQSMessage, name string) string {
	a, ok := msg.MessageAttributes[name]
	if !ok || a.StringValue == nil {
		return ""
	}
	return *a.StringValue
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// executionName derives a stable name from the message id, so redelivery
// cannot send a second email
func executionName(id string) string {
	n := unsafeName.ReplaceAllString(id, "-")
	if len(n) > 80 {
		n = n[:80]
	}
	return n
}

func (r *Router) start(ctx context.Context, id string, payload []byte) error {

	_, err := r.sfn.StartExecutionWithContext(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(r.machine),
		Name:            aws.String(executionName(id)),
		Input:           aws.String(string(payload)),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == sfn.ErrCodeExecutionAlreadyExists {
			r.log.Info("execution already started", zap.String("message", id))
			return nil
		}
		return fmt.Errorf("failed to start execution: %v", err)
	}

	r.log.Info("execution started", zap.String("message", id))
	return nil
}

func (r *Router) invoke(ctx context.Context, fn string, payload []byte) error {

	_, err := r.inv.InvokeWithContext(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(fn),
		InvocationType: aws.String(lambda.InvocationTypeEvent),
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %v: %v", fn, err)
	}

	r.log.Info("emailer invoked", zap.String("function", fn))
	return nil
}
