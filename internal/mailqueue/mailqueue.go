// Package mailqueue publishes email requests to the queue read by the email router.
//
// A request is carried in SQS message attributes: email, emailType and any
// attributes the chosen emailer needs (uid and expires for createUser, name
// and message for contact).
package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/lensworks/studio/internal/model"
)

// Attribute names
const (
	AttrEmail     = "email"
	AttrEmailType = "emailType"
	AttrUID       = "uid"
	AttrExpires   = "expires"
	AttrName      = "name"
	AttrMessage   = "message"
)

// Messenger is an abstraction for a SQS client
type Messenger interface {
	SendMessageWithContext(aws.Context, *sqs.SendMessageInput, ...request.Option) (*sqs.SendMessageOutput, error)
}

// Publisher writes email requests to a queue
type Publisher struct {
	sqs Messenger
	url string
}

// NewPublisher returns a publisher writing to the queue at url
func NewPublisher(m Messenger, url string) *Publisher {
	return &Publisher{sqs: m, url: url}
}

// Publish queues one email of type t to address, returning the message id
func (p *Publisher) Publish(ctx context.Context, t model.EmailType, address string, attrs map[string]string) (string, error) {

	if address == "" {
		return "", fmt.Errorf("no address to publish")
	}

	all := map[string]string{AttrEmail: address, AttrEmailType: string(t)}
	for k, v := range attrs {
		all[k] = v
	}

	mas := make(map[string]*sqs.MessageAttributeValue, len(all))
	for k, v := range all {
		if v == "" {
			continue
		}
		mas[k] = &sqs.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}

	// the body is informational, the router reads attributes
	keys := make([]string, 0, len(mas))
	for k := range mas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	body, err := json.Marshal(struct {
		EmailType  model.EmailType `json:"emailType"`
		Attributes []string        `json:"attributes"`
	}{EmailType: t, Attributes: keys})
	if err != nil {
		return "", fmt.Errorf("failed to marshal SQS payload: %v", err)
	}

	out, err := p.sqs.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(p.url),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: mas,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish %v email: %v", t, err)
	}
	return aws.StringValue(out.MessageId), nil
}
