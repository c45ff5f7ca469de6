// Package store persists studio records in a single DynamoDB table.
//
// Every record lives under PK/SK. Tag memberships are written under the
// tag's partition and projected into GSI1 keyed by the member, so the tags of
// a timeslot or participant come from one index query.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/apperr"
	"github.com/lensworks/studio/internal/model"
)

// Key attribute names
const (
	attrPK     = "PK"
	attrSK     = "SK"
	attrGSI1PK = "GSI1PK"
	attrGSI1SK = "GSI1SK"
)

// DynamoAPI is the part of the DynamoDB client the store uses
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store is a DynamoDB backed record store
type Store struct {
	ddb   DynamoAPI
	table string
	index string
	log   *zap.Logger
}

// New returns a store over table, using index for member lookups
func New(d DynamoAPI, table, index string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{ddb: d, table: table, index: index, log: log}
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

// unique drops repeated values, keeping first occurrences. DynamoDB
// rejects string sets with duplicate members.
func unique(vs []string) []string {
	if len(vs) < 2 {
		return vs
	}
	seen := make(map[string]bool, len(vs))
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// item marshals a record and adds its keys
func item(v interface{}, keys map[string]string) (map[string]types.AttributeValue, error) {

	itm, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal db record: %w", err)
	}
	for k, val := range keys {
		itm[k] = &types.AttributeValueMemberS{Value: val}
	}
	return itm, nil
}

// get reads one record into out, returning a not found error for a miss
func (s *Store) get(ctx context.Context, pk, sk string, out interface{}) error {

	resp, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(pk, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to get item %v: %w", pk, err)
	}
	if resp.Item == nil {
		return apperr.Missing("%v not found", pk)
	}

	err = attributevalue.UnmarshalMap(resp.Item, out)
	if err != nil {
		return fmt.Errorf("failed to unmarshal item %v: %w", pk, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, itm map[string]types.AttributeValue) error {

	_, err := s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      itm,
	})
	if err != nil {
		return fmt.Errorf("failed to put to db: %w", err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, pk, sk string) error {

	_, err := s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key(pk, sk),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %v %v: %w", pk, sk, err)
	}
	return nil
}

// query pages through every item matching a key condition
func (s *Store) query(ctx context.Context, index string, cond expression.KeyConditionBuilder) ([]map[string]types.AttributeValue, error) {

	expr, err := expression.NewBuilder().WithKeyCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}

	var items []map[string]types.AttributeValue
	pages := dynamodb.NewQueryPaginator(s.ddb, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query db: %w", err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// conditionFailed reports whether err is a failed condition expression
func conditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func stringAttr(itm map[string]types.AttributeValue, name string) string {
	if v, ok := itm[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func metaKeys(pk string) map[string]string {
	return map[string]string{attrPK: pk, attrSK: model.MetaSortKey}
}
