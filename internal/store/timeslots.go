package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/apperr"
	"github.com/lensworks/studio/internal/model"
)

const (
	attrParticipantID = "participantId"
	attrUserEmail     = "userEmail"
)

// GetTimeslot loads a timeslot with the tags it belongs to
func (s *Store) GetTimeslot(ctx context.Context, id string) (*model.Timeslot, error) {

	var ts model.Timeslot
	err := s.get(ctx, model.TimeslotKey(id), model.MetaSortKey, &ts)
	if err != nil {
		return nil, err
	}

	ts.TagIDs, err = s.MemberTags(ctx, model.KindTimeslot, id)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// RegisterTimeslot points a free timeslot at a participant and its user.
// A slot taken in the meantime fails with a conflict.
func (s *Store) RegisterTimeslot(ctx context.Context, id, participantID, email string) (*model.Timeslot, error) {

	free := expression.Or(
		expression.AttributeNotExists(expression.Name(attrParticipantID)),
		expression.Name(attrParticipantID).Equal(expression.Value("")),
	)
	cond := expression.And(expression.AttributeExists(expression.Name(attrPK)), free)
	upd := expression.Set(expression.Name(attrParticipantID), expression.Value(participantID)).
		Set(expression.Name(attrUserEmail), expression.Value(email)).
		Set(expression.Name(attrGSI1PK), expression.Value(model.HolderKey(participantID))).
		Set(expression.Name(attrGSI1SK), expression.Value(model.TimeslotKey(id)))

	ts, err := s.updateTimeslot(ctx, id, upd, cond)
	if err != nil {
		if conditionFailed(err) {
			return nil, apperr.Wrap(apperr.Conflict, err, "timeslot %v is no longer available", id)
		}
		return nil, err
	}

	s.log.Info("timeslot registered", zap.String("timeslot", id), zap.String("participant", participantID))
	return ts, nil
}

// UnregisterTimeslot clears a timeslot held by participantID
func (s *Store) UnregisterTimeslot(ctx context.Context, id, participantID string) (*model.Timeslot, error) {

	cond := expression.Name(attrParticipantID).Equal(expression.Value(participantID))
	upd := expression.Remove(expression.Name(attrParticipantID)).
		Remove(expression.Name(attrUserEmail)).
		Remove(expression.Name(attrGSI1PK)).
		Remove(expression.Name(attrGSI1SK))

	ts, err := s.updateTimeslot(ctx, id, upd, cond)
	if err != nil {
		if conditionFailed(err) {
			return nil, apperr.Wrap(apperr.Conflict, err, "timeslot %v is not held by %v", id, participantID)
		}
		return nil, err
	}

	s.log.Info("timeslot unregistered", zap.String("timeslot", id), zap.String("participant", participantID))
	return ts, nil
}

// HeldTimeslots returns the sorted ids of the timeslots a participant holds
func (s *Store) HeldTimeslots(ctx context.Context, participantID string) ([]string, error) {

	items, err := s.query(ctx, s.index, expression.Key(attrGSI1PK).Equal(expression.Value(model.HolderKey(participantID))))
	if err != nil {
		return nil, fmt.Errorf("failed to load timeslots of %v: %w", participantID, err)
	}

	ids := make([]string, 0, len(items))
	for _, itm := range items {
		_, id := model.SplitKey(stringAttr(itm, attrGSI1SK))
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) updateTimeslot(ctx context.Context, id string, upd expression.UpdateBuilder, cond expression.ConditionBuilder) (*model.Timeslot, error) {

	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	out, err := s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key(model.TimeslotKey(id), model.MetaSortKey),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update timeslot %v: %w", id, err)
	}

	var ts model.Timeslot
	err = attributevalue.UnmarshalMap(out.Attributes, &ts)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal timeslot %v: %w", id, err)
	}
	return &ts, nil
}
