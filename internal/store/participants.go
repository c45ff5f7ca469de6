package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/apperr"
	"github.com/lensworks/studio/internal/model"
)

// GetParticipant loads a participant with the tags it belongs to
func (s *Store) GetParticipant(ctx context.Context, id string) (*model.Participant, error) {

	var p model.Participant
	err := s.get(ctx, model.ParticipantKey(id), model.MetaSortKey, &p)
	if err != nil {
		return nil, err
	}

	p.TagIDs, err = s.MemberTags(ctx, model.KindParticipant, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProfileParticipants lists the participants of a user, ordered by id
func (s *Store) ProfileParticipants(ctx context.Context, email string) ([]model.Participant, error) {

	items, err := s.query(ctx, s.index, expression.Key(attrGSI1PK).Equal(expression.Value(model.ProfileKey(email))))
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of %v: %w", email, err)
	}

	var ps []model.Participant
	err = attributevalue.UnmarshalListOfMaps(items, &ps)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	return ps, nil
}

// PutParticipant writes a participant record; tag memberships are written
// with AddMember
func (s *Store) PutParticipant(ctx context.Context, p *model.Participant) error {

	keys := metaKeys(model.ParticipantKey(p.ID))
	keys[attrGSI1PK] = model.ProfileKey(p.UserEmail)
	keys[attrGSI1SK] = model.ParticipantKey(p.ID)

	itm, err := item(p, keys)
	if err != nil {
		return err
	}
	err = s.put(ctx, itm)
	if err != nil {
		return fmt.Errorf("failed to write participant %v: %w", p.ID, err)
	}
	s.log.Debug("participant written", zap.String("participant", p.ID))
	return nil
}

// DeleteParticipant releases the timeslots a participant holds, then
// removes its tag memberships and the participant
func (s *Store) DeleteParticipant(ctx context.Context, id string) error {

	slots, err := s.HeldTimeslots(ctx, id)
	if err != nil {
		return err
	}
	for _, ts := range slots {
		_, err = s.UnregisterTimeslot(ctx, ts, id)
		// a conflict means the slot was already released
		if err != nil && !apperr.Is(err, apperr.Conflict) {
			return err
		}
	}

	tags, err := s.MemberTags(ctx, model.KindParticipant, id)
	if err != nil {
		return err
	}
	for _, t := range tags {
		err = s.RemoveMember(ctx, t, model.KindParticipant, id)
		if err != nil {
			return err
		}
	}

	err = s.delete(ctx, model.ParticipantKey(id), model.MetaSortKey)
	if err != nil {
		return fmt.Errorf("failed to delete participant %v: %w", id, err)
	}
	s.log.Debug("participant deleted",
		zap.String("participant", id),
		zap.Int("tags", len(tags)),
		zap.Strings("released", slots),
	)
	return nil
}
