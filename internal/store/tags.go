package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/model"
)

type membership struct {
	TagID    string           `dynamodbav:"tagId"`
	Kind     model.MemberKind `dynamodbav:"kind"`
	MemberID string           `dynamodbav:"memberId"`
}

// GetTag loads a tag and every relation it holds
func (s *Store) GetTag(ctx context.Context, id string) (*model.UserTag, error) {

	var tag model.UserTag
	err := s.get(ctx, model.TagKey(id), model.MetaSortKey, &tag)
	if err != nil {
		return nil, err
	}

	items, err := s.query(ctx, "", expression.Key(attrPK).Equal(expression.Value(model.TagKey(id))))
	if err != nil {
		return nil, fmt.Errorf("failed to load members of tag %v: %w", id, err)
	}

	members := make(map[model.MemberKind][]string)
	for _, itm := range items {
		kind, mid := model.SplitKey(stringAttr(itm, attrSK))
		if kind == "" {
			// META
			continue
		}
		k := model.MemberKind(kind)
		members[k] = append(members[k], mid)
	}
	for _, k := range model.Kinds {
		ids := members[k]
		sort.Strings(ids)
		tag.SetMembers(k, ids)
	}

	return &tag, nil
}

// PutTag writes tag metadata; relations are written with AddMember
func (s *Store) PutTag(ctx context.Context, tag *model.UserTag) error {

	itm, err := item(tag, metaKeys(model.TagKey(tag.ID)))
	if err != nil {
		return err
	}
	err = s.put(ctx, itm)
	if err != nil {
		return fmt.Errorf("failed to write tag %v: %w", tag.ID, err)
	}
	s.log.Debug("tag written", zap.String("tag", tag.ID))
	return nil
}

// AddMember puts memberID under tagID
func (s *Store) AddMember(ctx context.Context, tagID string, kind model.MemberKind, memberID string) error {

	m := membership{TagID: tagID, Kind: kind, MemberID: memberID}
	itm, err := item(m, map[string]string{
		attrPK:     model.TagKey(tagID),
		attrSK:     model.MemberKey(kind, memberID),
		attrGSI1PK: model.MemberKey(kind, memberID),
		attrGSI1SK: model.TagKey(tagID),
	})
	if err != nil {
		return err
	}

	err = s.put(ctx, itm)
	if err != nil {
		return fmt.Errorf("failed to add %v to tag %v: %w", model.MemberKey(kind, memberID), tagID, err)
	}
	s.log.Debug("member added", zap.String("tag", tagID), zap.String("member", model.MemberKey(kind, memberID)))
	return nil
}

// RemoveMember drops memberID from tagID
func (s *Store) RemoveMember(ctx context.Context, tagID string, kind model.MemberKind, memberID string) error {

	err := s.delete(ctx, model.TagKey(tagID), model.MemberKey(kind, memberID))
	if err != nil {
		return fmt.Errorf("failed to remove member from tag %v: %w", tagID, err)
	}
	s.log.Debug("member removed", zap.String("tag", tagID), zap.String("member", model.MemberKey(kind, memberID)))
	return nil
}

// MemberTags returns the sorted ids of the tags holding a member
func (s *Store) MemberTags(ctx context.Context, kind model.MemberKind, memberID string) ([]string, error) {

	items, err := s.query(ctx, s.index, expression.Key(attrGSI1PK).Equal(expression.Value(model.MemberKey(kind, memberID))))
	if err != nil {
		return nil, fmt.Errorf("failed to load tags of %v: %w", model.MemberKey(kind, memberID), err)
	}

	tags := make([]string, 0, len(items))
	for _, itm := range items {
		_, id := model.SplitKey(stringAttr(itm, attrGSI1SK))
		tags = append(tags, id)
	}
	sort.Strings(tags)
	return tags, nil
}
