package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lensworks/studio/internal/model"
)

// GetProfile loads a user profile by email
func (s *Store) GetProfile(ctx context.Context, email string) (*model.UserProfile, error) {

	var p model.UserProfile
	err := s.get(ctx, model.ProfileKey(email), model.MetaSortKey, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PutProfile writes a user profile
func (s *Store) PutProfile(ctx context.Context, p *model.UserProfile) error {

	p.Email = strings.ToLower(p.Email)
	p.ParticipantIDs = unique(p.ParticipantIDs)
	itm, err := item(p, metaKeys(model.ProfileKey(p.Email)))
	if err != nil {
		return err
	}
	err = s.put(ctx, itm)
	if err != nil {
		return fmt.Errorf("failed to write profile %v: %w", p.Email, err)
	}
	return nil
}

// tokenRecord is the stored form of a token. expires keeps the millisecond
// instant mailed to the user; ttl is the table's expiry in seconds.
type tokenRecord struct {
	model.CreateUserToken
	ExpiresMs int64 `dynamodbav:"expires"`
	TTL       int64 `dynamodbav:"ttl"`
}

// PutToken writes a create-user token, expiring through the table TTL
func (s *Store) PutToken(ctx context.Context, t *model.CreateUserToken) error {

	rec := tokenRecord{
		CreateUserToken: *t,
		ExpiresMs:       t.Expires.UnixMilli(),
		TTL:             t.Expires.Unix(),
	}
	rec.TagIDs = unique(t.TagIDs)

	itm, err := item(rec, metaKeys(model.TokenKey(t.UID)))
	if err != nil {
		return err
	}
	err = s.put(ctx, itm)
	if err != nil {
		return fmt.Errorf("failed to write token %v: %w", t.UID, err)
	}
	return nil
}

// GetToken loads a create-user token. TTL deletion lags, so callers still
// check Expired.
func (s *Store) GetToken(ctx context.Context, uid string) (*model.CreateUserToken, error) {

	var rec tokenRecord
	err := s.get(ctx, model.TokenKey(uid), model.MetaSortKey, &rec)
	if err != nil {
		return nil, err
	}
	t := rec.CreateUserToken
	t.Expires = time.UnixMilli(rec.ExpiresMs).UTC()
	return &t, nil
}

// DeleteToken consumes a create-user token
func (s *Store) DeleteToken(ctx context.Context, uid string) error {
	return s.delete(ctx, model.TokenKey(uid), model.MetaSortKey)
}
