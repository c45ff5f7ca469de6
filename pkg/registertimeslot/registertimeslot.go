// Package registertimeslot books and releases timeslots for participants.
//
// A timeslot is held through two fields, participantId and userEmail, which
// are set together on registration and cleared together on release.
package registertimeslot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/apperr"
	"github.com/lensworks/studio/internal/model"
	"github.com/lensworks/studio/internal/resolver"
)

// SlotStore reads timeslots and participants and flips registrations
type SlotStore interface {
	GetTimeslot(ctx context.Context, id string) (*model.Timeslot, error)
	GetParticipant(ctx context.Context, id string) (*model.Participant, error)
	RegisterTimeslot(ctx context.Context, id, participantID, email string) (*model.Timeslot, error)
	UnregisterTimeslot(ctx context.Context, id, participantID string) (*model.Timeslot, error)
}

// Arguments of the RegisterTimeslot mutation
type Arguments struct {
	TimeslotID    string `json:"timeslotId" validate:"required"`
	ParticipantID string `json:"participantId" validate:"required"`
	UserEmail     string `json:"userEmail" validate:"required,email"`
	Unregister    bool   `json:"unregister"`
}

// Registrar handles timeslot registration
type Registrar struct {
	db         SlotStore
	log        *zap.Logger
	adminGroup string
}

// NewRegistrar returns a new Registrar. Members of adminGroup may act for any user.
func NewRegistrar(db SlotStore, log *zap.Logger, adminGroup string) *Registrar {
	return &Registrar{db: db, log: log, adminGroup: adminGroup}
}

// Handle decodes an AppSync event and applies the registration it asks for
func (r *Registrar) Handle(ctx context.Context, ev resolver.Event) (string, error) {

	var args Arguments
	err := resolver.Decode(ev, &args)
	if err != nil {
		return "", err
	}
	args.UserEmail = strings.ToLower(args.UserEmail)

	if !ev.Identity.InGroup(r.adminGroup) && ev.Identity.Email() != args.UserEmail {
		return "", apperr.Denied("caller may not register for %v", args.UserEmail)
	}

	ts, err := r.Register(ctx, args)
	if err != nil {
		return "", err
	}
	return resolver.JSON(ts)
}

// Register validates ownership and eligibility, then registers or releases the slot
func (r *Registrar) Register(ctx context.Context, args Arguments) (*model.Timeslot, error) {

	ts, err := r.db.GetTimeslot(ctx, args.TimeslotID)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeslot: %w", err)
	}

	p, err := r.db.GetParticipant(ctx, args.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}

	if !strings.EqualFold(p.UserEmail, args.UserEmail) {
		return nil, apperr.Denied("participant %v does not belong to %v", p.ID, args.UserEmail)
	}

	if args.Unregister {
		return r.release(ctx, ts, p)
	}
	return r.book(ctx, ts, p, args.UserEmail)
}

func (r *Registrar) release(ctx context.Context, ts *model.Timeslot, p *model.Participant) (*model.Timeslot, error) {

	if ts.ParticipantID != p.ID {
		return nil, apperr.Denied("participant %v is not registered for timeslot %v", p.ID, ts.ID)
	}

	out, err := r.db.UnregisterTimeslot(ctx, ts.ID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to unregister timeslot: %w", err)
	}
	out.TagIDs = ts.TagIDs
	return out, nil
}

func (r *Registrar) book(ctx context.Context, ts *model.Timeslot, p *model.Participant, email string) (*model.Timeslot, error) {

	if ts.ParticipantID == p.ID {
		r.log.Info("timeslot already held", zap.String("timeslot", ts.ID), zap.String("participant", p.ID))
		return ts, nil
	}
	if ts.Registered() {
		return nil, apperr.New(apperr.Conflict, "timeslot %v is already registered", ts.ID)
	}

	tag, ok := sharedTag(ts.TagIDs, p.TagIDs)
	if !ok {
		return nil, apperr.Denied("participant %v is not eligible for timeslot %v", p.ID, ts.ID)
	}

	out, err := r.db.RegisterTimeslot(ctx, ts.ID, p.ID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to register timeslot: %w", err)
	}
	out.TagIDs = ts.TagIDs

	r.log.Info("registration accepted",
		zap.String("timeslot", ts.ID),
		zap.String("participant", p.ID),
		zap.String("tag", tag),
	)
	return out, nil
}

// sharedTag returns a tag present in both lists
func sharedTag(a, b []string) (string, bool) {
	in := make(map[string]struct{}, len(a))
	for _, id := range a {
		in[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := in[id]; ok {
			return id, true
		}
	}
	return "", false
}
