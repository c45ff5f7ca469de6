// Package registeruser reconciles a user profile and its participants with
// what the user submitted at sign-up or from their profile page.
package registeruser

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lensworks/studio/internal/apperr"
	"github.com/lensworks/studio/internal/model"
	"github.com/lensworks/studio/internal/resolver"
)

const maxWrites = 10

// UserStore reads and writes profiles, participants and sign-up tokens
type UserStore interface {
	GetProfile(ctx context.Context, email string) (*model.UserProfile, error)
	PutProfile(ctx context.Context, p *model.UserProfile) error
	ProfileParticipants(ctx context.Context, email string) ([]model.Participant, error)
	PutParticipant(ctx context.Context, p *model.Participant) error
	DeleteParticipant(ctx context.Context, id string) error
	AddMember(ctx context.Context, tagID string, kind model.MemberKind, memberID string) error
	GetToken(ctx context.Context, uid string) (*model.CreateUserToken, error)
	DeleteToken(ctx context.Context, uid string) error
}

// ParticipantInput is a participant as submitted
type ParticipantInput struct {
	ID            string `json:"id"`
	FirstName     string `json:"firstName" validate:"required,max=100"`
	LastName      string `json:"lastName" validate:"required,max=100"`
	PreferredName string `json:"preferredName" validate:"max=100"`
	MiddleName    string `json:"middleName" validate:"max=100"`
	Email         string `json:"email" validate:"omitempty,email"`
	Contact       bool   `json:"contact"`
}

// Arguments of the RegisterUser mutation
type Arguments struct {
	Email         string             `json:"email" validate:"required,email"`
	FirstName     string             `json:"firstName" validate:"required,max=100"`
	LastName      string             `json:"lastName" validate:"required,max=100"`
	PreferredName string             `json:"preferredName" validate:"max=100"`
	Token         string             `json:"token"`
	Participants  []ParticipantInput `json:"participants" validate:"dive"`
}

// Result reports what was written
type Result struct {
	Profile        *model.UserProfile `json:"profile"`
	ProfileWritten bool               `json:"profileWritten"`
	Created        []string           `json:"created,omitempty"`
	Updated        []string           `json:"updated,omitempty"`
	Deleted        []string           `json:"deleted,omitempty"`
}

// Changed reports whether anything was written
func (r *Result) Changed() bool {
	return r.ProfileWritten || len(r.Created)+len(r.Updated)+len(r.Deleted) > 0
}

// Registrar registers users
type Registrar struct {
	db         UserStore
	log        *zap.Logger
	adminGroup string
	now        func() time.Time
	newID      func() string
}

// NewRegistrar returns a new Registrar
func NewRegistrar(db UserStore, log *zap.Logger, adminGroup string) *Registrar {
	return &Registrar{db: db, log: log, adminGroup: adminGroup, now: time.Now, newID: uuid.NewString}
}

// Handle decodes an AppSync event and registers the user it carries
func (r *Registrar) Handle(ctx context.Context, ev resolver.Event) (string, error) {

	var args Arguments
	err := resolver.Decode(ev, &args)
	if err != nil {
		return "", err
	}
	args.Email = strings.ToLower(args.Email)

	if !ev.Identity.InGroup(r.adminGroup) && ev.Identity.Email() != args.Email {
		return "", apperr.Denied("caller may not register %v", args.Email)
	}

	res, err := r.Register(ctx, args)
	if err != nil {
		return "", err
	}
	return resolver.JSON(res)
}

// Register diffs the submission against the stored profile and participants
// and writes only the differences
func (r *Registrar) Register(ctx context.Context, args Arguments) (*Result, error) {

	grant, err := r.tokenTags(ctx, args.Token, args.Email)
	if err != nil {
		return nil, err
	}

	prev, err := r.db.GetProfile(ctx, args.Email)
	if err != nil && !apperr.Is(err, apperr.NotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	stored, err := r.db.ProfileParticipants(ctx, args.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}

	plan := r.plan(args, stored)
	next := nextProfile(args, prev, plan.ids)
	res := &Result{
		Profile:        next,
		ProfileWritten: prev == nil || !sameProfile(*prev, *next),
		Created:        ids(plan.create),
		Updated:        ids(plan.update),
		Deleted:        plan.remove,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWrites)

	for i := range plan.create {
		p := plan.create[i]
		g.Go(func() error {
			err := r.db.PutParticipant(gctx, &p)
			if err != nil {
				return err
			}
			for _, tag := range grant {
				err = r.db.AddMember(gctx, tag, model.KindParticipant, p.ID)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	for i := range plan.update {
		p := plan.update[i]
		g.Go(func() error { return r.db.PutParticipant(gctx, &p) })
	}
	for _, id := range plan.remove {
		id := id
		g.Go(func() error { return r.db.DeleteParticipant(gctx, id) })
	}
	if res.ProfileWritten {
		g.Go(func() error { return r.db.PutProfile(gctx, next) })
	}

	err = g.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to register %v: %w", args.Email, err)
	}

	if args.Token != "" {
		err = r.db.DeleteToken(ctx, args.Token)
		if err != nil {
			// the token expires through TTL anyway
			r.log.Warn("could not consume token", zap.String("uid", args.Token), zap.Error(err))
		}
	}

	r.log.Info("user registered",
		zap.String("email", args.Email),
		zap.Bool("profile", res.ProfileWritten),
		zap.Strings("created", res.Created),
		zap.Strings("updated", res.Updated),
		zap.Strings("deleted", res.Deleted),
	)
	return res, nil
}

// tokenTags validates a sign-up token and returns the tags it grants
func (r *Registrar) tokenTags(ctx context.Context, uid, email string) ([]string, error) {

	if uid == "" {
		return nil, nil
	}

	tok, err := r.db.GetToken(ctx, uid)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, apperr.Invalid("unknown token")
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if tok.Expired(r.now()) {
		return nil, apperr.Invalid("token expired")
	}
	if !strings.EqualFold(tok.Email, email) {
		return nil, apperr.Denied("token was not issued to %v", email)
	}
	return tok.TagIDs, nil
}

type changes struct {
	create []model.Participant
	update []model.Participant
	remove []string
	ids    []string
}

func (r *Registrar) plan(args Arguments, stored []model.Participant) changes {

	byID := make(map[string]model.Participant, len(stored))
	for _, p := range stored {
		byID[p.ID] = p
	}

	var pl changes
	seen := make(map[string]bool, len(args.Participants))
	for _, in := range args.Participants {
		p := model.Participant{
			ID:            in.ID,
			UserEmail:     args.Email,
			FirstName:     in.FirstName,
			LastName:      in.LastName,
			PreferredName: in.PreferredName,
			MiddleName:    in.MiddleName,
			Email:         strings.ToLower(in.Email),
			ContactEmail:  in.Contact,
		}

		old, ok := byID[p.ID]
		switch {
		case !ok || seen[p.ID]:
			p.ID = r.newID()
			pl.create = append(pl.create, p)
		case !old.SameDetails(p):
			pl.update = append(pl.update, p)
		}
		seen[p.ID] = true
		pl.ids = append(pl.ids, p.ID)
	}

	for _, p := range stored {
		if !seen[p.ID] {
			pl.remove = append(pl.remove, p.ID)
		}
	}
	sort.Strings(pl.ids)
	sort.Strings(pl.remove)
	return pl
}

func nextProfile(args Arguments, prev *model.UserProfile, participants []string) *model.UserProfile {

	next := &model.UserProfile{
		Email:          args.Email,
		FirstName:      args.FirstName,
		LastName:       args.LastName,
		PreferredName:  args.PreferredName,
		ParticipantIDs: participants,
	}
	if prev != nil {
		next.Sitting = prev.Sitting
		next.ActiveParticipantID = prev.ActiveParticipantID
	}
	if !slices.Contains(participants, next.ActiveParticipantID) {
		next.ActiveParticipantID = ""
		if len(participants) > 0 {
			next.ActiveParticipantID = participants[0]
		}
	}
	return next
}

func sameProfile(a, b model.UserProfile) bool {
	pa := slices.Clone(a.ParticipantIDs)
	sort.Strings(pa)
	return a.Email == b.Email &&
		a.FirstName == b.FirstName &&
		a.LastName == b.LastName &&
		a.PreferredName == b.PreferredName &&
		a.Sitting == b.Sitting &&
		a.ActiveParticipantID == b.ActiveParticipantID &&
		slices.Equal(pa, b.ParticipantIDs)
}

func ids(ps []model.Participant) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	sort.Strings(out)
	return out
}
