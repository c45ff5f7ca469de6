// Package updatetag persists a tag edited in the tag builder, writing only
// what changed between the stored tag and the submitted draft.
package updatetag

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lensworks/studio/internal/apperr"
	"github.com/lensworks/studio/internal/model"
	"github.com/lensworks/studio/internal/resolver"
	"github.com/lensworks/studio/pkg/tagdiff"
)

// maxWrites bounds concurrent membership writes
const maxWrites = 10

// TagStore reads and writes tags and their relations
type TagStore interface {
	GetTag(ctx context.Context, id string) (*model.UserTag, error)
	PutTag(ctx context.Context, tag *model.UserTag) error
	AddMember(ctx context.Context, tagID string, kind model.MemberKind, memberID string) error
	RemoveMember(ctx context.Context, tagID string, kind model.MemberKind, memberID string) error
}

// Draft is a tag as submitted by the builder
type Draft struct {
	ID             string   `json:"id"`
	Name           string   `json:"name" validate:"required,max=100"`
	Color          string   `json:"color" validate:"omitempty,hexcolor"`
	Notify         bool     `json:"notify"`
	CollectionIDs  []string `json:"collectionIds" validate:"dive,required"`
	TimeslotIDs    []string `json:"timeslotIds" validate:"dive,required"`
	ParticipantIDs []string `json:"participantIds" validate:"dive,required"`
}

// Arguments of the update-tag mutation
type Arguments struct {
	Tag Draft `json:"tag"`
}

// Result reports what was persisted
type Result struct {
	Updated bool           `json:"updated"`
	Tag     *model.UserTag `json:"tag,omitempty"`
	Diff    *tagdiff.Diff  `json:"diff,omitempty"`
}

// Updater saves tags
type Updater struct {
	db         TagStore
	log        *zap.Logger
	adminGroup string
	now        func() time.Time
}

// NewUpdater returns a new Updater. Only members of adminGroup may edit tags.
func NewUpdater(db TagStore, log *zap.Logger, adminGroup string) *Updater {
	return &Updater{db: db, log: log, adminGroup: adminGroup, now: time.Now}
}

// Handle decodes an AppSync event and saves the tag it carries
func (u *Updater) Handle(ctx context.Context, ev resolver.Event) (string, error) {

	// tag membership decides timeslot eligibility
	if !ev.Identity.InGroup(u.adminGroup) {
		return "", apperr.Denied("only %v may edit tags", u.adminGroup)
	}

	var args Arguments
	err := resolver.Decode(ev, &args)
	if err != nil {
		return "", err
	}

	res, err := u.Save(ctx, args.Tag)
	if err != nil {
		return "", err
	}
	return resolver.JSON(res)
}

// Save creates the tag when it has no id, otherwise applies the difference
// against the stored version. An unchanged tag is not written.
func (u *Updater) Save(ctx context.Context, d Draft) (*Result, error) {

	next := model.UserTag{
		ID:             d.ID,
		Name:           d.Name,
		Color:          d.Color,
		Notify:         d.Notify,
		CollectionIDs:  d.CollectionIDs,
		TimeslotIDs:    d.TimeslotIDs,
		ParticipantIDs: d.ParticipantIDs,
	}

	if next.ID == "" {
		return u.create(ctx, next)
	}

	prev, err := u.db.GetTag(ctx, next.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tag %v: %w", next.ID, err)
	}

	if !tagdiff.Evaluate(*prev, next) {
		u.log.Info("tag unchanged", zap.String("tag", next.ID))
		return &Result{Updated: false}, nil
	}

	diff := tagdiff.Compute(*prev, next)
	next.CreatedAt = prev.CreatedAt
	next.UpdatedAt = u.now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWrites)

	if diff.FieldsChanged {
		g.Go(func() error { return u.db.PutTag(gctx, &next) })
	}
	for kind, delta := range diff.Relations {
		kind := kind
		for _, id := range delta.Added {
			id := id
			g.Go(func() error { return u.db.AddMember(gctx, next.ID, kind, id) })
		}
		for _, id := range delta.Removed {
			id := id
			g.Go(func() error { return u.db.RemoveMember(gctx, next.ID, kind, id) })
		}
	}

	err = g.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to update tag %v: %w", next.ID, err)
	}

	u.log.Info("tag updated",
		zap.String("tag", next.ID),
		zap.Bool("fields", diff.FieldsChanged),
		zap.Any("relations", diff.Relations),
	)
	return &Result{Updated: true, Tag: &next, Diff: &diff}, nil
}

func (u *Updater) create(ctx context.Context, tag model.UserTag) (*Result, error) {

	tag.ID = uuid.NewString()
	tag.CreatedAt = u.now().UTC()
	tag.UpdatedAt = tag.CreatedAt

	// memberships reference the tag, so it goes first
	err := u.db.PutTag(ctx, &tag)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	diff := tagdiff.Compute(model.UserTag{Name: tag.Name, Color: tag.Color, Notify: tag.Notify}, tag)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWrites)
	for kind, delta := range diff.Relations {
		kind := kind
		for _, id := range delta.Added {
			id := id
			g.Go(func() error { return u.db.AddMember(gctx, tag.ID, kind, id) })
		}
	}
	err = g.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to add members to tag %v: %w", tag.ID, err)
	}

	u.log.Info("tag created", zap.String("tag", tag.ID), zap.String("name", tag.Name))
	return &Result{Updated: true, Tag: &tag, Diff: &diff}, nil
}
