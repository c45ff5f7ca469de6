// Package createuserqueue issues a sign-up token and queues the invitation
// email that carries it.
package createuserqueue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/apperr"
	"github.com/lensworks/studio/internal/mailqueue"
	"github.com/lensworks/studio/internal/model"
	"github.com/lensworks/studio/internal/resolver"
)

// TokenStore saves sign-up tokens
type TokenStore interface {
	PutToken(ctx context.Context, t *model.CreateUserToken) error
}

// Publisher queues emails
type Publisher interface {
	Publish(ctx context.Context, t model.EmailType, address string, attrs map[string]string) (string, error)
}

// Arguments of the AddCreateUserQueue mutation
type Arguments struct {
	Email string   `json:"email" validate:"required,email"`
	Tags  []string `json:"tags" validate:"unique,dive,required"`
}

// Result is returned to the caller
type Result struct {
	UID       string `json:"uid"`
	Expires   int64  `json:"expires"`
	MessageID string `json:"messageId"`
}

// Handler queues create-user invitations
type Handler struct {
	db         TokenStore
	pub        Publisher
	log        *zap.Logger
	ttl        time.Duration
	adminGroup string
	now        func() time.Time
	newID      func() string
}

// NewHandler returns a new Handler issuing tokens valid for ttl
func NewHandler(db TokenStore, pub Publisher, log *zap.Logger, ttl time.Duration, adminGroup string) *Handler {
	return &Handler{db: db, pub: pub, log: log, ttl: ttl, adminGroup: adminGroup, now: time.Now, newID: uuid.NewString}
}

// Handle decodes an AppSync event and queues the invitation. Only admins invite.
func (h *Handler) Handle(ctx context.Context, ev resolver.Event) (string, error) {

	if !ev.Identity.InGroup(h.adminGroup) {
		return "", apperr.Denied("only %v may invite users", h.adminGroup)
	}

	var args Arguments
	err := resolver.Decode(ev, &args)
	if err != nil {
		return "", err
	}

	res, err := h.Queue(ctx, args)
	if err != nil {
		return "", err
	}
	return resolver.JSON(res)
}

// Queue stores a new token and publishes the createUser email
func (h *Handler) Queue(ctx context.Context, args Arguments) (*Result, error) {

	tok := &model.CreateUserToken{
		UID:     h.newID(),
		Email:   strings.ToLower(args.Email),
		TagIDs:  args.Tags,
		Expires: h.now().Add(h.ttl).UTC(),
	}

	// the token must exist before the link can be mailed
	err := h.db.PutToken(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	expires := tok.Expires.UnixMilli()
	id, err := h.pub.Publish(ctx, model.EmailCreateUser, tok.Email, map[string]string{
		mailqueue.AttrUID:     tok.UID,
		mailqueue.AttrExpires: strconv.FormatInt(expires, 10),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to queue invitation: %w", err)
	}

	h.log.Info("invitation queued",
		zap.String("uid", tok.UID),
		zap.String("message", id),
		zap.Int("tags", len(tok.TagIDs)),
	)
	return &Result{UID: tok.UID, Expires: expires, MessageID: id}, nil
}
