// Package tempuser resolves a sign-up token for the registration page.
package tempuser

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/apperr"
	"github.com/lensworks/studio/internal/model"
	"github.com/lensworks/studio/internal/resolver"
)

// TokenStore reads sign-up tokens
type TokenStore interface {
	GetToken(ctx context.Context, uid string) (*model.CreateUserToken, error)
}

// Arguments of the GetTemporaryUser query
type Arguments struct {
	UID string `json:"uid" validate:"required,uuid"`
}

// Result is what the registration page may know about a token
type Result struct {
	Email   string   `json:"email"`
	Tags    []string `json:"tags"`
	Expires int64    `json:"expires"`
}

// Resolver looks up tokens
type Resolver struct {
	db  TokenStore
	log *zap.Logger
	now func() time.Time
}

// NewResolver returns a new Resolver
func NewResolver(db TokenStore, log *zap.Logger) *Resolver {
	return &Resolver{db: db, log: log, now: time.Now}
}

// Handle decodes an AppSync event and resolves the token it names
func (r *Resolver) Handle(ctx context.Context, ev resolver.Event) (string, error) {

	var args Arguments
	err := resolver.Decode(ev, &args)
	if err != nil {
		return "", err
	}

	res, err := r.Lookup(ctx, args.UID)
	if err != nil {
		return "", err
	}
	return resolver.JSON(res)
}

// Lookup returns the token's grant when it is still valid
func (r *Resolver) Lookup(ctx context.Context, uid string) (*Result, error) {

	tok, err := r.db.GetToken(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if tok.Expired(r.now()) {
		r.log.Info("expired token presented", zap.String("uid", uid))
		return nil, apperr.Invalid("token expired")
	}

	tags := tok.TagIDs
	if tags == nil {
		tags = []string{}
	}
	return &Result{Email: tok.Email, Tags: tags, Expires: tok.Expires.UnixMilli()}, nil
}
