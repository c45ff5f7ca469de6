// Package contact queues messages sent from the public contact form.
package contact

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/mailqueue"
	"github.com/lensworks/studio/internal/model"
	"github.com/lensworks/studio/internal/resolver"
)

// Publisher queues emails
type Publisher interface {
	Publish(ctx context.Context, t model.EmailType, address string, attrs map[string]string) (string, error)
}

// Arguments of the SendContactForm mutation
type Arguments struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Message string `json:"message" validate:"required,notblank,max=2000"`
}

// Handler accepts contact form submissions
type Handler struct {
	pub Publisher
	log *zap.Logger
}

// NewHandler returns a new Handler
func NewHandler(pub Publisher, log *zap.Logger) *Handler {
	return &Handler{pub: pub, log: log}
}

// Handle decodes an AppSync event and queues a contact email
func (h *Handler) Handle(ctx context.Context, ev resolver.Event) (string, error) {

	var args Arguments
	err := resolver.Decode(ev, &args)
	if err != nil {
		return "", err
	}

	id, err := h.pub.Publish(ctx, model.EmailContact, strings.ToLower(args.Email), map[string]string{
		mailqueue.AttrName:    strings.TrimSpace(args.Name),
		mailqueue.AttrMessage: strings.TrimSpace(args.Message),
	})
	if err != nil {
		return "", fmt.Errorf("failed to queue contact message: %w", err)
	}

	h.log.Info("contact message queued", zap.String("message", id))
	return resolver.JSON(struct {
		MessageID string `json:"messageId"`
	}{id})
}
