package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/moneybadgers/walkthrough-backend/internal/catalog"
	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/session"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

// SessionService is the handler-facing surface of the basket lifecycle.
type SessionService interface {
	Create(ownerName string) (*types.Session, error)
	Current() (*types.Session, error)
	Reset() (*types.Session, error)
	AddItem(sessionID uuid.UUID, itemID string) (types.Item, error)
	AddItemByName(name string) (types.Item, error)
	ClassifyAndAdd(ctx context.Context, img []byte) (*types.ClassificationResult, error)
}

type sessionService struct {
	log        *logger.Logger
	registry   *session.Registry
	acc        *session.Accumulator
	catalog    *catalog.Catalog
	classifier ClassificationService
}

func NewSessionService(
	log *logger.Logger,
	registry *session.Registry,
	acc *session.Accumulator,
	cat *catalog.Catalog,
	classifier ClassificationService,
) (SessionService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if registry == nil || acc == nil || cat == nil {
		return nil, fmt.Errorf("registry, accumulator and catalog required")
	}
	return &sessionService{
		log:        log.With("service", "SessionService"),
		registry:   registry,
		acc:        acc,
		catalog:    cat,
		classifier: classifier,
	}, nil
}

func (s *sessionService) Create(ownerName string) (*types.Session, error) {
	id, err := s.registry.CreateSession(ownerName)
	if err != nil {
		return nil, err
	}
	cur, err := s.registry.CurrentSession()
	if err != nil {
		return nil, err
	}
	if cur.ID != id {
		// Lost a race with another create; the caller's session is gone.
		return nil, types.ErrSessionNotFound
	}
	return cur, nil
}

func (s *sessionService) Current() (*types.Session, error) {
	return s.registry.CurrentSession()
}

func (s *sessionService) Reset() (*types.Session, error) {
	s.registry.ResetSession()
	return s.registry.CurrentSession()
}

func (s *sessionService) AddItem(sessionID uuid.UUID, itemID string) (types.Item, error) {
	return s.acc.AddItem(sessionID, itemID)
}

// AddItemByName resolves a display name against the catalog and adds
// the item to the current session. Kept for older demo tooling that
// predates stable item ids.
func (s *sessionService) AddItemByName(name string) (types.Item, error) {
	item, ok := s.catalog.GetByName(name)
	if !ok {
		return types.Item{}, types.ErrUnknownItem
	}
	cur, err := s.registry.CurrentSession()
	if err != nil {
		return types.Item{}, err
	}
	return s.acc.AddItem(cur.ID, item.ID)
}

// ClassifyAndAdd classifies the image and, on a match, appends the
// item to the current session. The classification result is returned
// either way; an add failure is logged but does not mask what the
// camera saw.
func (s *sessionService) ClassifyAndAdd(ctx context.Context, img []byte) (*types.ClassificationResult, error) {
	if s.classifier == nil {
		// No gateway wired (startup warned already); same degraded shape
		// as an upstream failure.
		s.log.Warn("classification requested but no classifier configured")
		return &types.ClassificationResult{Matched: false, Confidence: 0}, nil
	}
	res, err := s.classifier.Classify(ctx, img)
	if err != nil {
		return nil, err
	}
	if !res.Matched {
		return res, nil
	}

	cur, err := s.registry.CurrentSession()
	if err != nil {
		s.log.Warn("classified item dropped; no active session", "item_id", res.ItemID)
		return res, nil
	}
	if _, err := s.acc.AddItem(cur.ID, res.ItemID); err != nil {
		s.log.Warn("classified item could not be added",
			"item_id", res.ItemID, "session_id", cur.ID.String(), "error", err)
	}
	return res, nil
}
