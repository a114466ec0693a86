package services

import (
	"context"
	"sync"

	"github.com/paulexconde/formbuilder/internal/pkg/idgen"
	"github.com/paulexconde/formbuilder/internal/pkg/logger"
	"github.com/paulexconde/formbuilder/internal/pkg/store"
	"github.com/paulexconde/formbuilder/pkg/fault"
)

// AuthoringService keeps the open drafts of this process, keyed by form id.
type AuthoringService struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
	ids    idgen.Generator
	cols   *store.Collections
	log    logger.Logger
}

func NewAuthoringService(cols *store.Collections, ids idgen.Generator, log logger.Logger) *AuthoringService {
	return &AuthoringService{
		drafts: make(map[string]*Draft),
		ids:    ids,
		cols:   cols,
		log:    log,
	}
}

func (s *AuthoringService) NewDraft() *Draft {
	d := NewDraft(s.ids)

	s.mu.Lock()
	s.drafts[d.FormID()] = d
	s.mu.Unlock()

	s.log.Debug("draft opened", "form_id", d.FormID())
	return d
}

func (s *AuthoringService) Draft(formID string) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[formID]
	if !ok {
		return nil, fault.NotFound("draft", formID)
	}
	return d, nil
}

func (s *AuthoringService) Discard(formID string) {
	s.mu.Lock()
	delete(s.drafts, formID)
	s.mu.Unlock()
}

// Submit persists the draft and closes it.
func (s *AuthoringService) Submit(ctx context.Context, formID string, meta FormMeta) (string, error) {
	d, err := s.Draft(formID)
	if err != nil {
		return "", err
	}

	id, err := d.Submit(ctx, s.cols, meta)
	if err != nil {
		s.log.ErrorContext(ctx, "draft submit failed", "form_id", formID, "error", err)
		return "", err
	}

	s.Discard(formID)
	s.log.InfoContext(ctx, "form created",
		"form_id", id,
		"questions", len(d.Questions()),
		"conditions", len(d.Conditions()),
	)

	return id, nil
}

// SessionService keeps the open render sessions of this process.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	render   *RenderService
	log      logger.Logger
}

func NewSessionService(render *RenderService, log logger.Logger) *SessionService {
	return &SessionService{
		sessions: make(map[string]*Session),
		render:   render,
		log:      log,
	}
}

func (s *SessionService) Open(ctx context.Context, formID string) (*Session, error) {
	sess, err := s.render.NewSession(ctx, formID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	s.log.DebugContext(ctx, "session opened", "session_id", sess.ID(), "form_id", formID)
	return sess, nil
}

func (s *SessionService) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fault.NotFound("session", id)
	}
	return sess, nil
}

// Submit hands the session's answers off and closes the session.
func (s *SessionService) Submit(ctx context.Context, id string) (*Session, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	if _, err := sess.SubmitAnswers(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	return sess, nil
}
