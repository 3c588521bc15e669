package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"onlearn-client/internal/domain"
	"onlearn-client/pkg/logger"
	"onlearn-client/pkg/utils"
)

type ExchangeState string

const (
	ExchangeIdle       ExchangeState = "idle"
	ExchangeSending    ExchangeState = "sending"
	ExchangeReconciled ExchangeState = "reconciled"
	ExchangeFailed     ExchangeState = "failed"
)

const (
	LocalGreeting        = "Hi! I'm your AI learning assistant. Ask me anything about your courses."
	AssistantUnreachable = "Sorry, I can't reach the AI assistant right now. Please try again in a moment."
)

// ChatSynchronizer keeps the chat session list and the active timeline in
// step with the backend. The list is ordered most recently active first.
// Only one send may be in flight at a time.
//
// Network calls are made without holding the lock; every state change
// happens under it, so readers always observe a consistent snapshot.
type ChatSynchronizer struct {
	api domain.ChatAPI
	log *logger.Logger
	now func() time.Time

	mu       sync.Mutex
	sessions []*domain.ChatSession
	activeID string
	inFlight string // session of the send in flight, if any
	states   map[string]ExchangeState
}

func NewChatSynchronizer(api domain.ChatAPI, log *logger.Logger) *ChatSynchronizer {
	return &ChatSynchronizer{
		api:    api,
		log:    log.With("component", "chat"),
		now:    time.Now,
		states: make(map[string]ExchangeState),
	}
}

// Init loads the session list and selects the most recent session, creating
// one when the user has none. An active session exists afterwards even when
// the list call failed; the list error is still returned.
func (c *ChatSynchronizer) Init(ctx context.Context) error {
	list, err := c.api.ListChatSessions(ctx)
	if err != nil {
		err = normalize(err)
		c.log.Warn("chat session list failed", "error", err)
		if _, createErr := c.NewSession(ctx); createErr != nil {
			c.log.Warn("chat session fallback to local", "error", createErr)
		}
		return err
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].LastMessageAt.After(list[j].LastMessageAt)
	})

	c.mu.Lock()
	c.sessions = make([]*domain.ChatSession, 0, len(list))
	for i := range list {
		s := list[i]
		c.sessions = append(c.sessions, &s)
		c.states[s.ID] = ExchangeIdle
	}
	c.activeID = ""
	c.mu.Unlock()

	if len(list) == 0 {
		_, err := c.NewSession(ctx)
		return err
	}
	return c.SelectSession(ctx, list[0].ID)
}

// NewSession creates a session on the backend and makes it active. When the
// backend cannot create one, a local session with a static greeting is used
// instead and returned together with the error. Local sessions are not
// persisted anywhere.
func (c *ChatSynchronizer) NewSession(ctx context.Context) (domain.ChatSession, error) {
	created, err := c.api.CreateChatSession(ctx)
	if err == nil && created == nil {
		err = domain.NewParseError(0, nil)
	}
	var session *domain.ChatSession
	if err != nil {
		err = normalize(err)
		c.log.Warn("chat session create failed, using local session", "error", err)
		session = c.localSession()
	} else {
		s := *created
		if s.Title == "" {
			s.Title = domain.DefaultChatTitle
		}
		session = &s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = append([]*domain.ChatSession{session}, c.sessions...)
	c.activeID = session.ID
	c.states[session.ID] = ExchangeIdle
	return copySession(session), err
}

func (c *ChatSynchronizer) localSession() *domain.ChatSession {
	now := c.now()
	id := utils.NewLocalID()
	return &domain.ChatSession{
		ID:            id,
		Title:         domain.DefaultChatTitle,
		LastMessageAt: now,
		CreatedAt:     now,
		Messages: []domain.ChatMessage{{
			ID:        utils.NewLocalID(),
			SessionID: id,
			Sender:    domain.SenderAI,
			Content:   LocalGreeting,
			Timestamp: now,
		}},
	}
}

// SelectSession makes id the active session and loads its messages. The
// timeline of a session with a send in flight is never overwritten by the
// fetch.
func (c *ChatSynchronizer) SelectSession(ctx context.Context, id string) error {
	c.mu.Lock()
	s := c.find(id)
	if s == nil {
		c.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	c.activeID = id
	c.mu.Unlock()

	if utils.IsLocalID(id) {
		return nil
	}

	detail, err := c.api.GetChatSession(ctx, id)
	if err != nil {
		err = normalize(err)
		c.log.Warn("chat session fetch failed", "session_id", id, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s = c.find(id)
	if s == nil || c.inFlight == id {
		return nil
	}
	s.Messages = append([]domain.ChatMessage(nil), detail.Messages...)
	if s.Title == "" {
		s.Title = detail.Title
	}
	return nil
}

// Send posts content to the active session. The user's message is appended
// with a temporary id before the request goes out. On success that exact
// message is replaced by the confirmed user message and the AI reply. On
// failure it stays in place and an AI error message is appended.
func (c *ChatSynchronizer) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ErrEmptyMessage
	}

	c.mu.Lock()
	if c.inFlight != "" {
		c.mu.Unlock()
		return domain.ErrSendInProgress
	}
	s := c.find(c.activeID)
	if s == nil {
		c.mu.Unlock()
		return domain.ErrNoActiveSession
	}
	sessionID := s.ID
	tempID := utils.NewTempID()
	s.Messages = append(s.Messages, domain.ChatMessage{
		ID:        tempID,
		SessionID: sessionID,
		Sender:    domain.SenderUser,
		Content:   content,
		Timestamp: c.now(),
		Pending:   true,
	})
	c.inFlight = sessionID
	c.states[sessionID] = ExchangeSending
	c.mu.Unlock()

	userMsg, aiMsg, err := c.api.SendChatMessage(ctx, sessionID, content)
	if err == nil && (userMsg == nil || aiMsg == nil) {
		err = domain.NewParseError(0, nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = ""

	s = c.find(sessionID)
	if s == nil {
		// Deleted while the request was in flight.
		delete(c.states, sessionID)
		return normalize(err)
	}

	if err != nil {
		err = normalize(err)
		// The user's text stays visible under its temporary id.
		for i := range s.Messages {
			if s.Messages[i].ID == tempID {
				s.Messages[i].Pending = false
			}
		}
		s.Messages = append(s.Messages, domain.ChatMessage{
			ID:        utils.NewLocalID(),
			SessionID: sessionID,
			Sender:    domain.SenderAI,
			Content:   AssistantUnreachable,
			Timestamp: c.now(),
		})
		c.states[sessionID] = ExchangeFailed
		chatExchangesTotal.WithLabelValues(string(ExchangeFailed)).Inc()
		c.log.Warn("chat send failed", "session_id", sessionID, "error", err)
		return err
	}

	s.Messages = removeMessage(s.Messages, tempID)
	s.Messages = append(s.Messages, *userMsg, *aiMsg)
	s.LastMessageAt = c.now()
	if s.Title == domain.DefaultChatTitle || s.Title == "" {
		s.Title = utils.TruncateTitle(content)
	}
	c.moveToFront(sessionID)
	c.states[sessionID] = ExchangeReconciled
	chatExchangesTotal.WithLabelValues(string(ExchangeReconciled)).Inc()
	return nil
}

// Delete removes a session. Nothing changes locally unless the backend
// confirms the delete. When the active session goes away the most recent
// remaining one is selected, or a new one is created.
func (c *ChatSynchronizer) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	s := c.find(id)
	if s == nil {
		c.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	c.mu.Unlock()

	if !utils.IsLocalID(id) {
		if err := c.api.DeleteChatSession(ctx, id); err != nil {
			err = normalize(err)
			c.log.Warn("chat session delete failed", "session_id", id, "error", err)
			return err
		}
	}

	c.mu.Lock()
	for i, cur := range c.sessions {
		if cur.ID == id {
			c.sessions = append(c.sessions[:i], c.sessions[i+1:]...)
			break
		}
	}
	delete(c.states, id)
	wasActive := c.activeID == id
	var next string
	if wasActive {
		c.activeID = ""
		if r := c.mostRecent(); r != nil {
			next = r.ID
		}
	}
	c.mu.Unlock()

	if !wasActive {
		return nil
	}
	if next == "" {
		_, err := c.NewSession(ctx)
		return err
	}
	return c.SelectSession(ctx, next)
}

// Sessions returns a snapshot of the session list, most recently active first.
func (c *ChatSynchronizer) Sessions() []domain.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatSession, len(c.sessions))
	for i, s := range c.sessions {
		out[i] = copySession(s)
	}
	return out
}

func (c *ChatSynchronizer) ActiveSession() (domain.ChatSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.find(c.activeID)
	if s == nil {
		return domain.ChatSession{}, false
	}
	return copySession(s), true
}

// Timeline returns the messages of the active session.
func (c *ChatSynchronizer) Timeline() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.find(c.activeID)
	if s == nil {
		return nil
	}
	return append([]domain.ChatMessage(nil), s.Messages...)
}

func (c *ChatSynchronizer) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight != ""
}

// State reports the state of the last exchange in a session.
func (c *ChatSynchronizer) State(id string) ExchangeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[id]; ok {
		return st
	}
	return ExchangeIdle
}

func (c *ChatSynchronizer) find(id string) *domain.ChatSession {
	if id == "" {
		return nil
	}
	for _, s := range c.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (c *ChatSynchronizer) mostRecent() *domain.ChatSession {
	var best *domain.ChatSession
	for _, s := range c.sessions {
		if best == nil || s.LastMessageAt.After(best.LastMessageAt) {
			best = s
		}
	}
	return best
}

func (c *ChatSynchronizer) moveToFront(id string) {
	for i, s := range c.sessions {
		if s.ID == id {
			copy(c.sessions[1:i+1], c.sessions[:i])
			c.sessions[0] = s
			return
		}
	}
}

func removeMessage(msgs []domain.ChatMessage, id string) []domain.ChatMessage {
	out := msgs[:0]
	for _, m := range msgs {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func copySession(s *domain.ChatSession) domain.ChatSession {
	out := *s
	out.Messages = append([]domain.ChatMessage(nil), s.Messages...)
	return out
}
