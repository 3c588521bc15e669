package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"onlearn-client/internal/domain"
	"onlearn-client/pkg/logger"
	"onlearn-client/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestChat() (*ChatSynchronizer, *MockBackend) {
	api := new(MockBackend)
	c := NewChatSynchronizer(api, logger.Nop())
	c.now = func() time.Time { return t0.Add(time.Hour) }
	return c, api
}

func session(id string, minutes int) domain.ChatSession {
	return domain.ChatSession{ID: id, Title: domain.DefaultChatTitle, LastMessageAt: t0.Add(time.Duration(minutes) * time.Minute)}
}

func sessionIDs(list []domain.ChatSession) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func confirmed(id string, sender domain.Sender, content string) *domain.ChatMessage {
	return &domain.ChatMessage{ID: id, Sender: sender, Content: content, Timestamp: t0}
}

func TestInitSelectsMostRecentSession(t *testing.T) {
	c, api := newTestChat()
	api.On("ListChatSessions", mock.Anything).Return([]domain.ChatSession{session("A", 1), session("C", 3), session("B", 2)}, nil).Once()
	api.On("GetChatSession", mock.Anything, "C").Return(&domain.ChatSession{ID: "C", Messages: []domain.ChatMessage{*confirmed("m1", domain.SenderAI, "hello")}}, nil).Once()

	require.NoError(t, c.Init(context.Background()))

	assert.Equal(t, []string{"C", "B", "A"}, sessionIDs(c.Sessions()))
	active, ok := c.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "C", active.ID)
	assert.Len(t, c.Timeline(), 1)
}

func TestInitWithNoSessionsCreatesOne(t *testing.T) {
	c, api := newTestChat()
	api.On("ListChatSessions", mock.Anything).Return([]domain.ChatSession{}, nil).Once()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1", Title: domain.DefaultChatTitle}, nil).Once()

	require.NoError(t, c.Init(context.Background()))

	active, ok := c.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "S1", active.ID)
	api.AssertExpectations(t)
}

func TestInitListFailureStillLeavesActiveSession(t *testing.T) {
	c, api := newTestChat()
	api.On("ListChatSessions", mock.Anything).Return(nil, domain.NewNetworkError(errors.New("refused"))).Once()
	api.On("CreateChatSession", mock.Anything).Return(nil, domain.NewNetworkError(errors.New("refused"))).Once()

	err := c.Init(context.Background())
	assert.Equal(t, domain.ErrKindNetwork, domain.KindOf(err))

	active, ok := c.ActiveSession()
	require.True(t, ok)
	assert.True(t, utils.IsLocalID(active.ID))
}

func TestNewSessionFallsBackToLocal(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(nil, domain.NewNetworkError(errors.New("refused"))).Once()

	s, err := c.NewSession(context.Background())
	require.Error(t, err)
	assert.True(t, utils.IsLocalID(s.ID))
	assert.Equal(t, domain.DefaultChatTitle, s.Title)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, domain.SenderAI, s.Messages[0].Sender)
	assert.Equal(t, LocalGreeting, s.Messages[0].Content)

	active, _ := c.ActiveSession()
	assert.Equal(t, s.ID, active.ID)
}

func TestNewSessionIsPrepended(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1"}, nil).Once()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S2"}, nil).Once()

	_, err := c.NewSession(context.Background())
	require.NoError(t, err)
	_, err = c.NewSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"S2", "S1"}, sessionIDs(c.Sessions()))
	active, _ := c.ActiveSession()
	assert.Equal(t, "S2", active.ID)
	assert.Equal(t, domain.DefaultChatTitle, active.Title)
}

func TestSendSuccessReconciles(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{
		ID: "S1", Title: domain.DefaultChatTitle, Messages: []domain.ChatMessage{*confirmed("g", domain.SenderAI, "greeting")},
	}, nil).Once()
	_, err := c.NewSession(context.Background())
	require.NoError(t, err)
	before := len(c.Timeline())

	api.On("SendChatMessage", mock.Anything, "S1", "What is a goroutine?").
		Run(func(args mock.Arguments) {
			during := c.Timeline()
			require.Len(t, during, before+1)
			last := during[len(during)-1]
			assert.True(t, last.Pending)
			assert.True(t, utils.IsTemporaryID(last.ID))
			assert.Equal(t, domain.SenderUser, last.Sender)
			assert.True(t, c.Sending())
			assert.Equal(t, ExchangeSending, c.State("S1"))
		}).
		Return(confirmed("u1", domain.SenderUser, "What is a goroutine?"), confirmed("a1", domain.SenderAI, "A lightweight thread."), nil).Once()

	require.NoError(t, c.Send(context.Background(), "  What is a goroutine?  "))

	after := c.Timeline()
	require.Len(t, after, before+2)
	assert.Equal(t, "u1", after[before].ID)
	assert.Equal(t, "a1", after[before+1].ID)
	for _, m := range after {
		assert.False(t, utils.IsTemporaryID(m.ID))
	}
	assert.False(t, c.Sending())
	assert.Equal(t, ExchangeReconciled, c.State("S1"))

	active, _ := c.ActiveSession()
	assert.Equal(t, "What is a goroutine?", active.Title)
	assert.Equal(t, t0.Add(time.Hour), active.LastMessageAt)
}

func TestSendFailureKeepsOptimisticMessage(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1", Title: domain.DefaultChatTitle}, nil).Once()
	_, err := c.NewSession(context.Background())
	require.NoError(t, err)
	before := len(c.Timeline())

	api.On("SendChatMessage", mock.Anything, "S1", "hello").Return(nil, nil, domain.NewNetworkError(errors.New("refused"))).Once()

	err = c.Send(context.Background(), "hello")
	assert.Equal(t, domain.ErrKindNetwork, domain.KindOf(err))

	after := c.Timeline()
	require.Len(t, after, before+2)
	assert.Equal(t, "hello", after[before].Content)
	assert.False(t, after[before].Pending)
	assert.True(t, utils.IsTemporaryID(after[before].ID))
	assert.Equal(t, domain.SenderAI, after[before+1].Sender)
	assert.Equal(t, AssistantUnreachable, after[before+1].Content)
	assert.False(t, c.Sending())
	assert.Equal(t, ExchangeFailed, c.State("S1"))

	active, _ := c.ActiveSession()
	assert.Equal(t, domain.DefaultChatTitle, active.Title)

	// the next attempt starts fresh
	api.On("SendChatMessage", mock.Anything, "S1", "again").Return(confirmed("u2", domain.SenderUser, "again"), confirmed("a2", domain.SenderAI, "hi"), nil).Once()
	require.NoError(t, c.Send(context.Background(), "again"))
	assert.Equal(t, ExchangeReconciled, c.State("S1"))
	for _, m := range c.Timeline() {
		assert.False(t, m.Pending, m.Content)
	}
}

func TestSelectSessionAppliesDetailAfterFailedSend(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1", Title: domain.DefaultChatTitle}, nil).Once()
	_, err := c.NewSession(context.Background())
	require.NoError(t, err)

	api.On("SendChatMessage", mock.Anything, "S1", "hi").Return(nil, nil, domain.NewNetworkError(errors.New("refused"))).Once()
	require.Error(t, c.Send(context.Background(), "hi"))

	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S2", Title: domain.DefaultChatTitle}, nil).Once()
	_, err = c.NewSession(context.Background())
	require.NoError(t, err)

	api.On("GetChatSession", mock.Anything, "S1").Return(&domain.ChatSession{ID: "S1", Messages: []domain.ChatMessage{
		*confirmed("g", domain.SenderAI, "greeting"),
		*confirmed("u1", domain.SenderUser, "hi"),
		*confirmed("a1", domain.SenderAI, "hello"),
	}}, nil).Once()
	require.NoError(t, c.SelectSession(context.Background(), "S1"))

	timeline := c.Timeline()
	require.Len(t, timeline, 3)
	assert.Equal(t, "hi", timeline[1].Content)
	for _, m := range timeline {
		assert.False(t, m.Pending)
	}
}

func TestSendMissingReplyIsParseFailure(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1"}, nil).Once()
	_, _ = c.NewSession(context.Background())
	api.On("SendChatMessage", mock.Anything, "S1", "hello").Return(confirmed("u1", domain.SenderUser, "hello"), nil, nil).Once()

	err := c.Send(context.Background(), "hello")
	assert.Equal(t, domain.ErrKindParse, domain.KindOf(err))
	assert.Equal(t, ExchangeFailed, c.State("S1"))
}

func TestSendRejectsEmptyAndConcurrent(t *testing.T) {
	c, api := newTestChat()
	assert.ErrorIs(t, c.Send(context.Background(), "hi"), domain.ErrNoActiveSession)

	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1"}, nil).Once()
	_, _ = c.NewSession(context.Background())
	assert.ErrorIs(t, c.Send(context.Background(), "   "), domain.ErrEmptyMessage)

	api.On("SendChatMessage", mock.Anything, "S1", "first").
		Run(func(args mock.Arguments) {
			assert.ErrorIs(t, c.Send(context.Background(), "second"), domain.ErrSendInProgress)
		}).
		Return(confirmed("u1", domain.SenderUser, "first"), confirmed("a1", domain.SenderAI, "ok"), nil).Once()
	require.NoError(t, c.Send(context.Background(), "first"))
	api.AssertNumberOfCalls(t, "SendChatMessage", 1)
}

func TestSendMovesSessionToFront(t *testing.T) {
	c, api := newTestChat()
	api.On("ListChatSessions", mock.Anything).Return([]domain.ChatSession{session("A", 1), session("B", 2), session("C", 3)}, nil).Once()
	api.On("GetChatSession", mock.Anything, mock.Anything).Return(&domain.ChatSession{}, nil)
	require.NoError(t, c.Init(context.Background()))
	require.NoError(t, c.SelectSession(context.Background(), "A"))

	api.On("SendChatMessage", mock.Anything, "A", "hi").Return(confirmed("u1", domain.SenderUser, "hi"), confirmed("a1", domain.SenderAI, "hello"), nil).Once()
	require.NoError(t, c.Send(context.Background(), "hi"))

	assert.Equal(t, []string{"A", "C", "B"}, sessionIDs(c.Sessions()))
}

func TestTitleIsTruncated(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1", Title: domain.DefaultChatTitle}, nil).Once()
	_, _ = c.NewSession(context.Background())

	long := strings.Repeat("x", 60)
	api.On("SendChatMessage", mock.Anything, "S1", long).Return(confirmed("u1", domain.SenderUser, long), confirmed("a1", domain.SenderAI, "ok"), nil).Once()
	require.NoError(t, c.Send(context.Background(), long))

	active, _ := c.ActiveSession()
	assert.Equal(t, strings.Repeat("x", 50)+"...", active.Title)

	api.On("SendChatMessage", mock.Anything, "S1", "later").Return(confirmed("u2", domain.SenderUser, "later"), confirmed("a2", domain.SenderAI, "ok"), nil).Once()
	require.NoError(t, c.Send(context.Background(), "later"))
	active, _ = c.ActiveSession()
	assert.Equal(t, strings.Repeat("x", 50)+"...", active.Title, "title only derives from the first exchange")
}

func TestSelectSessionKeepsPendingTimeline(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1"}, nil).Once()
	_, _ = c.NewSession(context.Background())

	api.On("GetChatSession", mock.Anything, "S1").Return(&domain.ChatSession{ID: "S1"}, nil)
	api.On("SendChatMessage", mock.Anything, "S1", "hi").
		Run(func(args mock.Arguments) {
			require.NoError(t, c.SelectSession(context.Background(), "S1"))
			assert.Len(t, c.Timeline(), 1)
		}).
		Return(confirmed("u1", domain.SenderUser, "hi"), confirmed("a1", domain.SenderAI, "ok"), nil).Once()
	require.NoError(t, c.Send(context.Background(), "hi"))
	assert.Len(t, c.Timeline(), 2)

	assert.ErrorIs(t, c.SelectSession(context.Background(), "nope"), domain.ErrSessionNotFound)
}

func TestDeleteOnlySessionCreatesExactlyOne(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1"}, nil).Once()
	_, _ = c.NewSession(context.Background())

	api.On("DeleteChatSession", mock.Anything, "S1").Return(nil).Once()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S2"}, nil).Once()

	require.NoError(t, c.Delete(context.Background(), "S1"))

	assert.Equal(t, []string{"S2"}, sessionIDs(c.Sessions()))
	active, ok := c.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "S2", active.ID)
	api.AssertNumberOfCalls(t, "CreateChatSession", 2)
}

func TestDeleteActiveSelectsMostRecentRemaining(t *testing.T) {
	c, api := newTestChat()
	api.On("ListChatSessions", mock.Anything).Return([]domain.ChatSession{session("A", 1), session("B", 2), session("C", 3)}, nil).Once()
	api.On("GetChatSession", mock.Anything, mock.Anything).Return(&domain.ChatSession{}, nil)
	require.NoError(t, c.Init(context.Background()))

	api.On("DeleteChatSession", mock.Anything, "C").Return(nil).Once()
	require.NoError(t, c.Delete(context.Background(), "C"))

	active, _ := c.ActiveSession()
	assert.Equal(t, "B", active.ID)
	assert.Equal(t, []string{"B", "A"}, sessionIDs(c.Sessions()))

	api.On("DeleteChatSession", mock.Anything, "A").Return(nil).Once()
	require.NoError(t, c.Delete(context.Background(), "A"))
	active, _ = c.ActiveSession()
	assert.Equal(t, "B", active.ID, "deleting an inactive session keeps the selection")
}

func TestDeleteFailureChangesNothing(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(&domain.ChatSession{ID: "S1"}, nil).Once()
	_, _ = c.NewSession(context.Background())
	api.On("DeleteChatSession", mock.Anything, "S1").Return(domain.NewBusinessError(500, "")).Once()

	err := c.Delete(context.Background(), "S1")
	assert.Equal(t, domain.ErrKindBusiness, domain.KindOf(err))
	assert.Equal(t, []string{"S1"}, sessionIDs(c.Sessions()))
}

func TestDeleteLocalSessionSkipsBackend(t *testing.T) {
	c, api := newTestChat()
	api.On("CreateChatSession", mock.Anything).Return(nil, domain.NewNetworkError(errors.New("refused"))).Twice()
	local, _ := c.NewSession(context.Background())

	_ = c.Delete(context.Background(), local.ID)

	api.AssertNotCalled(t, "DeleteChatSession", mock.Anything, mock.Anything)
	active, ok := c.ActiveSession()
	require.True(t, ok)
	assert.NotEqual(t, local.ID, active.ID)
}
