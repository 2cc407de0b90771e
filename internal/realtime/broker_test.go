package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskswap/taskswap/internal/metrics"
	"github.com/taskswap/taskswap/internal/models"
	"github.com/taskswap/taskswap/internal/services"
	dbtest "github.com/taskswap/taskswap/internal/testutil"
	"github.com/taskswap/taskswap/internal/types"
	"gorm.io/gorm"
)

type brokerFixture struct {
	db      *gorm.DB
	hub     *Hub
	broker  *Broker
	tasks   *services.TaskService
	metrics *metrics.Metrics
	owner   models.User
	other   models.User
	task    *models.Task
}

func newBrokerFixture(t *testing.T) *brokerFixture {
	t.Helper()

	database := dbtest.NewDB(t)
	hub := NewHub(nil)
	notifier := NewNotifier(hub)
	tasks := services.NewTaskService(database, time.Second, notifier)
	messages := services.NewMessageService(database, time.Second, notifier)
	m := metrics.New()

	owner := dbtest.CreateUser(t, database, "alice")
	other := dbtest.CreateUser(t, database, "bob")

	task, err := tasks.CreateTask(context.Background(), owner.ID, services.CreateTaskInput{
		Title:        "Fix sink",
		Description:  "Leaky pipe",
		OfferedSkill: "plumbing",
		SkillsNeeded: []string{"carpentry"},
	})
	require.NoError(t, err)

	return &brokerFixture{
		db:      database,
		hub:     hub,
		broker:  NewBroker(hub, tasks, messages, m, nil),
		tasks:   tasks,
		metrics: m,
		owner:   owner,
		other:   other,
		task:    task,
	}
}

func (f *brokerFixture) handle(c *Client, event string, data interface{}, ack int64) {
	raw, _ := json.Marshal(map[string]interface{}{"event": event, "data": data, "ack": ack})
	f.broker.Handle(context.Background(), c, raw)
}

func ackResult(t *testing.T, frame map[string]json.RawMessage) AckResult {
	t.Helper()

	require.Equal(t, types.EventAck, eventName(t, frame))

	var result AckResult
	require.NoError(t, json.Unmarshal(frame["data"], &result))
	return result
}

func TestBroker_JoinAndSendMessage(t *testing.T) {
	f := newBrokerFixture(t)
	alice := NewClient(nil, f.owner.ID, f.owner.Name)
	bob := NewClient(nil, f.other.ID, f.other.Name)

	f.handle(alice, types.EventJoinTaskRoom, f.task.ID, 1)
	assert.True(t, ackResult(t, nextEvent(t, alice)).Success)
	f.handle(bob, types.EventJoinTaskRoom, f.task.ID, 1)
	assert.True(t, ackResult(t, nextEvent(t, bob)).Success)
	require.Equal(t, 2, f.hub.RoomSize(f.task.ID))

	f.handle(bob, types.EventSendMessage, map[string]string{
		"taskId":     f.task.ID,
		"text":       "Saturday?",
		"senderId":   f.other.ID,
		"senderName": f.other.Name,
	}, 2)

	for _, c := range []*Client{alice, bob} {
		frame := nextEvent(t, c)
		require.Equal(t, types.EventMessageReceived, eventName(t, frame))

		var view services.MessageView
		require.NoError(t, json.Unmarshal(frame["data"], &view))
		assert.Equal(t, "Saturday?", view.Text)
		assert.Equal(t, types.SenderRef{ID: f.other.ID, Name: "bob"}, view.Sender)
	}

	frame := nextEvent(t, bob)
	assert.JSONEq(t, "2", string(frame["ack"]))
	assert.True(t, ackResult(t, frame).Success)
	assertNoEvent(t, alice)

	var count int64
	require.NoError(t, f.db.Model(&models.Message{}).Where("task_id = ?", f.task.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MessagesSent.WithLabelValues("realtime")))
}

func TestBroker_SendMessageDefaultsSenderName(t *testing.T) {
	f := newBrokerFixture(t)
	bob := NewClient(nil, f.other.ID, f.other.Name)
	f.hub.Join(bob, f.task.ID)

	f.handle(bob, types.EventSendMessage, map[string]string{
		"taskId":   f.task.ID,
		"text":     "Saturday?",
		"senderId": f.other.ID,
	}, 4)

	frame := nextEvent(t, bob)
	require.Equal(t, types.EventMessageReceived, eventName(t, frame))

	frame = nextEvent(t, bob)
	require.Equal(t, types.EventAck, eventName(t, frame))

	var result struct {
		Success bool                 `json:"success"`
		Message services.MessageView `json:"message"`
		Error   string               `json:"error"`
	}
	require.NoError(t, json.Unmarshal(frame["data"], &result))
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "bob", result.Message.SenderName)
	assert.Equal(t, types.SenderRef{ID: f.other.ID, Name: "bob"}, result.Message.Sender)

	var stored models.Message
	require.NoError(t, f.db.First(&stored, "task_id = ?", f.task.ID).Error)
	assert.Equal(t, "bob", stored.SenderName)
}

func TestBroker_SendMessageFailures(t *testing.T) {
	f := newBrokerFixture(t)
	bob := NewClient(nil, f.other.ID, f.other.Name)
	f.hub.Join(bob, f.task.ID)

	tests := map[string]map[string]string{
		"missing text":    {"taskId": f.task.ID, "senderId": f.other.ID, "senderName": "bob"},
		"missing sender":  {"taskId": f.task.ID, "text": "hi"},
		"impersonation":   {"taskId": f.task.ID, "text": "hi", "senderId": f.owner.ID, "senderName": "alice"},
		"unknown task id": {"taskId": "missing", "text": "hi", "senderId": f.other.ID, "senderName": "bob"},
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			f.handle(bob, types.EventSendMessage, data, 7)

			result := ackResult(t, nextEvent(t, bob))
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Error)
			assertNoEvent(t, bob)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBroker_UpdateProposal(t *testing.T) {
	f := newBrokerFixture(t)
	ctx := context.Background()

	alice := NewClient(nil, f.owner.ID, f.owner.Name)
	bob := NewClient(nil, f.other.ID, f.other.Name)
	f.hub.Join(alice, f.task.ID)

	withProposal, err := f.tasks.ProposeSwap(ctx, f.task.ID, f.other.ID, []string{"carpentry"}, "I can help")
	require.NoError(t, err)

	frame := nextEvent(t, alice)
	require.Equal(t, types.EventProposalUpdated, eventName(t, frame))

	var proposals []models.Proposal
	require.NoError(t, json.Unmarshal(frame["data"], &proposals))
	require.Len(t, proposals, 1)
	assert.Equal(t, types.ProposalStatusPending, proposals[0].Status)

	f.handle(bob, types.EventUpdateProposal, map[string]string{
		"taskId":     f.task.ID,
		"proposalId": withProposal.Proposals[0].ID,
		"status":     types.ProposalStatusAccepted,
	}, 3)

	frame = nextEvent(t, alice)
	require.Equal(t, types.EventProposalUpdated, eventName(t, frame))
	require.NoError(t, json.Unmarshal(frame["data"], &proposals))
	assert.Equal(t, types.ProposalStatusAccepted, proposals[0].Status)

	// Not in the room and never acked.
	assertNoEvent(t, bob)

	t.Run("failures are silent", func(t *testing.T) {
		f.handle(alice, types.EventUpdateProposal, map[string]string{
			"taskId":     f.task.ID,
			"proposalId": "missing",
			"status":     types.ProposalStatusRejected,
		}, 4)

		assertNoEvent(t, alice)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RealtimeEvents.WithLabelValues(types.EventUpdateProposal, outcomeFailed)))
	})
}

func TestBroker_JoinWithoutTaskID(t *testing.T) {
	f := newBrokerFixture(t)
	alice := NewClient(nil, f.owner.ID, f.owner.Name)

	f.handle(alice, types.EventJoinTaskRoom, "", 1)
	f.handle(alice, types.EventJoinTaskRoom, nil, 2)

	assertNoEvent(t, alice)
	assert.Zero(t, f.hub.RoomSize(""))
}

func TestBroker_LeaveRoom(t *testing.T) {
	f := newBrokerFixture(t)
	alice := NewClient(nil, f.owner.ID, f.owner.Name)

	f.handle(alice, types.EventJoinTaskRoom, map[string]string{"taskId": f.task.ID}, 1)
	nextEvent(t, alice)
	require.Equal(t, 1, f.hub.RoomSize(f.task.ID))

	f.handle(alice, types.EventLeaveTaskRoom, f.task.ID, 2)
	nextEvent(t, alice)
	assert.Zero(t, f.hub.RoomSize(f.task.ID))
}

func TestBroker_MalformedEnvelope(t *testing.T) {
	f := newBrokerFixture(t)
	alice := NewClient(nil, f.owner.ID, f.owner.Name)

	f.broker.Handle(context.Background(), alice, []byte("not json"))

	assert.Equal(t, types.EventError, eventName(t, nextEvent(t, alice)))
}
