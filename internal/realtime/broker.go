package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/taskswap/taskswap/internal/metrics"
	"github.com/taskswap/taskswap/internal/services"
	"github.com/taskswap/taskswap/internal/types"
	"go.uber.org/zap"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
	outcomeIgnored  = "ignored"
)

// Envelope is an inbound frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ack   *int64          `json:"ack,omitempty"`
}

// AckResult is the payload of an ack frame.
type AckResult struct {
	Success bool        `json:"success"`
	Message interface{} `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type sendMessagePayload struct {
	TaskID     string `json:"taskId"`
	Text       string `json:"text"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
}

type updateProposalPayload struct {
	TaskID     string `json:"taskId"`
	ProposalID string `json:"proposalId"`
	Status     string `json:"status"`
}

// Broker turns inbound websocket events into service calls.
type Broker struct {
	hub      *Hub
	tasks    *services.TaskService
	messages *services.MessageService
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewBroker(hub *Hub, tasks *services.TaskService, messages *services.MessageService, m *metrics.Metrics, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Broker{
		hub:      hub,
		tasks:    tasks,
		messages: messages,
		metrics:  m,
		logger:   logger.Named("broker"),
	}
}

// Serve runs c until its connection closes or the hub shuts down. The client
// must already be registered with the hub.
func (b *Broker) Serve(ctx context.Context, c *Client) {
	b.metrics.ConnectionOpened()
	b.logger.Info("client connected", zap.String("client", c.ID), zap.String("user", c.UserID))

	defer func() {
		b.hub.Leave(c)
		c.Close()
		b.metrics.ConnectionClosed()
		b.logger.Info("client disconnected", zap.String("client", c.ID), zap.String("user", c.UserID))
	}()

	go c.writePump()

	c.Send(types.EventConnected, map[string]string{"id": c.ID, "userId": c.UserID})

	if err := c.readPump(func(raw []byte) { b.Handle(ctx, c, raw) }); err != nil {
		b.logger.Warn("websocket read failed", zap.String("client", c.ID), zap.Error(err))
	}
}

func (b *Broker) Handle(ctx context.Context, c *Client, raw []byte) {
	var env Envelope

	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		b.metrics.ObserveEvent("malformed", outcomeRejected)
		c.Send(types.EventError, map[string]string{"error": "Malformed event"})
		return
	}

	switch env.Event {
	case types.EventJoinTaskRoom:
		b.joinRoom(c, env)
	case types.EventLeaveTaskRoom:
		b.leaveRoom(c, env)
	case types.EventSendMessage:
		b.sendMessage(ctx, c, env)
	case types.EventUpdateProposal:
		b.updateProposal(ctx, c, env)
	default:
		b.metrics.ObserveEvent("unknown", outcomeIgnored)
		b.logger.Debug("unknown event", zap.String("client", c.ID), zap.String("event", env.Event))
	}
}

func (b *Broker) joinRoom(c *Client, env Envelope) {
	taskID := roomID(env.Data)

	if taskID == "" {
		b.metrics.ObserveEvent(env.Event, outcomeIgnored)
		b.logger.Warn("join without task id", zap.String("client", c.ID))
		return
	}

	b.hub.Join(c, taskID)
	b.metrics.ObserveEvent(env.Event, outcomeOK)
	b.ack(c, env, AckResult{Success: true})
}

func (b *Broker) leaveRoom(c *Client, env Envelope) {
	taskID := roomID(env.Data)

	if taskID == "" {
		b.metrics.ObserveEvent(env.Event, outcomeIgnored)
		return
	}

	b.hub.LeaveRoom(c, taskID)
	b.metrics.ObserveEvent(env.Event, outcomeOK)
	b.ack(c, env, AckResult{Success: true})
}

func (b *Broker) sendMessage(ctx context.Context, c *Client, env Envelope) {
	var payload sendMessagePayload

	if err := json.Unmarshal(env.Data, &payload); err != nil {
		b.metrics.ObserveEvent(env.Event, outcomeRejected)
		b.ack(c, env, AckResult{Error: "Missing required fields: taskId, text, or sender"})
		return
	}

	if payload.SenderID != "" && payload.SenderID != c.UserID {
		b.metrics.ObserveEvent(env.Event, outcomeRejected)
		b.ack(c, env, AckResult{Error: "Sender does not match authenticated user"})
		return
	}

	senderName := payload.SenderName
	if strings.TrimSpace(senderName) == "" {
		senderName = c.UserName
	}

	msg, err := b.messages.SendMessage(ctx, services.SendMessageInput{
		TaskID:     payload.TaskID,
		SenderID:   payload.SenderID,
		SenderName: senderName,
		Text:       payload.Text,
		Broadcast:  true,
	})

	if err != nil {
		outcome := outcomeRejected
		if errors.Is(err, services.ErrPersistence) {
			outcome = outcomeFailed
			b.logger.Error("failed to persist message", zap.String("task", payload.TaskID), zap.Error(err))
		}
		b.metrics.ObserveEvent(env.Event, outcome)
		b.ack(c, env, AckResult{Error: errorMessage(err)})
		return
	}

	b.metrics.ObserveEvent(env.Event, outcomeOK)
	b.metrics.ObserveMessage("realtime")
	b.ack(c, env, AckResult{Success: true, Message: services.NewMessageView(*msg, msg.SenderName)})
}

// updateProposal never answers the caller. Outcomes reach the room through
// the proposal-updated broadcast; failures are only logged.
func (b *Broker) updateProposal(ctx context.Context, c *Client, env Envelope) {
	var payload updateProposalPayload

	if err := json.Unmarshal(env.Data, &payload); err != nil {
		b.metrics.ObserveEvent(env.Event, outcomeRejected)
		b.logger.Warn("malformed proposal update", zap.String("client", c.ID), zap.Error(err))
		return
	}

	if _, err := b.tasks.UpdateProposalStatus(ctx, payload.TaskID, payload.ProposalID, payload.Status); err != nil {
		b.metrics.ObserveEvent(env.Event, outcomeFailed)
		b.logger.Warn("proposal update failed",
			zap.String("client", c.ID),
			zap.String("task", payload.TaskID),
			zap.String("proposal", payload.ProposalID),
			zap.String("status", payload.Status),
			zap.Error(err),
		)
		return
	}

	b.metrics.ObserveEvent(env.Event, outcomeOK)
	b.metrics.ObserveProposal(payload.Status)
}

func (b *Broker) ack(c *Client, env Envelope, result AckResult) {
	if env.Ack == nil {
		return
	}

	c.emit(Event{Event: types.EventAck, Data: result, Ack: env.Ack})
}

// roomID accepts either a bare task id string or {"taskId": "..."}.
func roomID(data json.RawMessage) string {
	var id string

	if err := json.Unmarshal(data, &id); err == nil {
		return strings.TrimSpace(id)
	}

	var obj struct {
		TaskID string `json:"taskId"`
	}

	if err := json.Unmarshal(data, &obj); err == nil {
		return strings.TrimSpace(obj.TaskID)
	}

	return ""
}

func errorMessage(err error) string {
	var svcErr *services.Error

	if errors.As(err, &svcErr) {
		return svcErr.Message
	}

	return err.Error()
}
