package realtime

import (
	"github.com/taskswap/taskswap/internal/models"
	"github.com/taskswap/taskswap/internal/services"
	"github.com/taskswap/taskswap/internal/types"
)

// Notifier publishes service-level changes to task rooms.
type Notifier struct {
	hub *Hub
}

var _ services.Publisher = (*Notifier)(nil)

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) MessageCreated(msg models.Message) {
	n.hub.Broadcast(msg.TaskID, types.EventMessageReceived, services.NewMessageView(msg, msg.SenderName))
}

func (n *Notifier) ProposalsUpdated(taskID string, proposals []models.Proposal) {
	n.hub.Broadcast(taskID, types.EventProposalUpdated, proposals)
}
