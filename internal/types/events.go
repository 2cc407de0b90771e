package types

// Websocket event names. Inbound events come from clients, the rest are
// emitted by the server.
const (
	EventJoinTaskRoom   = "join-task-room"
	EventLeaveTaskRoom  = "leave-task-room"
	EventSendMessage    = "send-message"
	EventUpdateProposal = "update-proposal"

	EventConnected       = "connected"
	EventMessageReceived = "message-received"
	EventProposalUpdated = "proposal-updated"
	EventError           = "error"
	EventAck             = "ack"
)
