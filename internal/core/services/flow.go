package services

import (
	"time"

	"whatsapp-chat-analyzer/internal/domain"
)

const (
	// StarterGapMinutes - тишина, после которой сообщение открывает новый разговор.
	StarterGapMinutes = 240
	// DoubleTextMinutes - окно, в котором повторное сообщение того же отправителя считается двойным.
	DoubleTextMinutes = 5
)

type flowKind int

const (
	flowNone flowKind = iota
	flowStarter
	flowReply
	flowDoubleText
)

// flowEvent - классификация сообщения относительно предыдущего отобранного.
type flowEvent struct {
	Kind flowKind
	Gap  int
}

// flowState хранит предыдущее отобранное сообщение.
type flowState struct {
	prev *domain.Message
}

// step классифицирует msg и возвращает новое состояние. Первое сообщение
// последовательности не классифицируется.
func (s flowState) step(msg *domain.Message) (flowEvent, flowState) {
	next := flowState{prev: msg}
	if s.prev == nil {
		return flowEvent{Kind: flowNone}, next
	}

	gap := int(msg.Timestamp.Sub(s.prev.Timestamp) / time.Minute)
	switch {
	case gap > StarterGapMinutes:
		return flowEvent{Kind: flowStarter, Gap: gap}, next
	case msg.Sender != s.prev.Sender:
		return flowEvent{Kind: flowReply, Gap: gap}, next
	case gap < DoubleTextMinutes:
		return flowEvent{Kind: flowDoubleText, Gap: gap}, next
	default:
		return flowEvent{Kind: flowNone, Gap: gap}, next
	}
}
