package saga

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SagaID represents a unique identifier for a Saga execution.
type SagaID struct {
	UUID uuid.UUID
}

// NewSagaID returns a fresh random SagaID.
func NewSagaID() SagaID {
	return SagaID{UUID: uuid.New()}
}

// String returns the string representation of the SagaID.
func (s SagaID) String() string {
	return s.UUID.String()
}

// MarshalJSON encodes the SagaID as its string form.
func (s SagaID) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.UUID.String())
}

// SagaNodeEvent represents an entry in the saga log.
type SagaNodeEvent struct {
	SagaID    SagaID
	Index     int
	Step      StepName
	EventType SagaNodeEventType
	At        time.Time
}

// String implements the fmt.Stringer interface for SagaNodeEvent.
func (e *SagaNodeEvent) String() string {
	return fmt.Sprintf("N%03d %-12s %s", e.Index, e.Step, e.EventType.String())
}

// SagaNodeEventType defines the types of events that can occur for a saga node.
type SagaNodeEventType int

const (
	EventStarted SagaNodeEventType = iota
	EventSucceeded
	EventFailed
	EventUndoStarted
	EventUndoFinished
	EventUndoFailed
)

// String returns the string representation of the SagaNodeEventType.
func (s SagaNodeEventType) String() string {
	switch s {
	case EventStarted:
		return "started"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	case EventUndoStarted:
		return "undo_started"
	case EventUndoFinished:
		return "undo_finished"
	case EventUndoFailed:
		return "undo_failed"
	default:
		return fmt.Sprintf("Unknown SagaNodeEventType: %d", s)
	}
}

// SagaNodeLoadStatus represents the recorded status for a saga node.
type SagaNodeLoadStatus int

const (
	LoadNeverStarted SagaNodeLoadStatus = iota
	LoadStarted
	LoadSucceeded
	LoadFailed
	LoadUndoStarted
	LoadUndoFinished
	LoadUndoFailed
)

// nextStatus returns the new status for a node after recording the given event.
func (s SagaNodeLoadStatus) nextStatus(eventType SagaNodeEventType) (SagaNodeLoadStatus, error) {
	switch s {
	case LoadNeverStarted:
		if eventType == EventStarted {
			return LoadStarted, nil
		}
	case LoadStarted:
		switch eventType {
		case EventSucceeded:
			return LoadSucceeded, nil
		case EventFailed:
			return LoadFailed, nil
		}
	case LoadSucceeded:
		if eventType == EventUndoStarted {
			return LoadUndoStarted, nil
		}
	case LoadUndoStarted:
		switch eventType {
		case EventUndoFinished:
			return LoadUndoFinished, nil
		case EventUndoFailed:
			return LoadUndoFailed, nil
		}
	}

	return LoadNeverStarted, fmt.Errorf(
		"illegal event type %s for current load status %v",
		eventType, s,
	)
}

// SagaLog is the event log of one saga run.
type SagaLog struct {
	mu         sync.Mutex
	sagaID     SagaID
	unwinding  bool
	events     []*SagaNodeEvent
	nodeStatus map[int]SagaNodeLoadStatus
}

// NewEmptySagaLog creates a new, empty SagaLog.
func NewEmptySagaLog(sagaID SagaID) *SagaLog {
	return &SagaLog{
		sagaID:     sagaID,
		events:     make([]*SagaNodeEvent, 0),
		nodeStatus: make(map[int]SagaNodeLoadStatus),
	}
}

// Record adds an event to the SagaLog, rejecting events that are illegal
// for the node's current status.
func (l *SagaLog) Record(event *SagaNodeEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.SagaID != l.sagaID {
		return fmt.Errorf(
			"event for different saga (%s) than log (%s)",
			event.SagaID, l.sagaID,
		)
	}

	currentStatus := l.loadStatusForNode(event.Index)
	nextStatus, err := currentStatus.nextStatus(event.EventType)
	if err != nil {
		return fmt.Errorf("node %d (%s): %w", event.Index, event.Step, err)
	}

	switch nextStatus {
	case LoadFailed, LoadUndoStarted, LoadUndoFinished, LoadUndoFailed:
		l.unwinding = true
	}

	if event.At.IsZero() {
		event.At = time.Now()
	}
	l.nodeStatus[event.Index] = nextStatus
	l.events = append(l.events, event)
	return nil
}

// SagaID returns the ID of the saga this log belongs to.
func (l *SagaLog) SagaID() SagaID {
	return l.sagaID
}

// Unwinding returns true once the run has started failing or compensating.
func (l *SagaLog) Unwinding() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.unwinding
}

// StatusOf returns the recorded status for the node at index.
func (l *SagaLog) StatusOf(index int) SagaNodeLoadStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.loadStatusForNode(index)
}

// loadStatusForNode must be called with l.mu held.
func (l *SagaLog) loadStatusForNode(index int) SagaNodeLoadStatus {
	status, exists := l.nodeStatus[index]
	if !exists {
		return LoadNeverStarted
	}
	return status
}

// Events returns a copy of the events in the SagaLog.
func (l *SagaLog) Events() []*SagaNodeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]*SagaNodeEvent(nil), l.events...)
}

// SagaLogPretty is a helper for pretty-printing a SagaLog.
type SagaLogPretty struct {
	Log *SagaLog
}

// String implements the fmt.Stringer interface for SagaLogPretty.
func (p *SagaLogPretty) String() string {
	p.Log.mu.Lock()
	defer p.Log.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("SAGA LOG:\n")
	sb.WriteString(fmt.Sprintf("saga id:   %s\n", p.Log.sagaID))
	direction := "forward"
	if p.Log.unwinding {
		direction = "unwinding"
	}
	sb.WriteString(fmt.Sprintf("direction: %s\n", direction))
	sb.WriteString(fmt.Sprintf("events (%d total):\n", len(p.Log.events)))
	sb.WriteString("\n")
	for i, event := range p.Log.events {
		sb.WriteString(fmt.Sprintf("%03d %s\n", i+1, event.String()))
	}
	return sb.String()
}

// MarshalJSON implements the json.Marshaler interface for SagaNodeLoadStatus.
func (s SagaNodeLoadStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for SagaNodeLoadStatus.
func (s *SagaNodeLoadStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	switch str {
	case "NeverStarted":
		*s = LoadNeverStarted
	case "Started":
		*s = LoadStarted
	case "Succeeded":
		*s = LoadSucceeded
	case "Failed":
		*s = LoadFailed
	case "UndoStarted":
		*s = LoadUndoStarted
	case "UndoFinished":
		*s = LoadUndoFinished
	case "UndoFailed":
		*s = LoadUndoFailed
	default:
		return fmt.Errorf("invalid SagaNodeLoadStatus: %s", str)
	}

	return nil
}

// String returns the string representation of the SagaNodeLoadStatus.
func (s SagaNodeLoadStatus) String() string {
	switch s {
	case LoadNeverStarted:
		return "NeverStarted"
	case LoadStarted:
		return "Started"
	case LoadSucceeded:
		return "Succeeded"
	case LoadFailed:
		return "Failed"
	case LoadUndoStarted:
		return "UndoStarted"
	case LoadUndoFinished:
		return "UndoFinished"
	case LoadUndoFailed:
		return "UndoFailed"
	default:
		return fmt.Sprintf("Unknown SagaNodeLoadStatus: %d", s)
	}
}
