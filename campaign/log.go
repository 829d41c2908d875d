package campaign

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventRecord is one user-visible outcome
type EventRecord struct {
	Text   string
	At     time.Time
	TxHash common.Hash
}

// EventLog is the append-only session history
type EventLog struct {
	records []EventRecord
}

// Append adds a record at the end of the log
func (l *EventLog) Append(r EventRecord) {
	l.records = append(l.records, r)
}

// Records returns a copy of the history, oldest first
func (l *EventLog) Records() []EventRecord {
	return append([]EventRecord(nil), l.records...)
}

func (l *EventLog) Len() int { return len(l.records) }

// Status is the single current outcome slot
type Status struct {
	Text string
	At   time.Time
}

// IsError is a presentation hint derived from the text
func (s Status) IsError() bool {
	return strings.HasPrefix(s.Text, "Error")
}
