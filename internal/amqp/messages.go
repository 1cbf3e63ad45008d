package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"smartfinances/internal/core"
)

// messageVersion is bumped when the payload shape changes, so a worker can
// reject requests published by an incompatible server build.
const messageVersion = 1

// RefreshRequestMessage asks a worker to run one refresh. Scope selects the
// pipelines; RequestedBy records what triggered the run.
type RefreshRequestMessage struct {
	Scope       string    `json:"scope"`
	RequestedBy string    `json:"requested_by"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func NewRefreshRequestMessage(scope core.RefreshScope, requestedBy string) *RefreshRequestMessage {
	return &RefreshRequestMessage{
		Scope:       scope.String(),
		RequestedBy: requestedBy,
		Timestamp:   time.Now().UTC(),
		Version:     messageVersion,
	}
}

// RefreshScope returns the validated scope the message carries.
func (m *RefreshRequestMessage) RefreshScope() (core.RefreshScope, error) {
	return core.ParseRefreshScope(m.Scope)
}

func (m *RefreshRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRequestMessageFromJSON decodes and validates a request payload.
// A message carrying a scope no pipeline answers to is rejected here,
// before it costs a delivery retry.
func RefreshRequestMessageFromJSON(data []byte) (*RefreshRequestMessage, error) {
	var msg RefreshRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := msg.RefreshScope(); err != nil {
		return nil, fmt.Errorf("refresh request: %w", err)
	}
	return &msg, nil
}
