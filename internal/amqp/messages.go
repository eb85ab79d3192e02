package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DatasetReloadedMessage announces that an instance reloaded a dataset.
// Receivers drop their cached copy of Source.
type DatasetReloadedMessage struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Origin    string    `json:"origin"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDatasetReloadedMessage(source, origin string, rows int) *DatasetReloadedMessage {
	return &DatasetReloadedMessage{
		ID:        uuid.NewString(),
		Source:    source,
		Origin:    origin,
		Rows:      rows,
		Timestamp: time.Now().UTC(),
	}
}

func (m *DatasetReloadedMessage) Validate() error {
	if m.ID == "" {
		return errors.New("missing message id")
	}
	if m.Source == "" {
		return errors.New("missing source")
	}
	return nil
}

func (m *DatasetReloadedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetReloadedMessageFromJSON decodes and validates a message.
func DatasetReloadedMessageFromJSON(data []byte) (*DatasetReloadedMessage, error) {
	var msg DatasetReloadedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
