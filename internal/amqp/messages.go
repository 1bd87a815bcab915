package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"costmanager/internal/core"
)

// CostAddedType is the AMQP message type of CostAddedMessage.
const CostAddedType = "cost.added"

// CostAddedMessage announces a cost item that was appended to the ledger.
// It carries the full item so consumers never read back from the ledger.
type CostAddedMessage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userid"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Sum         float64   `json:"sum"`
	Date        time.Time `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCostAddedMessage wraps item with a fresh message id.
func NewCostAddedMessage(item core.CostItem) *CostAddedMessage {
	return &CostAddedMessage{
		ID:          uuid.NewString(),
		UserID:      item.UserID,
		Description: item.Description,
		Category:    item.Category,
		Sum:         item.Sum,
		Date:        item.Date.UTC(),
		Timestamp:   time.Now().UTC(),
	}
}

// Item converts the message back to a cost item.
func (m *CostAddedMessage) Item() core.CostItem {
	return core.CostItem{
		UserID:      m.UserID,
		Description: m.Description,
		Category:    m.Category,
		Sum:         m.Sum,
		Date:        m.Date,
	}
}

// ToJSON converts the message to JSON bytes
func (m *CostAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CostAddedMessageFromJSON decodes and sanity-checks a message body.
func CostAddedMessageFromJSON(data []byte) (*CostAddedMessage, error) {
	var msg CostAddedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("cost added message without id")
	}
	if err := msg.Item().Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
