package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// DocumentChangeMessage announces one committed document change. It carries
// identifiers only; consumers read current state from the store.
type DocumentChangeMessage struct {
	UserID     string    `json:"userId"`
	Collection string    `json:"collection"`
	DocumentID string    `json:"documentId"`
	Kind       string    `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewDocumentChangeMessage(userID, collection, documentID, kind string) *DocumentChangeMessage {
	return &DocumentChangeMessage{
		UserID:     userID,
		Collection: collection,
		DocumentID: documentID,
		Kind:       kind,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DocumentChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DocumentChangeMessageFromJSON parses and validates a message body.
func DocumentChangeMessageFromJSON(data []byte) (*DocumentChangeMessage, error) {
	var msg DocumentChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Collection == "" || msg.DocumentID == "" {
		return nil, errors.New("document change message without collection or document id")
	}
	return &msg, nil
}
