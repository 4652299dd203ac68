package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"sports-meetup/internal/models"
	"sports-meetup/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// HistoryEntry is one message as returned by the history query
type HistoryEntry struct {
	Sender    uuid.UUID       `json:"sender"`
	Text      json.RawMessage `json:"text"`
	Timestamp time.Time       `json:"timestamp"`
}

// chatPayload is the only accepted wire shape: {"sender": "<uuid>", "text": <any>}
type chatPayload struct {
	Sender *string         `json:"sender"`
	Text   json.RawMessage `json:"text"`
}

type ChatService struct {
	repo      *repository.Repository
	namespace string
	now       func() time.Time
}

func NewChatService(repo *repository.Repository, namespace string) *ChatService {
	return &ChatService{
		repo:      repo,
		namespace: namespace,
		now:       time.Now,
	}
}

// SetClock replaces the time source used to stamp messages
func (s *ChatService) SetClock(now func() time.Time) {
	s.now = now
}

// Ingest decodes one bus message and stores it. Malformed input yields
// ErrMalformedTopic or ErrMalformedPayload; a message for a channel that does
// not exist yields ErrUnknownChannel.
func (s *ChatService) Ingest(ctx context.Context, topic string, payload []byte) (*models.ChatMessage, error) {
	channelID, err := ParseTopic(s.namespace, topic)
	if err != nil {
		return nil, err
	}

	sender, text, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ChannelID: channelID,
		SenderID:  sender,
		Payload:   models.ChatText(text),
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.CreateChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// GetHistory returns a channel's messages ordered by timestamp, oldest first.
// A positive limit keeps only the most recent messages.
func (s *ChatService) GetHistory(ctx context.Context, channelID uuid.UUID, limit int) ([]HistoryEntry, error) {
	messages, err := s.repo.GetChatHistory(ctx, channelID, limit)
	if err != nil {
		return nil, err
	}

	history := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		history = append(history, HistoryEntry{
			Sender:    m.SenderID,
			Text:      json.RawMessage(m.Payload),
			Timestamp: m.Timestamp,
		})
	}
	return history, nil
}

// ParseTopic extracts the channel id from "<namespace>/<uuid>"
func ParseTopic(namespace, topic string) (uuid.UUID, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 2 || parts[0] != namespace {
		return uuid.Nil, errors.Wrapf(ErrMalformedTopic, "topic %q", topic)
	}
	return parseCanonicalUUID(parts[1], ErrMalformedTopic)
}

// DecodePayload validates the wire shape strictly: a single JSON object with a
// UUID sender and a non-null text, nothing else.
func DecodePayload(payload []byte) (uuid.UUID, json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return uuid.Nil, nil, errors.Wrap(ErrMalformedPayload, "payload is not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var p chatPayload
	if err := dec.Decode(&p); err != nil {
		return uuid.Nil, nil, errors.Wrapf(ErrMalformedPayload, "decode: %v", err)
	}
	if dec.More() {
		return uuid.Nil, nil, errors.Wrap(ErrMalformedPayload, "trailing data after object")
	}

	if p.Sender == nil {
		return uuid.Nil, nil, errors.Wrap(ErrMalformedPayload, "missing sender")
	}
	if len(p.Text) == 0 || string(p.Text) == "null" {
		return uuid.Nil, nil, errors.Wrap(ErrMalformedPayload, "missing text")
	}

	sender, err := parseCanonicalUUID(*p.Sender, ErrMalformedPayload)
	if err != nil {
		return uuid.Nil, nil, err
	}

	return sender, p.Text, nil
}

func parseCanonicalUUID(s string, kind error) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil || id.String() != strings.ToLower(s) {
		return uuid.Nil, errors.Wrapf(kind, "%q is not a canonical UUID", s)
	}
	return id, nil
}
