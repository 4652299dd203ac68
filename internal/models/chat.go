package models

import (
	"database/sql/driver"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ChatChannel is the chat room of an event and shares its id
type ChatChannel struct {
	EventID  uuid.UUID `gorm:"type:uuid;primaryKey;column:channel_id" json:"channel_id"`
	Event    *Event    `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name     string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	IsActive bool      `gorm:"not null" json:"is_active"`
}

func (ChatChannel) TableName() string {
	return "chat_channels"
}

// ChatMessage is one persisted chat line. Append-only.
type ChatMessage struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	ChannelID uuid.UUID    `gorm:"type:uuid;not null;index:idx_chat_messages_channel_ts,priority:1" json:"channel_id"`
	Channel   *ChatChannel `gorm:"foreignKey:ChannelID;references:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	SenderID  uuid.UUID    `gorm:"type:uuid;not null;column:uid" json:"sender"`
	Payload   ChatText     `gorm:"not null" json:"text"`
	Timestamp time.Time    `gorm:"not null;index:idx_chat_messages_channel_ts,priority:2" json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// ChatText is the raw JSON text of a message, jsonb on Postgres and TEXT
// elsewhere. sqlite's JSON declared type has numeric affinity and turns a bare
// number into an INTEGER or REAL.
type ChatText datatypes.JSON

func (ChatText) GormDataType() string {
	return "json"
}

func (ChatText) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

func (t ChatText) Value() (driver.Value, error) {
	return datatypes.JSON(t).Value()
}

// Scan also accepts numbers, which rows written under the old JSON column
// type come back as.
func (t *ChatText) Scan(value interface{}) error {
	switch v := value.(type) {
	case int64:
		value = strconv.FormatInt(v, 10)
	case float64:
		value = strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		value = strconv.FormatBool(v)
	}

	var j datatypes.JSON
	if err := j.Scan(value); err != nil {
		return errors.Wrap(err, "failed to scan chat text")
	}
	*t = ChatText(j)
	return nil
}

func (t ChatText) MarshalJSON() ([]byte, error) {
	return datatypes.JSON(t).MarshalJSON()
}

func (t *ChatText) UnmarshalJSON(b []byte) error {
	return (*datatypes.JSON)(t).UnmarshalJSON(b)
}
