package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrPairNotAllowed = errors.New("sport is not offered at this venue")
	ErrDuplicateSlot  = errors.New("organizer already booked this slot")
)

// Repository is the transactional store shared by the catalog, the event
// lifecycle and the chat pipeline. It holds no state besides the handle.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}
