package models

type Sport string

const (
	SportBadminton   Sport = "badminton"
	SportBasketball  Sport = "basketball"
	SportTableTennis Sport = "table_tennis"
	SportBilliards   Sport = "billiards"
	SportSquash      Sport = "squash"
	SportGolf        Sport = "golf"
)

// Sports lists every value of the sport_type enum in declaration order
var Sports = []Sport{
	SportBadminton,
	SportBasketball,
	SportTableTennis,
	SportBilliards,
	SportSquash,
	SportGolf,
}

// Valid reports whether s is a member of the sport_type enum
func (s Sport) Valid() bool {
	for _, sport := range Sports {
		if s == sport {
			return true
		}
	}
	return false
}

// Venue is a sports center. Rows are loaded by the seed and never mutated.
type Venue struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
}

func (Venue) TableName() string {
	return "venues"
}

// AllowedPair whitelists a sport at a venue
type AllowedPair struct {
	Sport   Sport  `gorm:"type:sport_type;primaryKey" json:"sport"`
	VenueID uint   `gorm:"primaryKey" json:"venue_id"`
	Venue   *Venue `gorm:"foreignKey:VenueID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"venue,omitempty"`
}

func (AllowedPair) TableName() string {
	return "allowed_pairs"
}
