package database

import (
	"sports-meetup/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Taipei municipal sports centers
var seedVenues = []models.Venue{
	{Name: "Zhongzheng", Latitude: 25.0385225, Longitude: 121.5167618},
	{Name: "Neihu", Latitude: 25.0781635, Longitude: 121.5746265},
	{Name: "Beitou", Latitude: 25.1164633, Longitude: 121.5098119},
	{Name: "Daan", Latitude: 25.0207438, Longitude: 121.5431821},
	{Name: "Datong", Latitude: 25.0653758, Longitude: 121.5136244},
	{Name: "Shilin", Latitude: 25.0894274, Longitude: 121.5189874},
	{Name: "Wanhua", Latitude: 25.0474624, Longitude: 121.5042924},
	{Name: "Wenshan", Latitude: 24.9970192, Longitude: 121.55688},
	{Name: "Xinyi", Latitude: 25.0317033, Longitude: 121.5641931},
	{Name: "Zhongshan", Latitude: 25.0548481, Longitude: 121.51877},
}

var seedPairs = map[models.Sport][]string{
	models.SportBadminton:   {"Zhongzheng", "Neihu", "Beitou", "Daan", "Datong", "Shilin", "Wanhua", "Wenshan", "Xinyi", "Zhongshan"},
	models.SportBasketball:  {"Zhongzheng", "Neihu", "Daan", "Datong", "Shilin", "Xinyi"},
	models.SportTableTennis: {"Zhongzheng", "Neihu", "Beitou", "Daan", "Datong", "Shilin", "Wanhua", "Wenshan", "Xinyi"},
	models.SportBilliards:   {"Neihu", "Beitou", "Daan", "Wenshan"},
	models.SportSquash:      {"Neihu", "Daan", "Xinyi"},
	models.SportGolf:        {"Wanhua"},
}

// Seed loads the venue catalog and allowed pairs when the catalog is empty
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Venue{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to count venues")
	}
	if count > 0 {
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		venues := make([]models.Venue, len(seedVenues))
		copy(venues, seedVenues)

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&venues).Error; err != nil {
			return errors.Wrap(err, "failed to seed venues")
		}

		var stored []models.Venue
		if err := tx.Find(&stored).Error; err != nil {
			return errors.Wrap(err, "failed to load seeded venues")
		}
		ids := make(map[string]uint, len(stored))
		for _, v := range stored {
			ids[v.Name] = v.ID
		}

		var pairs []models.AllowedPair
		for _, sport := range models.Sports {
			for _, name := range seedPairs[sport] {
				pairs = append(pairs, models.AllowedPair{Sport: sport, VenueID: ids[name]})
			}
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pairs).Error; err != nil {
			return errors.Wrap(err, "failed to seed allowed pairs")
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("venues", len(seedVenues)).Msg("Seeded venue catalog")
	return nil
}
