package database

import "nestling/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// ordered so that referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.TypeUser{},
		&models.TypeArticle{},
		&models.Tag{},
		&models.City{},
		&models.StateEvent{},
		&models.User{},
		&models.Article{},
		&models.Comment{},
		&models.Like{},
		&models.Event{},
		&models.Registration{},
		&models.PregnancyCalendar{},
	}
}
