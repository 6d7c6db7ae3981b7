// Package seed loads reference data and demo content into the database.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"nestling/internal/middleware"
	"nestling/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed reference.yml
var referenceYAML []byte

// Named is a lookup row identified by its name.
type Named struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// CityRow is a city entry in the reference file.
type CityRow struct {
	Name   string `yaml:"name"`
	Region string `yaml:"region"`
}

// ReferenceData is the parsed reference file.
type ReferenceData struct {
	UserTypes    []Named   `yaml:"user_types"`
	TypeArticles []Named   `yaml:"type_articles"`
	Tags         []Named   `yaml:"tags"`
	States       []Named   `yaml:"states"`
	Cities       []CityRow `yaml:"cities"`
}

// ParseReference decodes a reference document.
func ParseReference(raw []byte) (*ReferenceData, error) {
	var data ReferenceData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	for _, group := range [][]Named{data.UserTypes, data.TypeArticles, data.Tags, data.States} {
		for _, row := range group {
			if row.Name == "" {
				return nil, fmt.Errorf("parse reference data: row without a name")
			}
		}
	}
	return &data, nil
}

// DefaultReference returns the embedded reference data.
func DefaultReference() (*ReferenceData, error) {
	return ParseReference(referenceYAML)
}

// Reference inserts the embedded lookup rows that are missing.
func Reference(ctx context.Context, db *gorm.DB) error {
	data, err := DefaultReference()
	if err != nil {
		return err
	}
	return ApplyReference(ctx, db, data)
}

// ApplyReference inserts every row of data not already present by name. It
// never updates or removes existing rows.
func ApplyReference(ctx context.Context, db *gorm.DB, data *ReferenceData) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var created int
		for _, row := range data.UserTypes {
			n, err := ensure(tx, &models.TypeUser{}, "name = ?", []any{row.Name},
				&models.TypeUser{Name: row.Name, Description: row.Description})
			if err != nil {
				return fmt.Errorf("seed user type %q: %w", row.Name, err)
			}
			created += n
		}
		for _, row := range data.TypeArticles {
			n, err := ensure(tx, &models.TypeArticle{}, "name = ?", []any{row.Name},
				&models.TypeArticle{Name: row.Name, Description: row.Description})
			if err != nil {
				return fmt.Errorf("seed article type %q: %w", row.Name, err)
			}
			created += n
		}
		for _, row := range data.Tags {
			n, err := ensure(tx, &models.Tag{}, "name = ?", []any{row.Name},
				&models.Tag{Name: row.Name, Description: row.Description})
			if err != nil {
				return fmt.Errorf("seed tag %q: %w", row.Name, err)
			}
			created += n
		}
		for _, row := range data.States {
			n, err := ensure(tx, &models.StateEvent{}, "name = ?", []any{row.Name},
				&models.StateEvent{Name: row.Name, Description: row.Description})
			if err != nil {
				return fmt.Errorf("seed event state %q: %w", row.Name, err)
			}
			created += n
		}
		for _, row := range data.Cities {
			n, err := ensure(tx, &models.City{}, "name = ? AND region = ?", []any{row.Name, row.Region},
				&models.City{Name: row.Name, Region: row.Region})
			if err != nil {
				return fmt.Errorf("seed city %q: %w", row.Name, err)
			}
			created += n
		}

		middleware.Logger.InfoContext(ctx, "Reference data ensured", slog.Int("created", created))
		return nil
	})
}

// ensure creates row unless a record of model matching the condition exists.
func ensure(tx *gorm.DB, model any, cond string, args []any, row any) (int, error) {
	var count int64
	if err := tx.Model(model).Where(cond, args...).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	if err := tx.Create(row).Error; err != nil {
		return 0, err
	}
	return 1, nil
}
