package database

import (
	"github.com/sandeepkv93/bearer-auth-api/internal/domain"

	"gorm.io/gorm"
)

func Models() []any {
	return []any{
		&domain.User{},
		&domain.AccessToken{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// MissingTables reports the model tables AutoMigrate would still create.
func MissingTables(db *gorm.DB) ([]string, error) {
	var missing []string
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, err
		}
		if !db.Migrator().HasTable(model) {
			missing = append(missing, stmt.Schema.Table)
		}
	}
	return missing, nil
}
