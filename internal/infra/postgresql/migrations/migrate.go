package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/viajora/leadnotify/internal/domain"
	"github.com/viajora/leadnotify/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_leads",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&domain.Lead{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads (created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_leads_source ON leads (source)`,
					`CREATE INDEX IF NOT EXISTS idx_leads_email ON leads (email)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&domain.Lead{})
			},
		},
		{
			ID: "000002_create_notification_outcomes",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.NotificationOutcomeModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_outcomes_settled_at ON notification_outcomes (settled_at)`,
					`CREATE INDEX IF NOT EXISTS idx_outcomes_provider_status ON notification_outcomes (provider, status)`,
					`CREATE INDEX IF NOT EXISTS idx_outcomes_template_id ON notification_outcomes (template_id)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.NotificationOutcomeModel{})
			},
		},
	})

	return m.Migrate()
}
