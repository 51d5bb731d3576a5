package storage

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
	"github.com/cataloguebot/whatsapp-gate/internal/models"
)

// DatabaseStore keeps sessions in PostgreSQL through gorm.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a session store on an already migrated database.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// sessionColumns are every mutable column, written on each save.
var sessionColumns = []string{
	"search_enabled",
	"search_enabled_at",
	"muted_until",
	"hard_paused",
	"pause_forever",
	"paused_mode",
	"paused_at",
	"welcome_shown",
	"resume_sent_once",
	"resume_sent_at",
	"updated_at",
}

func (d *DatabaseStore) Get(ctx context.Context, identity string) (gate.Session, error) {
	var row models.WhatsAppSession
	err := d.db.WithContext(ctx).Where("phone_number = ?", identity).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gate.Session{}, ErrNotFound
	}
	if err != nil {
		return gate.Session{}, storeErr(errors.Wrap(err, "DatabaseStore.Get"))
	}
	return fromModel(row), nil
}

func (d *DatabaseStore) GetOrCreate(ctx context.Context, identity string) (gate.Session, error) {
	db := d.db.WithContext(ctx)

	var row models.WhatsAppSession
	err := db.Where("phone_number = ?", identity).First(&row).Error
	if err == nil {
		return fromModel(row), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return gate.Session{}, storeErr(errors.Wrap(err, "DatabaseStore.GetOrCreate.First"))
	}

	// A concurrent first contact may insert the same number; keep whichever row won.
	row = toModel(gate.NewSession(identity))
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return gate.Session{}, storeErr(errors.Wrap(err, "DatabaseStore.GetOrCreate.Create"))
	}
	if err := db.Where("phone_number = ?", identity).First(&row).Error; err != nil {
		return gate.Session{}, storeErr(errors.Wrap(err, "DatabaseStore.GetOrCreate.Reload"))
	}
	return fromModel(row), nil
}

func (d *DatabaseStore) Save(ctx context.Context, s gate.Session) error {
	row := toModel(s)
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone_number"}},
			DoUpdates: clause.AssignmentColumns(sessionColumns),
		}).
		Create(&row).Error
	if err != nil {
		return storeErr(errors.Wrap(err, "DatabaseStore.Save.Upsert"))
	}
	return nil
}

func (d *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return storeErr(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}

func toModel(s gate.Session) models.WhatsAppSession {
	return models.WhatsAppSession{
		PhoneNumber:     s.Identity,
		SearchEnabled:   s.SearchEnabled,
		SearchEnabledAt: copyTime(s.SearchEnabledAt),
		MutedUntil:      copyTime(s.MutedUntil),
		HardPaused:      s.HardPaused,
		PauseForever:    s.PauseForever,
		PausedMode:      s.PausedMode,
		PausedAt:        copyTime(s.PausedAt),
		WelcomeShown:    s.WelcomeShown,
		ResumeSentOnce:  s.ResumeSentOnce,
		ResumeSentAt:    copyTime(s.ResumeSentAt),
	}
}

func fromModel(m models.WhatsAppSession) gate.Session {
	return gate.Session{
		Identity:        m.PhoneNumber,
		SearchEnabled:   m.SearchEnabled,
		SearchEnabledAt: copyTime(m.SearchEnabledAt),
		MutedUntil:      copyTime(m.MutedUntil),
		HardPaused:      m.HardPaused,
		PauseForever:    m.PauseForever,
		PausedMode:      m.PausedMode,
		PausedAt:        copyTime(m.PausedAt),
		WelcomeShown:    m.WelcomeShown,
		ResumeSentOnce:  m.ResumeSentOnce,
		ResumeSentAt:    copyTime(m.ResumeSentAt),
	}
}
