package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"karma_server/database"
	"karma_server/lib"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/uptrace/bun"
)

// DefaultDescription is stored when the settings row is first created
const DefaultDescription = "✨ Ночник ручной работы ✨\n\n" +
	"Стандарт: акриловая пластина на пластиковой подставке, 7 цветов и пульт ДУ.\n" +
	"Премиум: деревянная подставка, 12 цветов и управление из приложения.\n" +
	"Настенные панели: стальной фиксатор и акриловая пластина большого размера."

// SettingsService manages the single settings row
type SettingsService struct {
	logger *gecho.Logger
	db     *database.DB
}

func NewSettingsService(logger *gecho.Logger, db *database.DB) *SettingsService {
	return &SettingsService{
		logger: logger,
		db:     db,
	}
}

// Get returns the settings, creating them with the default description if absent
func (ss *SettingsService) Get(ctx context.Context) (*tables.Settings, error) {
	return ss.getOrCreate(ctx, ss.db)
}

func (ss *SettingsService) getOrCreate(ctx context.Context, db bun.IDB) (*tables.Settings, error) {
	settings, err := database.Query[tables.Settings](db).Where("id", tables.SettingsID).First(ctx)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	settings = &tables.Settings{
		ID:              tables.SettingsID,
		DescriptionText: DefaultDescription,
		UpdatedAt:       time.Now(),
	}
	if _, err := database.Query[tables.Settings](db).InsertMany(ctx, []tables.Settings{*settings}, "CONFLICT (id) DO NOTHING"); err != nil {
		return nil, err
	}

	ss.logger.Info("Settings initialized with default description")
	return database.FindByID[tables.Settings](ctx, db, tables.SettingsID)
}

func (ss *SettingsService) update(ctx context.Context, data map[string]any) (*tables.Settings, error) {
	data["updated_at"] = time.Now()

	var settings *tables.Settings
	err := database.Transaction(ctx, ss.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := ss.getOrCreate(ctx, tx); err != nil {
			return err
		}
		if err := database.UpdateByID[tables.Settings](ctx, tx, tables.SettingsID, data); err != nil {
			return err
		}
		var err error
		settings, err = database.FindByID[tables.Settings](ctx, tx, tables.SettingsID)
		return err
	})
	return settings, err
}

// UpdateText replaces the shared product description
func (ss *SettingsService) UpdateText(ctx context.Context, text string) (*tables.Settings, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: description must not be empty", lib.ErrValidation)
	}
	return ss.update(ctx, map[string]any{"description_text": text})
}

func (ss *SettingsService) SetPhoto(ctx context.Context, photoRef string) (*tables.Settings, error) {
	return ss.update(ctx, map[string]any{"photo_ref": strings.TrimSpace(photoRef)})
}

func (ss *SettingsService) SetVideo(ctx context.Context, videoRef string) (*tables.Settings, error) {
	return ss.update(ctx, map[string]any{"video_ref": strings.TrimSpace(videoRef)})
}

// ClearMedia removes both the photo and the video
func (ss *SettingsService) ClearMedia(ctx context.Context) (*tables.Settings, error) {
	return ss.update(ctx, map[string]any{"photo_ref": "", "video_ref": ""})
}
