package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

const (
	activeDatasetKey    = "active_dataset"
	credentialKeyPrefix = "credential:"
)

// SettingsRepository is a flat key/value store over the local sqlite
// database. Missing keys read as empty, never as errors.
type SettingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSettingsRepository(db *sql.DB, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	query := squirrel.Select("value").
		From("settings").
		Where(squirrel.Eq{"key": key}).
		PlaceholderFormat(squirrel.Question)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return "", err
	}

	var value string
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := squirrel.Insert("settings").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
		PlaceholderFormat(squirrel.Question)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SettingsRepository) ActiveDataset(ctx context.Context) (string, error) {
	return r.Get(ctx, activeDatasetKey)
}

func (r *SettingsRepository) SetActiveDataset(ctx context.Context, id string) error {
	return r.Set(ctx, activeDatasetKey, id)
}

func (r *SettingsRepository) Credential(ctx context.Context, provider string) (string, error) {
	return r.Get(ctx, credentialKeyPrefix+provider)
}

func (r *SettingsRepository) SetCredential(ctx context.Context, provider, token string) error {
	return r.Set(ctx, credentialKeyPrefix+provider, token)
}
