package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// ProfileStorage implements interfaces.ProfileStorage (spec §4.5).
type ProfileStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

func NewProfileStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.ProfileStorage {
	return &ProfileStorage{db: db, logger: logger}
}

func (s *ProfileStorage) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT user_id, primary_title, secondary_title, seniority_level, work_preference,
			industries, technical_skills, soft_skills, preferred_keywords, writing_tone,
			ai_preferences, created_at, updated_at
		FROM user_profiles WHERE user_id = ?
	`, userID)

	var profile models.UserProfile
	var workPreference, industriesJSON, technicalJSON, softJSON, keywordsJSON string
	var createdAt, updatedAt int64

	err := row.Scan(&profile.UserID, &profile.PrimaryTitle, &profile.SecondaryTitle, &profile.SeniorityLevel,
		&workPreference, &industriesJSON, &technicalJSON, &softJSON, &keywordsJSON, &profile.WritingTone,
		&profile.AIPreferencesJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	profile.WorkPreference = models.RemoteType(workPreference)
	profile.CreatedAt = time.Unix(createdAt, 0).UTC()
	profile.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	_ = json.Unmarshal([]byte(industriesJSON), &profile.Industries)
	_ = json.Unmarshal([]byte(technicalJSON), &profile.TechnicalSkills)
	_ = json.Unmarshal([]byte(softJSON), &profile.SoftSkills)
	_ = json.Unmarshal([]byte(keywordsJSON), &profile.PreferredKeywords)

	return &profile, nil
}

// Upsert inserts or replaces a user's profile in full; the API layer owns
// partial-update semantics by reading-then-writing (spec §6).
func (s *ProfileStorage) Upsert(ctx context.Context, profile *models.UserProfile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	industries, _ := json.Marshal(profile.Industries)
	technical, _ := json.Marshal(profile.TechnicalSkills)
	soft, _ := json.Marshal(profile.SoftSkills)
	keywords, _ := json.Marshal(profile.PreferredKeywords)

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO user_profiles (
			user_id, primary_title, secondary_title, seniority_level, work_preference,
			industries, technical_skills, soft_skills, preferred_keywords, writing_tone,
			ai_preferences, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			primary_title = excluded.primary_title,
			secondary_title = excluded.secondary_title,
			seniority_level = excluded.seniority_level,
			work_preference = excluded.work_preference,
			industries = excluded.industries,
			technical_skills = excluded.technical_skills,
			soft_skills = excluded.soft_skills,
			preferred_keywords = excluded.preferred_keywords,
			writing_tone = excluded.writing_tone,
			ai_preferences = excluded.ai_preferences,
			updated_at = excluded.updated_at
	`, profile.UserID, profile.PrimaryTitle, profile.SecondaryTitle, profile.SeniorityLevel,
		string(profile.WorkPreference), string(industries), string(technical), string(soft), string(keywords),
		profile.WritingTone, profile.AIPreferencesJSON, profile.CreatedAt.Unix(), profile.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
