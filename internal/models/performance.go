package models

import "time"

const (
	GameTypeGame = "game"
	GameTypeQuiz = "quiz"

	LevelEasy   = "easy"
	LevelMedium = "medium"
	LevelHard   = "hard"
)

// GameLogEntry is one recorded game or quiz attempt
type GameLogEntry struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Subject   string    `json:"subject"`
	Grade     int       `json:"grade"`
	GameID    string    `json:"game_id"`
	GameType  string    `json:"game_type"`
	Level     string    `json:"level"`
	Score     int       `json:"score"`
	MaxScore  int       `json:"max_score"`
	TimeSpent int       `json:"time_spent"`
	PlayedAt  time.Time `json:"played_at"`
	Synced    bool      `json:"synced"`
}

// Percentage returns the score as a percentage of max score, or false when max score is zero
func (g *GameLogEntry) Percentage() (float64, bool) {
	if g.MaxScore == 0 {
		return 0, false
	}
	return float64(g.Score) * 100.0 / float64(g.MaxScore), true
}

// IsPerfect reports a full-marks attempt
func (g *GameLogEntry) IsPerfect() bool {
	return g.MaxScore > 0 && g.Score >= g.MaxScore
}

// Achievement is a badge awarded to a student
type Achievement struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	BadgeName   string    `json:"badge_name"`
	BadgeType   string    `json:"badge_type"`
	Description string    `json:"description"`
	IconPath    string    `json:"icon_path"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// ProgressRecord tracks mastery of one topic
type ProgressRecord struct {
	StudentID      int64     `json:"student_id"`
	Subject        string    `json:"subject"`
	Grade          int       `json:"grade"`
	Topic          string    `json:"topic"`
	MasteryLevel   float64   `json:"mastery_level"`
	LastActivity   time.Time `json:"last_activity"`
	TotalTimeSpent int       `json:"total_time_spent"`
}

// SyncSummary counts the outcome of an offline upload
type SyncSummary struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}
