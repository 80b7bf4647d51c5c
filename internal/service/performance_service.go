package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shikshaleap/internal/database"
	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/repository"
	"shikshaleap/internal/validation"
)

// quizMasterThreshold is the number of quizzes that earns the quiz badge
const quizMasterThreshold = 10

// milestone badges, each awarded at most once per student
var (
	badgeFirstSteps = models.Achievement{
		BadgeName:   "First Steps",
		BadgeType:   "milestone",
		Description: "Completed your first activity",
		IconPath:    "/static/badges/first-steps.svg",
	}
	badgePerfectScore = models.Achievement{
		BadgeName:   "Perfect Score",
		BadgeType:   "performance",
		Description: "Scored full marks in an activity",
		IconPath:    "/static/badges/perfect-score.svg",
	}
	badgeQuizMaster = models.Achievement{
		BadgeName:   "Quiz Master",
		BadgeType:   "milestone",
		Description: "Completed ten quizzes",
		IconPath:    "/static/badges/quiz-master.svg",
	}
)

// AttemptInput is one game or quiz attempt as sent by the client
type AttemptInput struct {
	Subject   string          `json:"subject"`
	Grade     *models.FlexInt `json:"grade"`
	GameID    string          `json:"game_id"`
	GameType  string          `json:"game_type"`
	Level     string          `json:"level"`
	Score     *models.FlexInt `json:"score"`
	MaxScore  *models.FlexInt `json:"max_score"`
	TimeSpent models.FlexInt  `json:"time_spent"`
	Topic     string          `json:"topic"`
	PlayedAt  string          `json:"played_at"`
}

// toEntry validates the attempt and fills defaults. Absent played_at means now.
func (in AttemptInput) toEntry(studentID int64, now time.Time) (*models.GameLogEntry, error) {
	subject := strings.TrimSpace(in.Subject)
	gameID := strings.TrimSpace(in.GameID)

	gameType := strings.ToLower(strings.TrimSpace(in.GameType))
	if gameType == "" {
		gameType = models.GameTypeGame
	}
	level := strings.ToLower(strings.TrimSpace(in.Level))
	if level == "" {
		level = models.LevelMedium
	}

	err := validation.First(
		validation.Required("subject", subject),
		validation.Required("game_id", gameID),
		requiredInt("grade", in.Grade),
		requiredInt("score", in.Score),
		requiredInt("max_score", in.MaxScore),
		validation.OneOf("game_type", gameType, models.GameTypeGame, models.GameTypeQuiz),
		validation.OneOf("level", level, models.LevelEasy, models.LevelMedium, models.LevelHard),
	)
	if err != nil {
		return nil, err
	}
	err = validation.First(
		validation.IntRange("grade", in.Grade.Int(), minGrade, maxGrade),
		validation.NonNegative("score", in.Score.Int()),
		validation.NonNegative("max_score", in.MaxScore.Int()),
		validation.NonNegative("time_spent", in.TimeSpent.Int()),
	)
	if err != nil {
		return nil, err
	}

	playedAt := now
	if ts := strings.TrimSpace(in.PlayedAt); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, &validation.Error{Field: "played_at", Message: "played_at must be an RFC3339 timestamp"}
		}
		playedAt = parsed.UTC()
	}

	return &models.GameLogEntry{
		StudentID: studentID,
		Subject:   subject,
		Grade:     in.Grade.Int(),
		GameID:    gameID,
		GameType:  gameType,
		Level:     level,
		Score:     in.Score.Int(),
		MaxScore:  in.MaxScore.Int(),
		TimeSpent: in.TimeSpent.Int(),
		PlayedAt:  playedAt,
		Synced:    true,
	}, nil
}

func requiredInt(field string, v *models.FlexInt) error {
	if v == nil {
		return &validation.Error{Field: field, Message: field + " is required"}
	}
	return nil
}

// PerformanceService records student attempts
type PerformanceService struct {
	db              *database.DB
	studentRepo     *repository.StudentRepository
	gameLogRepo     *repository.GameLogRepository
	progressRepo    *repository.ProgressRepository
	achievementRepo *repository.AchievementRepository
	log             *logger.Logger
	now             func() time.Time
}

// NewPerformanceService creates a new performance service
func NewPerformanceService(db *database.DB, log *logger.Logger) *PerformanceService {
	return &PerformanceService{
		db:              db,
		studentRepo:     repository.NewStudentRepository(db),
		gameLogRepo:     repository.NewGameLogRepository(db),
		progressRepo:    repository.NewProgressRepository(db),
		achievementRepo: repository.NewAchievementRepository(db),
		log:             log,
		now:             time.Now,
	}
}

// requireStudent resolves the student profile of a student principal
func (s *PerformanceService) requireStudent(ctx context.Context, p models.Principal) (*models.StudentProfile, error) {
	if p.Role != models.RoleStudent {
		return nil, ErrForbidden
	}
	student, err := s.studentRepo.GetStudentByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

// RecordAttempt logs one attempt and returns it with any badges it earned
func (s *PerformanceService) RecordAttempt(ctx context.Context, p models.Principal, in AttemptInput) (*models.GameLogEntry, []models.Achievement, error) {
	student, err := s.requireStudent(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	entry, err := in.toEntry(student.ID, s.now().UTC())
	if err != nil {
		return nil, nil, err
	}

	awarded, err := s.record(ctx, entry, in.Topic)
	if err != nil {
		return nil, nil, err
	}
	return entry, awarded, nil
}

// SyncOffline stores attempts queued while the client was offline. Each entry
// is stored on its own; malformed entries and failed inserts are counted, not returned.
func (s *PerformanceService) SyncOffline(ctx context.Context, p models.Principal, logs []json.RawMessage) (models.SyncSummary, error) {
	var summary models.SyncSummary

	student, err := s.requireStudent(ctx, p)
	if err != nil {
		return summary, err
	}

	for i, raw := range logs {
		var in AttemptInput
		if err := json.Unmarshal(raw, &in); err != nil {
			s.log.Warn("skipping malformed offline log", "student_id", student.ID, "index", i, "error", err)
			summary.Failed++
			continue
		}

		entry, err := in.toEntry(student.ID, s.now().UTC())
		if err != nil {
			s.log.Warn("skipping invalid offline log", "student_id", student.ID, "index", i, "error", err)
			summary.Failed++
			continue
		}

		if _, err := s.record(ctx, entry, in.Topic); err != nil {
			s.log.Error("failed to sync offline log", "student_id", student.ID, "index", i, "error", err)
			summary.Failed++
			continue
		}
		summary.Synced++
	}

	return summary, nil
}

// record stores the entry, folds it into progress and awards badges in one transaction
func (s *PerformanceService) record(ctx context.Context, entry *models.GameLogEntry, topic string) ([]models.Achievement, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = entry.GameID
	}

	var awarded []models.Achievement
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := s.gameLogRepo.WithTx(tx).CreateGameLog(ctx, entry); err != nil {
			return err
		}

		mastery, _ := entry.Percentage()
		mastery = clamp(mastery/100, 0, 1)
		err := s.progressRepo.WithTx(tx).UpsertProgress(ctx, models.ProgressRecord{
			StudentID:      entry.StudentID,
			Subject:        entry.Subject,
			Grade:          entry.Grade,
			Topic:          topic,
			MasteryLevel:   mastery,
			LastActivity:   entry.PlayedAt,
			TotalTimeSpent: entry.TimeSpent,
		})
		if err != nil {
			return err
		}

		awarded, err = s.awardMilestones(ctx, tx, entry)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}
	return awarded, nil
}

func (s *PerformanceService) awardMilestones(ctx context.Context, tx *database.Tx, entry *models.GameLogEntry) ([]models.Achievement, error) {
	candidates := []models.Achievement{badgeFirstSteps}
	if entry.IsPerfect() {
		candidates = append(candidates, badgePerfectScore)
	}
	if entry.GameType == models.GameTypeQuiz {
		quizzes, err := s.gameLogRepo.WithTx(tx).CountGameLogs(ctx, entry.StudentID, models.GameTypeQuiz)
		if err != nil {
			return nil, err
		}
		if quizzes >= quizMasterThreshold {
			candidates = append(candidates, badgeQuizMaster)
		}
	}

	achievements := s.achievementRepo.WithTx(tx)
	var awarded []models.Achievement
	for _, badge := range candidates {
		has, err := achievements.HasAchievement(ctx, entry.StudentID, badge.BadgeName)
		if err != nil {
			return nil, err
		}
		if has {
			continue
		}
		badge.StudentID = entry.StudentID
		badge.AwardedAt = s.now().UTC()
		if err := achievements.CreateAchievement(ctx, &badge); err != nil {
			return nil, err
		}
		awarded = append(awarded, badge)
	}
	return awarded, nil
}

// RecentActivity returns the student's latest attempts with topic progress
func (s *PerformanceService) RecentActivity(ctx context.Context, p models.Principal, limit int) ([]models.GameLogEntry, []models.ProgressRecord, error) {
	student, err := s.requireStudent(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.gameLogRepo.GetRecentGameLogs(ctx, student.ID, limit)
	if err != nil {
		return nil, nil, err
	}
	progress, err := s.progressRepo.GetProgressByStudent(ctx, student.ID)
	if err != nil {
		return nil, nil, err
	}
	return logs, progress, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
