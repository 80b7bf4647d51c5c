package service

import (
	"context"
	"strings"
	"time"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
	"shikshaleap/internal/repository"
	"shikshaleap/internal/validation"
)

const (
	minGrade = 6
	maxGrade = 12
)

// StudentRegistration is the profile submitted by a new student
type StudentRegistration struct {
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	DOB        string         `json:"dob"`
	Grade      models.FlexInt `json:"grade"`
	SchoolName string         `json:"school_name"`
	District   string         `json:"district"`
	State      string         `json:"state"`
	UdiseCode  string         `json:"udise_code"`
	Medium     string         `json:"medium"`
	Board      string         `json:"board"`
}

// TeacherRegistration is the profile submitted by a new teacher
type TeacherRegistration struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DOB            string `json:"dob"`
	Qualification  string `json:"qualification"`
	SchoolName     string `json:"school_name"`
	District       string `json:"district"`
	State          string `json:"state"`
	UdiseCode      string `json:"udise_code"`
	Medium         string `json:"medium"`
	SubjectsTaught string `json:"subjects_taught"`
	GradesTaught   string `json:"grades_taught"`
}

// Validate trims the fields and checks them
func (r *StudentRegistration) Validate() error {
	trim(&r.FirstName, &r.LastName, &r.DOB, &r.SchoolName, &r.District, &r.State, &r.UdiseCode, &r.Medium, &r.Board)
	return validation.First(
		validation.Required("first_name", r.FirstName),
		validation.Required("last_name", r.LastName),
		validation.Date("dob", r.DOB),
		validation.IntRange("grade", r.Grade.Int(), minGrade, maxGrade),
		validation.Required("school_name", r.SchoolName),
		validation.Required("district", r.District),
		validation.Required("state", r.State),
		validation.Required("udise_code", r.UdiseCode),
		validation.OneOf("medium", r.Medium, models.Mediums...),
	)
}

// Validate trims the fields and checks them
func (r *TeacherRegistration) Validate() error {
	trim(&r.FirstName, &r.LastName, &r.DOB, &r.Qualification, &r.SchoolName, &r.District, &r.State,
		&r.UdiseCode, &r.Medium, &r.SubjectsTaught, &r.GradesTaught)
	return validation.First(
		validation.Required("first_name", r.FirstName),
		validation.Required("last_name", r.LastName),
		validation.Date("dob", r.DOB),
		validation.Required("qualification", r.Qualification),
		validation.Required("school_name", r.SchoolName),
		validation.Required("district", r.District),
		validation.Required("state", r.State),
		validation.Required("udise_code", r.UdiseCode),
		validation.OneOf("medium", r.Medium, models.Mediums...),
	)
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// RegistrationService completes profiles for verified accounts
type RegistrationService struct {
	db              *database.DB
	userRepo        *repository.UserRepository
	studentRepo     *repository.StudentRepository
	teacherRepo     *repository.TeacherRepository
	achievementRepo *repository.AchievementRepository
	now             func() time.Time
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(db *database.DB) *RegistrationService {
	return &RegistrationService{
		db:              db,
		userRepo:        repository.NewUserRepository(db),
		studentRepo:     repository.NewStudentRepository(db),
		teacherRepo:     repository.NewTeacherRepository(db),
		achievementRepo: repository.NewAchievementRepository(db),
		now:             time.Now,
	}
}

// CompleteStudentRegistration stores the student profile and promotes the account to student
func (s *RegistrationService) CompleteStudentRegistration(ctx context.Context, p models.Principal, in StudentRegistration) (*models.StudentProfile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	board := in.Board
	if board == "" {
		board = models.DefaultBoard
	}

	now := s.now().UTC()
	profile := &models.StudentProfile{
		UserID:     p.UserID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		DOB:        in.DOB,
		Grade:      in.Grade.Int(),
		SchoolName: in.SchoolName,
		District:   in.District,
		State:      in.State,
		UdiseCode:  in.UdiseCode,
		Medium:     in.Medium,
		Board:      board,
		CreatedAt:  now,
	}

	err := s.complete(ctx, p, models.RoleStudent, now, func(tx *database.Tx) error {
		return s.studentRepo.WithTx(tx).CreateStudent(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// CompleteTeacherRegistration stores the teacher profile and promotes the account to teacher
func (s *RegistrationService) CompleteTeacherRegistration(ctx context.Context, p models.Principal, in TeacherRegistration) (*models.TeacherProfile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	profile := &models.TeacherProfile{
		UserID:         p.UserID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		DOB:            in.DOB,
		Qualification:  in.Qualification,
		SchoolName:     in.SchoolName,
		District:       in.District,
		State:          in.State,
		UdiseCode:      in.UdiseCode,
		Medium:         in.Medium,
		SubjectsTaught: in.SubjectsTaught,
		GradesTaught:   in.GradesTaught,
		CreatedAt:      now,
	}

	err := s.complete(ctx, p, models.RoleTeacher, now, func(tx *database.Tx) error {
		return s.teacherRepo.WithTx(tx).CreateTeacher(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// complete runs insertProfile and the role change in one transaction
func (s *RegistrationService) complete(ctx context.Context, p models.Principal, role models.Role, now time.Time, insertProfile func(tx *database.Tx) error) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.userRepo.WithTx(tx)

		user, err := users.GetUserByID(ctx, p.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUnauthenticated
		}
		if user.Role.Complete() {
			return ErrDuplicateProfile
		}

		if err := insertProfile(tx); err != nil {
			if tx.GetDialect().IsUniqueViolation(err) {
				return ErrDuplicateProfile
			}
			return err
		}

		updated, err := users.UpdateRole(ctx, user.ID, user.Role, role, now)
		if err != nil {
			return err
		}
		if !updated {
			return ErrDuplicateProfile
		}
		return nil
	})
}

// StudentProfile returns the caller's student profile and badges
func (s *RegistrationService) StudentProfile(ctx context.Context, p models.Principal) (*models.StudentProfile, []models.Achievement, error) {
	if p.Role != models.RoleStudent {
		return nil, nil, ErrForbidden
	}
	student, err := s.studentRepo.GetStudentByUserID(ctx, p.UserID)
	if err != nil {
		return nil, nil, err
	}
	if student == nil {
		return nil, nil, ErrStudentNotFound
	}
	achievements, err := s.achievementRepo.GetAchievementsByStudent(ctx, student.ID)
	if err != nil {
		return nil, nil, err
	}
	return student, achievements, nil
}

// TeacherProfile returns the caller's teacher profile
func (s *RegistrationService) TeacherProfile(ctx context.Context, p models.Principal) (*models.TeacherProfile, error) {
	if p.Role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	teacher, err := s.teacherRepo.GetTeacherByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, ErrTeacherNotFound
	}
	return teacher, nil
}
