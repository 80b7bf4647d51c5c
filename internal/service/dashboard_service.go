package service

import (
	"context"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
	"shikshaleap/internal/repository"
)

// DashboardService builds teacher dashboards
type DashboardService struct {
	teacherRepo   *repository.TeacherRepository
	dashboardRepo *repository.DashboardRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *database.DB) *DashboardService {
	return &DashboardService{
		teacherRepo:   repository.NewTeacherRepository(db),
		dashboardRepo: repository.NewDashboardRepository(db),
	}
}

// DashboardFor summarizes the students sharing the teacher's UDISE code
func (s *DashboardService) DashboardFor(ctx context.Context, p models.Principal, filter models.DashboardFilter) (*models.DashboardView, error) {
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

	students, err := s.dashboardRepo.GetStudentRollups(ctx, teacher.UdiseCode, filter)
	if err != nil {
		return nil, err
	}
	subjects, err := s.dashboardRepo.GetSubjectRollups(ctx, teacher.UdiseCode, filter)
	if err != nil {
		return nil, err
	}

	return &models.DashboardView{
		Teacher:  teacher,
		Students: students,
		Subjects: subjects,
	}, nil
}
