package service

import (
	"context"
	"testing"

	"shikshaleap/internal/models"
	"shikshaleap/internal/repository"
	"shikshaleap/internal/validation"
)

func TestCompleteStudentRegistration(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	ctx := context.Background()

	pending := loginAs(t, auth, delivery, "reg@example.com")
	student, profile := registerStudent(t, db, pending, "21010100101", 8)
	if profile.Board != models.DefaultBoard || profile.ID == 0 {
		t.Errorf("profile = %+v, want default board and an ID", profile)
	}

	user, err := repository.NewUserRepository(db).GetUserByID(ctx, pending.UserID)
	if err != nil || user.Role != models.RoleStudent {
		t.Fatalf("user after registration = %+v, %v, want role student", user, err)
	}

	got, achievements, err := NewRegistrationService(db).StudentProfile(ctx, student)
	if err != nil {
		t.Fatalf("StudentProfile() error = %v", err)
	}
	if got.ID != profile.ID || len(achievements) != 0 {
		t.Errorf("StudentProfile() = %+v, %v", got, achievements)
	}
}

func TestRegistrationIsOneShot(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	svc := NewRegistrationService(db)
	ctx := context.Background()

	pending := loginAs(t, auth, delivery, "once@example.com")
	registerStudent(t, db, pending, "21010100101", 8)

	_, err := svc.CompleteStudentRegistration(ctx, pending, StudentRegistration{
		FirstName: "A", LastName: "B", DOB: "2012-01-01", Grade: 8, SchoolName: "S",
		District: "D", State: "Odisha", UdiseCode: "1", Medium: "Hindi",
	})
	assertErrorIs(t, err, ErrDuplicateProfile)

	_, err = svc.CompleteTeacherRegistration(ctx, pending, TeacherRegistration{
		FirstName: "A", LastName: "B", DOB: "1980-01-01", Qualification: "M.Sc", SchoolName: "S",
		District: "D", State: "Odisha", UdiseCode: "1", Medium: "Hindi",
	})
	assertErrorIs(t, err, ErrDuplicateProfile)
}

func TestRegistrationValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewRegistrationService(db)
	ctx := context.Background()
	p := models.Principal{UserID: 1, Role: models.RolePendingStudent}

	valid := StudentRegistration{
		FirstName: "Asha", LastName: "Das", DOB: "2012-05-10", Grade: 7, SchoolName: "School",
		District: "Khordha", State: "Odisha", UdiseCode: "21150200202", Medium: "Tamil",
	}

	tests := []struct {
		name  string
		edit  func(r *StudentRegistration)
		field string
	}{
		{"blank first name", func(r *StudentRegistration) { r.FirstName = "  " }, "first_name"},
		{"grade too low", func(r *StudentRegistration) { r.Grade = 5 }, "grade"},
		{"grade too high", func(r *StudentRegistration) { r.Grade = 13 }, "grade"},
		{"unknown medium", func(r *StudentRegistration) { r.Medium = "French" }, "medium"},
		{"missing udise", func(r *StudentRegistration) { r.UdiseCode = "" }, "udise_code"},
		{"bad dob", func(r *StudentRegistration) { r.DOB = "10/05/2012" }, "dob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.edit(&in)
			_, err := svc.CompleteStudentRegistration(ctx, p, in)
			verr, ok := validation.AsError(err)
			if !ok {
				t.Fatalf("error = %v, want validation error", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestProfileAccessByRole(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	svc := NewRegistrationService(db)
	ctx := context.Background()

	teacher := registerTeacher(t, db, loginAs(t, auth, delivery, "teach@example.com"), "21010100101")

	_, _, err := svc.StudentProfile(ctx, teacher)
	assertErrorIs(t, err, ErrForbidden)

	profile, err := svc.TeacherProfile(ctx, teacher)
	if err != nil || profile.Qualification != "B.Ed" {
		t.Errorf("TeacherProfile() = %+v, %v", profile, err)
	}

	// a student session whose profile is gone
	_, _, err = svc.StudentProfile(ctx, models.Principal{UserID: 999, Role: models.RoleStudent})
	assertErrorIs(t, err, ErrStudentNotFound)
}
