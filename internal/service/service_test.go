package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shikshaleap/internal/database"
	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/security"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// recordingDelivery remembers the last code sent to each contact
type recordingDelivery struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newRecordingDelivery() *recordingDelivery {
	return &recordingDelivery{codes: make(map[string]string)}
}

func (d *recordingDelivery) Deliver(ctx context.Context, contact models.Contact, code string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.codes[contact.Value] = code
	return nil
}

func (d *recordingDelivery) code(contact string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes[contact]
}

func newAuthService(db *database.DB, delivery OTPDelivery) *AuthService {
	return NewAuthService(db, delivery, security.NewKeyedMutex(), AuthOptions{OTPTTL: 10 * time.Minute}, logger.NewNop())
}

func mustContact(t *testing.T, s string) models.Contact {
	t.Helper()
	c, ok := models.ParseContact(s)
	if !ok {
		t.Fatalf("ParseContact(%q) failed", s)
	}
	return c
}

// loginAs verifies a fresh OTP for contact and returns the resulting principal
func loginAs(t *testing.T, auth *AuthService, delivery *recordingDelivery, contact string) models.Principal {
	t.Helper()
	ctx := context.Background()
	c := mustContact(t, contact)

	if _, err := auth.IssueOTP(ctx, c); err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}
	result, err := auth.VerifyOTP(ctx, c, delivery.code(contact))
	if err != nil {
		t.Fatalf("VerifyOTP() error = %v", err)
	}
	return models.Principal{UserID: result.UserID, Role: result.Role}
}

func registerStudent(t *testing.T, db *database.DB, p models.Principal, udise string, grade int) (models.Principal, *models.StudentProfile) {
	t.Helper()
	profile, err := NewRegistrationService(db).CompleteStudentRegistration(context.Background(), p, StudentRegistration{
		FirstName:  "Asha",
		LastName:   "Das",
		DOB:        "2012-05-10",
		Grade:      models.FlexInt(grade),
		SchoolName: "Govt High School",
		District:   "Baleshwar",
		State:      "Odisha",
		UdiseCode:  udise,
		Medium:     "Odia",
	})
	if err != nil {
		t.Fatalf("CompleteStudentRegistration() error = %v", err)
	}
	return models.Principal{UserID: p.UserID, Role: models.RoleStudent}, profile
}

func registerTeacher(t *testing.T, db *database.DB, p models.Principal, udise string) models.Principal {
	t.Helper()
	_, err := NewRegistrationService(db).CompleteTeacherRegistration(context.Background(), p, TeacherRegistration{
		FirstName:     "Ravi",
		LastName:      "Mohanty",
		DOB:           "1985-01-20",
		Qualification: "B.Ed",
		SchoolName:    "Govt High School",
		District:      "Baleshwar",
		State:         "Odisha",
		UdiseCode:     udise,
		Medium:        "English",
	})
	if err != nil {
		t.Fatalf("CompleteTeacherRegistration() error = %v", err)
	}
	return models.Principal{UserID: p.UserID, Role: models.RoleTeacher}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}
