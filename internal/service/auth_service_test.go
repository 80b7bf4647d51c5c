package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"shikshaleap/internal/credentials"
	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/repository"
)

func TestIssueThenVerifySucceedsOnce(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	ctx := context.Background()
	contact := mustContact(t, "student@example.com")

	otp, err := auth.IssueOTP(ctx, contact)
	if err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}
	code := delivery.code("student@example.com")
	if code != otp.Code || len(code) != 6 {
		t.Fatalf("delivered code %q, stored %q", code, otp.Code)
	}
	if !credentials.CheckOTPHash(otp.CodeHash, code) {
		t.Error("stored hash does not match the code")
	}

	if _, err := auth.VerifyOTP(ctx, contact, code); err != nil {
		t.Fatalf("first VerifyOTP() error = %v", err)
	}
	_, err = auth.VerifyOTP(ctx, contact, code)
	assertErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestVerifyRejectsExpiredCode(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	ctx := context.Background()
	contact := mustContact(t, "9876543210")

	issued := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issued }
	if _, err := auth.IssueOTP(ctx, contact); err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}

	auth.now = func() time.Time { return issued.Add(10 * time.Minute) }
	_, err := auth.VerifyOTP(ctx, contact, delivery.code("9876543210"))
	assertErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestVerifyRejectsUnknownContactAndWrongCode(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	ctx := context.Background()

	_, err := auth.VerifyOTP(ctx, mustContact(t, "never@example.com"), "123456")
	assertErrorIs(t, err, ErrInvalidOrExpiredCode)

	contact := mustContact(t, "a@example.com")
	if _, err := auth.IssueOTP(ctx, contact); err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}
	wrong := "000000"
	if delivery.code("a@example.com") == wrong {
		wrong = "111111"
	}
	_, err = auth.VerifyOTP(ctx, contact, wrong)
	assertErrorIs(t, err, ErrInvalidOrExpiredCode)

	_, err = auth.VerifyOTP(ctx, contact, "  ")
	assertErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestFirstLoginCreatesPendingStudent(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	ctx := context.Background()
	contact := mustContact(t, "newstudent@example.com")

	if _, err := auth.IssueOTP(ctx, contact); err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}
	first, err := auth.VerifyOTP(ctx, contact, delivery.code(contact.Value))
	if err != nil {
		t.Fatalf("VerifyOTP() error = %v", err)
	}
	if first.Existing || !first.NeedsRegistration || first.Role.Public() != "student" {
		t.Errorf("first verification = %+v, want new student needing registration", first)
	}
	if first.Redirect() != "/registration" {
		t.Errorf("Redirect() = %q, want /registration", first.Redirect())
	}

	if _, err := auth.IssueOTP(ctx, contact); err != nil {
		t.Fatalf("second IssueOTP() error = %v", err)
	}
	second, err := auth.VerifyOTP(ctx, contact, delivery.code(contact.Value))
	if err != nil {
		t.Fatalf("second VerifyOTP() error = %v", err)
	}
	if !second.Existing || second.UserID != first.UserID {
		t.Errorf("second verification = %+v, want existing user %d", second, first.UserID)
	}

	count, err := repository.NewUserRepository(db).CountUsers(ctx)
	if err != nil || count != 1 {
		t.Errorf("CountUsers() = %d, %v, want 1", count, err)
	}

	user, err := auth.CurrentUser(ctx, models.Principal{UserID: first.UserID})
	if err != nil || user.Email != "newstudent@example.com" || user.Mobile != "" {
		t.Errorf("CurrentUser() = %+v, %v", user, err)
	}
}

func TestRegisteredRolesRedirectToDashboards(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	ctx := context.Background()

	student := loginAs(t, auth, delivery, "s@example.com")
	registerStudent(t, db, student, "21010100101", 7)
	teacher := loginAs(t, auth, delivery, "t@example.com")
	registerTeacher(t, db, teacher, "21010100101")

	tests := []struct {
		contact  string
		redirect string
	}{
		{"s@example.com", "/student/dashboard"},
		{"t@example.com", "/teacher/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.contact, func(t *testing.T) {
			c := mustContact(t, tt.contact)
			if _, err := auth.IssueOTP(ctx, c); err != nil {
				t.Fatalf("IssueOTP() error = %v", err)
			}
			result, err := auth.VerifyOTP(ctx, c, delivery.code(tt.contact))
			if err != nil {
				t.Fatalf("VerifyOTP() error = %v", err)
			}
			if !result.Existing || result.NeedsRegistration || result.Redirect() != tt.redirect {
				t.Errorf("result = %+v redirect %q, want %q", result, result.Redirect(), tt.redirect)
			}
		})
	}
}

func TestConcurrentVerifyCreatesOneUser(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	ctx := context.Background()
	contact := mustContact(t, "race@example.com")

	if _, err := auth.IssueOTP(ctx, contact); err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}
	code := delivery.code(contact.Value)

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, rejected := 0, 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := auth.VerifyOTP(ctx, contact, code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInvalidOrExpiredCode):
				rejected++
			default:
				t.Errorf("VerifyOTP() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || rejected != attempts-1 {
		t.Errorf("successes = %d, rejected = %d, want 1 and %d", successes, rejected, attempts-1)
	}
	count, err := repository.NewUserRepository(db).CountUsers(ctx)
	if err != nil || count != 1 {
		t.Errorf("CountUsers() = %d, %v, want exactly 1", count, err)
	}
}

func TestConcurrentVerifyWithSeparateCodesCreatesOneUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	contact := mustContact(t, "twice@example.com")
	auth := newAuthService(db, newRecordingDelivery())

	var codes []string
	for i := 0; i < 2; i++ {
		otp, err := auth.IssueOTP(ctx, contact)
		if err != nil {
			t.Fatalf("IssueOTP() error = %v", err)
		}
		codes = append(codes, otp.Code)
	}
	if codes[0] == codes[1] {
		t.Skip("identical codes drawn")
	}

	var wg sync.WaitGroup
	ids := make([]int64, len(codes))
	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			result, err := auth.VerifyOTP(ctx, contact, code)
			if err != nil {
				t.Errorf("VerifyOTP() error = %v", err)
				return
			}
			ids[i] = result.UserID
		}(i, code)
	}
	wg.Wait()

	if ids[0] != ids[1] {
		t.Errorf("verifications resolved different users %d and %d", ids[0], ids[1])
	}
	count, err := repository.NewUserRepository(db).CountUsers(ctx)
	if err != nil || count != 1 {
		t.Errorf("CountUsers() = %d, %v, want exactly 1", count, err)
	}
}

func TestDeliveryFailureKeepsRecord(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	delivery.err = errors.New("gateway down")
	auth := newAuthService(db, delivery)
	ctx := context.Background()
	contact := mustContact(t, "9000000001")

	otp, err := auth.IssueOTP(ctx, contact)
	assertErrorIs(t, err, ErrDeliveryFailed)
	if otp == nil || otp.ID == 0 {
		t.Fatalf("IssueOTP() record = %+v, want persisted record", otp)
	}

	// the stored code still verifies
	if _, err := auth.VerifyOTP(ctx, contact, otp.Code); err != nil {
		t.Errorf("VerifyOTP() after failed delivery error = %v", err)
	}
}

func TestIssueOTPRateLimited(t *testing.T) {
	db := newTestDB(t)
	auth := newAuthService(db, newRecordingDelivery())
	auth.opts.SendLimit = 2
	auth.opts.SendWindow = 10 * time.Minute
	ctx := context.Background()
	contact := mustContact(t, "busy@example.com")

	start := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return start }
	for i := 0; i < 2; i++ {
		if _, err := auth.IssueOTP(ctx, contact); err != nil {
			t.Fatalf("IssueOTP() #%d error = %v", i, err)
		}
	}
	_, err := auth.IssueOTP(ctx, contact)
	assertErrorIs(t, err, ErrRateLimited)

	auth.now = func() time.Time { return start.Add(11 * time.Minute) }
	if _, err := auth.IssueOTP(ctx, contact); err != nil {
		t.Errorf("IssueOTP() after window error = %v", err)
	}
}

func TestPruneOTPs(t *testing.T) {
	db := newTestDB(t)
	auth := newAuthService(db, newRecordingDelivery())
	ctx := context.Background()

	issued := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issued }
	if _, err := auth.IssueOTP(ctx, mustContact(t, "old@example.com")); err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}
	auth.now = func() time.Time { return issued.Add(20 * time.Hour) }
	if _, err := auth.IssueOTP(ctx, mustContact(t, "new@example.com")); err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}

	auth.now = func() time.Time { return issued.Add(25 * time.Hour) }
	deleted, err := auth.PruneOTPs(ctx, 24*time.Hour)
	if err != nil || deleted != 1 {
		t.Errorf("PruneOTPs() = %d, %v, want 1", deleted, err)
	}
}

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestDeliveryRouter(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	t.Run("disabled email falls back", func(t *testing.T) {
		email, err := NewEmailService(ctx, "ap-south-1", "", "", false, log)
		if err != nil {
			t.Fatalf("NewEmailService() error = %v", err)
		}
		fallback := newRecordingDelivery()
		router := NewDeliveryRouter(email, fallback)
		if err := router.Deliver(ctx, mustContact(t, "a@example.com"), "123456", time.Minute); err != nil {
			t.Fatalf("Deliver() error = %v", err)
		}
		if fallback.code("a@example.com") != "123456" {
			t.Error("fallback did not receive the code")
		}
	})

	t.Run("email contacts use SES", func(t *testing.T) {
		ses := &fakeSES{}
		email := &EmailService{client: ses, fromEmail: "noreply@example.com", fromName: "Shiksha Leap", enabled: true, log: log}
		fallback := newRecordingDelivery()
		router := NewDeliveryRouter(email, fallback)

		if err := router.Deliver(ctx, mustContact(t, "b@example.com"), "654321", 10*time.Minute); err != nil {
			t.Fatalf("Deliver() error = %v", err)
		}
		if len(ses.inputs) != 1 || ses.inputs[0].Destination.ToAddresses[0] != "b@example.com" {
			t.Fatalf("SES inputs = %+v", ses.inputs)
		}
		if fallback.code("b@example.com") != "" {
			t.Error("email contact should not use the fallback")
		}

		// mobile numbers never go to SES
		if err := router.Deliver(ctx, mustContact(t, "9876543210"), "111222", time.Minute); err != nil {
			t.Fatalf("Deliver(mobile) error = %v", err)
		}
		if len(ses.inputs) != 1 || fallback.code("9876543210") != "111222" {
			t.Error("mobile contact should use the fallback")
		}
	})

	t.Run("SES errors propagate", func(t *testing.T) {
		ses := &fakeSES{err: errors.New("throttled")}
		email := &EmailService{client: ses, fromEmail: "noreply@example.com", enabled: true, log: log}
		router := NewDeliveryRouter(email, NewConsoleDelivery(log))
		if err := router.Deliver(ctx, mustContact(t, "c@example.com"), "123123", time.Minute); err == nil {
			t.Error("Deliver() should fail when SES fails")
		}
	})
}

func TestDisabledAccountCannotLogIn(t *testing.T) {
	db := newTestDB(t)
	delivery := newRecordingDelivery()
	auth := newAuthService(db, delivery)
	ctx := context.Background()
	contact := mustContact(t, "9437000001")

	p := loginAs(t, auth, delivery, "9437000001")

	if err := auth.SetAccountActive(ctx, contact, false); err != nil {
		t.Fatalf("SetAccountActive(false) error = %v", err)
	}

	_, err := auth.CurrentUser(ctx, p)
	assertErrorIs(t, err, ErrAccountDisabled)

	if _, err := auth.IssueOTP(ctx, contact); err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}
	_, err = auth.VerifyOTP(ctx, contact, delivery.code("9437000001"))
	assertErrorIs(t, err, ErrAccountDisabled)

	if err := auth.SetAccountActive(ctx, contact, true); err != nil {
		t.Fatalf("SetAccountActive(true) error = %v", err)
	}
	result, err := auth.VerifyOTP(ctx, contact, delivery.code("9437000001"))
	if err != nil {
		t.Fatalf("VerifyOTP() after re-enable error = %v", err)
	}
	if result.UserID != p.UserID || !result.Existing {
		t.Errorf("VerifyOTP() = %+v, want existing user %d", result, p.UserID)
	}
}

func TestSetAccountActiveUnknownContact(t *testing.T) {
	db := newTestDB(t)
	auth := newAuthService(db, newRecordingDelivery())

	err := auth.SetAccountActive(context.Background(), mustContact(t, "nobody@example.com"), false)
	assertErrorIs(t, err, ErrUserNotFound)
}
