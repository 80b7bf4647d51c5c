package handlers

import (
	"net/http"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/security"
	"shikshaleap/internal/service"
)

// Services bundles what the HTTP layer needs
type Services struct {
	Auth         *service.AuthService
	Registration *service.RegistrationService
	Performance  *service.PerformanceService
	Dashboard    *service.DashboardService
	Schools      *service.SchoolService
	Sessions     *security.SessionManager
	Limiter      *security.RateLimiter
}

// NewRouter registers every route and wraps the mux with request logging
func NewRouter(svc Services, log *logger.Logger) http.Handler {
	middleware := NewMiddleware(svc.Sessions, svc.Auth, svc.Limiter, log)

	authHandler := NewAuthHandler(svc.Auth, svc.Sessions, log)
	registrationHandler := NewRegistrationHandler(svc.Registration, svc.Sessions, log)
	performanceHandler := NewPerformanceHandler(svc.Performance, log)
	dashboardHandler := NewDashboardHandler(svc.Dashboard, log)
	schoolHandler := NewSchoolHandler(svc.Schools, log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Login
	mux.HandleFunc("POST /api/send-otp", middleware.RateLimit(authHandler.SendOTP))
	mux.HandleFunc("POST /api/verify-otp", middleware.RateLimit(authHandler.VerifyOTP))
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))

	// School directory
	mux.HandleFunc("GET /api/school-info/{code}", schoolHandler.SchoolInfo)
	mux.HandleFunc("GET /api/school-search", schoolHandler.SearchSchools)

	// Registration
	mux.HandleFunc("POST /api/register-student", middleware.RequireAuth(registrationHandler.RegisterStudent))
	mux.HandleFunc("POST /api/register-teacher", middleware.RequireAuth(registrationHandler.RegisterTeacher))

	// Student routes
	mux.HandleFunc("GET /api/student/profile", middleware.RequireRole(models.RoleStudent, registrationHandler.StudentProfile))
	mux.HandleFunc("GET /api/student/activity", middleware.RequireRole(models.RoleStudent, performanceHandler.Activity))
	mux.HandleFunc("POST /api/game-log", middleware.RequireRole(models.RoleStudent, performanceHandler.LogGame))
	mux.HandleFunc("POST /api/sync-offline-data", middleware.RequireRole(models.RoleStudent, performanceHandler.SyncOffline))

	// Teacher routes
	mux.HandleFunc("GET /api/teacher/profile", middleware.RequireRole(models.RoleTeacher, registrationHandler.TeacherProfile))
	mux.HandleFunc("GET /api/teacher/dashboard-data", middleware.RequireRole(models.RoleTeacher, dashboardHandler.DashboardData))

	return Logging(log, mux)
}
