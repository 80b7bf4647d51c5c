package models

import "time"

// DashboardFilter narrows a teacher dashboard. Zero values mean no filter.
type DashboardFilter struct {
	Grade    int
	School   string
	District string
}

// StudentRollup summarizes one student's attempts
type StudentRollup struct {
	ID                int64      `json:"id"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Grade             int        `json:"grade"`
	SchoolName        string     `json:"school_name"`
	District          string     `json:"district"`
	TotalGames        int        `json:"total_games"`
	AveragePercentage *float64   `json:"avg_score"`
	LastActivity      *time.Time `json:"last_activity"`
}

// SubjectRollup summarizes attempts per subject across the dashboard population
type SubjectRollup struct {
	Subject           string   `json:"subject"`
	AveragePercentage *float64 `json:"avg_score"`
	TotalAttempts     int      `json:"total_attempts"`
}

// DashboardView is the data behind the teacher dashboard
type DashboardView struct {
	Teacher  *TeacherProfile `json:"teacher"`
	Students []StudentRollup `json:"students"`
	Subjects []SubjectRollup `json:"subject_performance"`
}
