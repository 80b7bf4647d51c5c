package models

import "time"

// Media of instruction accepted at registration
var Mediums = []string{"English", "Hindi", "Tamil", "Odia"}

// DefaultBoard is assigned to students registering without a board
const DefaultBoard = "SCERT"

// StudentProfile is the registered profile of a student account
type StudentProfile struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DOB        string    `json:"dob"`
	Grade      int       `json:"grade"`
	SchoolName string    `json:"school_name"`
	District   string    `json:"district"`
	State      string    `json:"state"`
	UdiseCode  string    `json:"udise_code"`
	Medium     string    `json:"medium"`
	Board      string    `json:"board"`
	CreatedAt  time.Time `json:"created_at"`
}

// TeacherProfile is the registered profile of a teacher account
type TeacherProfile struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DOB            string    `json:"dob"`
	Qualification  string    `json:"qualification"`
	SchoolName     string    `json:"school_name"`
	District       string    `json:"district"`
	State          string    `json:"state"`
	UdiseCode      string    `json:"udise_code"`
	Medium         string    `json:"medium"`
	SubjectsTaught string    `json:"subjects_taught,omitempty"`
	GradesTaught   string    `json:"grades_taught,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// School is an entry of the UDISE school directory
type School struct {
	UdiseCode  string `json:"udise_code"`
	SchoolName string `json:"school_name"`
	District   string `json:"district"`
	Block      string `json:"block"`
	Category   string `json:"category,omitempty"`
	Area       string `json:"area,omitempty"`
	Management string `json:"management,omitempty"`
}
