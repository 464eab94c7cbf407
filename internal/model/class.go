package model

import "time"

// Class represents a teacher's classroom. Students enroll with the join code.
type Class struct {
	ID        int       `json:"id"`
	TeacherID int       `json:"teacherId"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"joinCode"`
	CreatedAt time.Time `json:"createdAt"`
}

// Enrollment links a student to a class.
type Enrollment struct {
	ClassID    int       `json:"classId"`
	StudentID  int       `json:"studentId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// CreateClassRequest is the payload for creating or renaming a class.
type CreateClassRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// JoinClassRequest is the payload for a student enrolling with a join code.
type JoinClassRequest struct {
	Code string `json:"code" binding:"required,min=4,max=20"`
}
