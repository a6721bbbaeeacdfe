package domain

import "time"

// Material is course-material metadata. OwnerIdentifier is the uploading
// faculty member's employee ID — a denormalized string, not a reference —
// so ownership checks and cascade deletes match on it directly.
type Material struct {
	MaterialID       string    `json:"id"`
	Title            string    `json:"title"`
	Subject          string    `json:"subject"`
	Description      string    `json:"description,omitempty"`
	CourseCode       string    `json:"course_code,omitempty"`
	Tags             string    `json:"tags,omitempty"`
	OwnerIdentifier  string    `json:"employee_id"`
	ObjectKey        string    `json:"-"`
	OriginalFilename string    `json:"file_name"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

type CreateMaterialRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Subject     string `json:"subject" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	CourseCode  string `json:"course_code" validate:"omitempty,max=50"`
	Tags        string `json:"tags" validate:"omitempty,max=200"`
}
