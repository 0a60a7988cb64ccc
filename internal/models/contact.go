package models

import "time"

// ContactSubmission is a lead captured by the landing page form.
type ContactSubmission struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}
