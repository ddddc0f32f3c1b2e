package model

import "time"

// Testimonial is a customer review shown on the landing page.
type Testimonial struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"userId,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TestimonialRequest is the public review form.
type TestimonialRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	Location string `json:"location"`
}
