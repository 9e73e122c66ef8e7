package models

import "time"

type PatientProfile struct {
	UserID             int64     `json:"user_id"`
	Name               *string   `json:"name"`
	Age                *int      `json:"age"`
	Gender             *string   `json:"gender"`
	ProfilePicURL      *string   `json:"profile_pic_url"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type DoctorProfile struct {
	UserID             int64     `json:"user_id"`
	Name               *string   `json:"name"`
	Specialization     *string   `json:"specialization"`
	ExperienceYears    *int      `json:"experience_years"`
	Degree             *string   `json:"degree"`
	Institution        *string   `json:"institution"`
	ProfilePicURL      *string   `json:"profile_pic_url"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type DoctorListing struct {
	UserID          int64   `json:"user_id"`
	Name            *string `json:"name"`
	Specialization  *string `json:"specialization"`
	ExperienceYears *int    `json:"experience_years"`
	Degree          *string `json:"degree"`
	Institution     *string `json:"institution"`
	ProfilePicURL   *string `json:"profile_pic_url"`
}
