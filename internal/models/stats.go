package models

import "time"

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type PatientStats struct {
	DaysActive       int        `json:"days_active"`
	WellnessScore    int        `json:"wellness_score"`
	DoshaBalance     string     `json:"dosha_balance"`
	AvailableRecipes int        `json:"available_recipes"`
	TotalChats       int        `json:"total_chats"`
	CompletedModules int        `json:"completed_modules"`
	LastDietChart    *time.Time `json:"last_diet_chart"`
}

type DoctorStats struct {
	ActivePatients  int `json:"active_patients"`
	RecipesShared   int `json:"recipes_shared"`
	PostsThisMonth  int `json:"posts_this_month"`
	TotalPosts      int `json:"total_posts"`
	RecentActivity  int `json:"recent_activity"`
	TotalChats      int `json:"total_chats"`
	YearsExperience int `json:"years_experience"`
}

type DoctorPost struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
