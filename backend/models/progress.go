package models

import "time"

// ProgressEntry is the single-row playback state for a (user, file) pair.
// Every checkpoint fully overwrites it; last write wins. A max(seconds) merge
// is deliberately not applied, rewinding to rewatch is a legitimate
// transition.
type ProgressEntry struct {
	ID                 uint    `gorm:"primaryKey" json:"-"`
	UserID             string  `gorm:"size:128;index:idx_progress_user_file,unique;not null" json:"user_id"`
	FileID             string  `gorm:"size:128;index:idx_progress_user_file,unique;not null" json:"file_id"`
	LessonID           string  `gorm:"size:128;index" json:"lesson_id"`
	CourseID           string  `gorm:"size:128;index" json:"course_id"`
	ProgressSeconds    int     `gorm:"default:0" json:"progress_seconds"`
	ProgressPercentage float64 `gorm:"default:0" json:"progress_percentage"`
	Completed          bool    `gorm:"default:false" json:"completed"`
	LastWatched        time.Time `json:"last_watched"`
	CreatedAt          time.Time `json:"-"`
	UpdatedAt          time.Time `json:"-"`
}

// LessonProgress is a recomputed aggregate, never incrementally patched.
// ProgressPercentage here is count-based (completed_files / total_files),
// unlike the time-based file-level percentage. The mismatch is intentional
// and mirrors what players already display.
type LessonProgress struct {
	ID                 uint    `gorm:"primaryKey" json:"-"`
	UserID             string  `gorm:"size:128;index:idx_lesson_progress_user,unique;not null" json:"user_id"`
	LessonID           string  `gorm:"size:128;index:idx_lesson_progress_user,unique;not null" json:"lesson_id"`
	CourseID           string  `gorm:"size:128;index" json:"course_id"`
	TotalFiles         int     `gorm:"default:0" json:"total_files"`
	CompletedFiles     int     `gorm:"default:0" json:"completed_files"`
	ProgressPercentage float64 `gorm:"default:0" json:"progress_percentage"`
	LastUpdated        time.Time `json:"last_updated"`
	CreatedAt          time.Time `json:"-"`
}

type CourseProgress struct {
	ID                 uint    `gorm:"primaryKey" json:"-"`
	UserID             string  `gorm:"size:128;index:idx_course_progress_user,unique;not null" json:"user_id"`
	CourseID           string  `gorm:"size:128;index:idx_course_progress_user,unique;not null" json:"course_id"`
	TotalFiles         int     `gorm:"default:0" json:"total_files"`
	CompletedFiles     int     `gorm:"default:0" json:"completed_files"`
	WatchedDuration    int     `gorm:"default:0" json:"watched_duration"`
	ProgressPercentage float64 `gorm:"default:0" json:"progress_percentage"`
	LastUpdated        time.Time `json:"last_updated"`
	CreatedAt          time.Time `json:"-"`
}
