package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course is a top-level scanned folder. Title and Description are
// operator-editable and must never be overwritten by a rescan.
type Course struct {
	ID          string `gorm:"primaryKey;size:128"`
	Title       string `gorm:"size:500;not null"`
	Description string
	Instructor  string `gorm:"size:255"`
	FolderPath  string `gorm:"uniqueIndex;not null"`
	TotalFiles  int    `gorm:"default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Lessons []Lesson `gorm:"foreignKey:CourseID"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Lesson is unique per (course, folder path); the same folder name may exist
// under any number of courses.
type Lesson struct {
	ID         string `gorm:"primaryKey;size:128"`
	CourseID   string `gorm:"size:128;index:idx_lessons_course_folder,unique;not null"`
	Title      string `gorm:"size:500;not null"`
	FolderPath string `gorm:"index:idx_lessons_course_folder,unique;not null"`
	OrderIndex int    `gorm:"default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Files []File `gorm:"foreignKey:LessonID"`
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// File is a single video or document asset. The (LessonID, FilePath) pair is
// unique: a rescan updates the existing row when the same path reappears.
//
// Title keeps any sub-folder components below the lesson joined with "/",
// which the player UI splits back into a tree. DisplayPath carries the same
// components as an explicit array for newer clients.
type File struct {
	ID         string `gorm:"primaryKey;size:128"`
	LessonID   string `gorm:"size:128;index:idx_files_lesson_path,unique;not null"`
	CourseID   string `gorm:"size:128;index;not null"`
	Filename   string `gorm:"size:500;not null"`
	Title      string `gorm:"size:500"`
	FilePath   string `gorm:"index:idx_files_lesson_path,unique;not null"`
	FileType   string `gorm:"size:50"` // video | document
	FileSize   int64
	Duration   int // seconds, videos only, 0 when unknown
	OrderIndex int `gorm:"default:0"`

	DisplayPath []string `gorm:"serializer:json"`

	ThumbnailBase64 string

	// Soft-delete bookkeeping: Missing flips when a rescan no longer sees the
	// path on disk; MissingScans counts consecutive such rescans.
	Missing      bool `gorm:"default:false"`
	MissingScans int  `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

func (f *File) IsVideo() bool {
	return f.FileType == "video"
}

// ScanRecord is an append-only audit row, one per scan pass.
type ScanRecord struct {
	ID           uint   `gorm:"primaryKey"`
	ScanPath     string `gorm:"not null"`
	FilesFound   int    `gorm:"default:0"`
	CoursesAdded int    `gorm:"default:0"`
	LessonsAdded int    `gorm:"default:0"`
	FilesAdded   int    `gorm:"default:0"`
	Duration     float64
	Status       string `gorm:"size:50"` // success | partial | failed
	CreatedAt    time.Time
}
