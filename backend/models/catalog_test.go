package models

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonUniqueKeyIsCourseScoped(t *testing.T) {
	typ := reflect.TypeOf(Lesson{})

	courseID, ok := typ.FieldByName("CourseID")
	require.True(t, ok)
	folderPath, ok := typ.FieldByName("FolderPath")
	require.True(t, ok)

	// Both columns belong to the composite unique index; folder_path alone
	// must not be globally unique.
	assert.Contains(t, courseID.Tag.Get("gorm"), "index:idx_lessons_course_folder,unique")
	assert.Contains(t, folderPath.Tag.Get("gorm"), "index:idx_lessons_course_folder,unique")
}
