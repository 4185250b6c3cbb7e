package lesson_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/lesson/lessontest"
)

func testCatalog() *lesson.Catalog {
	return lesson.NewCatalog([]*lesson.Lesson{
		lessontest.New("hermeneutics_i", "h3", 3),
		lessontest.New("hermeneutics_i", "h1", 1),
		lessontest.New("greek_i", "g1", 1),
		lessontest.New("hermeneutics_i", "h2", 2),
		lessontest.New("greek_i", "g1", 5),
	})
}

func TestCatalog_Ordering(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, []string{"greek_i", "hermeneutics_i"}, c.Courses())

	var ids []string
	for _, l := range c.ByCourse("hermeneutics_i") {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"h1", "h2", "h3"}, ids)
	assert.Equal(t, 3, c.CourseSize("hermeneutics_i"))
	assert.Equal(t, "g1", c.First().ID)
}

func TestCatalog_Duplicates(t *testing.T) {
	c := testCatalog()
	assert.Equal(t, []string{"g1"}, c.Duplicates())
	require.NotNil(t, c.ByID("g1"))
	assert.Equal(t, 1, c.ByID("g1").Sequence)
}

func TestCatalog_NextPrevious(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		id       string
		wantNext string
		wantPrev string
	}{
		{"h1", "h2", ""},
		{"h2", "h3", "h1"},
		{"h3", "", "h2"},
		{"unknown", "", ""},
	}

	for _, tt := range tests {
		next, prev := c.Next(tt.id), c.Previous(tt.id)
		if tt.wantNext == "" {
			assert.Nilf(t, next, "Next(%s)", tt.id)
		} else if assert.NotNilf(t, next, "Next(%s)", tt.id) {
			assert.Equal(t, tt.wantNext, next.ID)
		}
		if tt.wantPrev == "" {
			assert.Nilf(t, prev, "Previous(%s)", tt.id)
		} else if assert.NotNilf(t, prev, "Previous(%s)", tt.id) {
			assert.Equal(t, tt.wantPrev, prev.ID)
		}
	}
}

func TestLesson_SegmentAt(t *testing.T) {
	l := lessontest.New("c", "l", 1)
	assert.Nil(t, l.SegmentAt(-1))
	assert.Nil(t, l.SegmentAt(lesson.SegmentCount))
	require.NotNil(t, l.SegmentAt(6))
	assert.Equal(t, lesson.SegmentClose, l.SegmentAt(6).Type)

	s := l.Summary()
	assert.Equal(t, lesson.Summary{ID: "l", Title: "Lesson l", SegmentCount: 7, CourseID: "c", Sequence: 1}, s)
}
