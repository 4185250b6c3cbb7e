package lesson

import (
	"sort"
)

// Catalog indexes validated lessons by id and by course. Lessons within a
// course are ordered by Sequence.
type Catalog struct {
	all        []*Lesson
	byID       map[string]*Lesson
	byCourse   map[string][]*Lesson
	courses    []string
	duplicates []string
}

// NewCatalog builds a catalog. When two lessons share an id the first one
// (after sorting) wins and the id is reported by Duplicates.
func NewCatalog(lessons []*Lesson) *Catalog {
	sorted := make([]*Lesson, 0, len(lessons))
	for _, l := range lessons {
		if l != nil {
			sorted = append(sorted, l)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CourseID == sorted[j].CourseID {
			return sorted[i].Sequence < sorted[j].Sequence
		}
		return sorted[i].CourseID < sorted[j].CourseID
	})

	c := &Catalog{
		all:      sorted,
		byID:     make(map[string]*Lesson, len(sorted)),
		byCourse: make(map[string][]*Lesson),
	}
	for _, l := range sorted {
		if _, exists := c.byID[l.ID]; exists {
			c.duplicates = append(c.duplicates, l.ID)
		} else {
			c.byID[l.ID] = l
		}
		if _, seen := c.byCourse[l.CourseID]; !seen {
			c.courses = append(c.courses, l.CourseID)
		}
		c.byCourse[l.CourseID] = append(c.byCourse[l.CourseID], l)
	}
	return c
}

// All returns every lesson, sorted by course then sequence.
func (c *Catalog) All() []*Lesson { return c.all }

// Len returns the number of lessons in the catalog.
func (c *Catalog) Len() int { return len(c.all) }

// Courses returns the course ids in sorted order.
func (c *Catalog) Courses() []string { return c.courses }

// Duplicates returns lesson ids that appeared more than once.
func (c *Catalog) Duplicates() []string { return c.duplicates }

// ByID returns the lesson with the given id, or nil.
func (c *Catalog) ByID(id string) *Lesson { return c.byID[id] }

// ByCourse returns the lessons of a course in sequence order.
func (c *Catalog) ByCourse(courseID string) []*Lesson { return c.byCourse[courseID] }

// CourseSize returns the number of lessons in a course.
func (c *Catalog) CourseSize(courseID string) int { return len(c.byCourse[courseID]) }

// First returns the first lesson of the catalog, or nil when empty.
func (c *Catalog) First() *Lesson {
	if len(c.all) == 0 {
		return nil
	}
	return c.all[0]
}

// Next returns the lesson after id within its course, or nil.
func (c *Catalog) Next(id string) *Lesson {
	return c.neighbour(id, 1)
}

// Previous returns the lesson before id within its course, or nil.
func (c *Catalog) Previous(id string) *Lesson {
	return c.neighbour(id, -1)
}

func (c *Catalog) neighbour(id string, step int) *Lesson {
	cur := c.byID[id]
	if cur == nil {
		return nil
	}
	lessons := c.byCourse[cur.CourseID]
	for i, l := range lessons {
		if l != cur {
			continue
		}
		j := i + step
		if j < 0 || j >= len(lessons) {
			return nil
		}
		return lessons[j]
	}
	return nil
}
