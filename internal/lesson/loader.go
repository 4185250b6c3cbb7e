package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidLesson is returned when a lesson document fails validation.
var ErrInvalidLesson = errors.New("invalid lesson")

// FileError collects the validation problems found in one lesson file.
type FileError struct {
	File   string
	Errors []string
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, strings.Join(e.Errors, "; "))
}

// LoadResult is the outcome of scanning a curriculum tree.
type LoadResult struct {
	Lessons []*Lesson
	Errors  []FileError
}

// FindFiles returns every *.json file under root that sits inside a
// "lessons" directory, in lexical walk order.
func FindFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		sep := string(filepath.Separator)
		if strings.Contains(path, sep+"lessons"+sep) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// Load reads and validates every lesson file under root. Invalid files are
// reported in the result rather than failing the whole load.
func Load(root string) (*LoadResult, error) {
	files, err := FindFiles(root)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{}
	for _, f := range files {
		raw, err := os.ReadFile(f)
		if err != nil {
			res.Errors = append(res.Errors, FileError{File: f, Errors: []string{err.Error()}})
			continue
		}
		l, problems := Parse(raw)
		if len(problems) > 0 {
			res.Errors = append(res.Errors, FileError{File: f, Errors: problems})
			continue
		}
		res.Lessons = append(res.Lessons, l)
	}
	return res, nil
}

// Decode parses and validates a single lesson document.
func Decode(raw []byte) (*Lesson, error) {
	l, problems := Parse(raw)
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLesson, strings.Join(problems, "; "))
	}
	return l, nil
}

// Parse decodes raw and returns the lesson together with every validation
// problem found. The lesson is nil whenever problems is non-empty.
func Parse(raw []byte) (*Lesson, []string) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, []string{fmt.Sprintf("invalid JSON: %v", err)}
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, []string{"not a JSON object"}
	}

	schema, err := lessonSchema()
	if err != nil {
		return nil, []string{err.Error()}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, schemaProblems(err)
	}

	var l Lesson
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, []string{fmt.Sprintf("decode lesson: %v", err)}
	}
	if problems := checkSegmentOrder(l.Segments); len(problems) > 0 {
		return nil, problems
	}
	return &l, nil
}

func checkSegmentOrder(segs []Segment) []string {
	var problems []string
	for i, want := range SegmentTypes {
		got := "missing"
		if i < len(segs) && segs[i].Type != "" {
			got = string(segs[i].Type)
		}
		if got != string(want) {
			problems = append(problems, fmt.Sprintf("segment %d should be %q, found %q", i+1, want, got))
		}
	}
	if len(segs) > SegmentCount {
		problems = append(problems, fmt.Sprintf("expected %d segments, found %d", SegmentCount, len(segs)))
	}
	return problems
}

// schemaProblems turns the validator's indented report into one line per
// failing location.
func schemaProblems(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			out = append(out, strings.TrimPrefix(line, "- "))
		}
	}
	if len(out) == 0 {
		return []string{err.Error()}
	}
	return out
}
