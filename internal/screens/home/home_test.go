package home

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lectern/internal/lesson"
	"github.com/abhisek/lectern/internal/lesson/lessontest"
	"github.com/abhisek/lectern/internal/playback/playbacktest"
	"github.com/abhisek/lectern/internal/router"
	"github.com/abhisek/lectern/internal/screen"
	"github.com/abhisek/lectern/internal/screens/study"
	"github.com/abhisek/lectern/internal/session"
)

func newHome(t *testing.T) *HomeScreen {
	t.Helper()
	catalog := lesson.NewCatalog([]*lesson.Lesson{
		lessontest.New("hermeneutics_i", "h1", 1),
		lessontest.New("hermeneutics_i", "h2", 2),
		lessontest.New("survey", "s1", 1),
	})
	st := session.NewStore(session.WithClock(playbacktest.NewClock()))
	t.Cleanup(func() { st.Close() })
	return New(session.NewService(catalog, st, nil))
}

func TestHome_ListsLessonsByCourse(t *testing.T) {
	h := newHome(t)
	view := h.View(100, 30)
	for _, want := range []string{"HERMENEUTICS_I", "1. Lesson h1", "2. Lesson h2", "SURVEY", "QUIT"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if h.menu.Selected != 1 {
		t.Errorf("Selected = %d, want first lesson after the course header", h.menu.Selected)
	}
}

func TestHome_EnterOpensLesson(t *testing.T) {
	h := newHome(t)

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	ready := cmd()
	_, cmd = h.Update(ready)
	if cmd == nil {
		t.Fatalf("expected push after session opened, errMsg=%q", h.errMsg)
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	s, ok := push.Screen.(*study.StudyScreen)
	if !ok {
		t.Fatalf("pushed %T, want *study.StudyScreen", push.Screen)
	}
	if s.Title() != "Lesson h1" {
		t.Errorf("Title = %q", s.Title())
	}
	s.Close()
}

func TestHome_StartLessonMsg(t *testing.T) {
	h := newHome(t)

	_, cmd := h.Update(screen.StartLessonMsg{LessonID: "missing"})
	h.Update(cmd())
	if !strings.Contains(h.errMsg, "lesson not found") {
		t.Errorf("errMsg = %q", h.errMsg)
	}
}
