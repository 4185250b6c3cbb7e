package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lectern/internal/session"
)

const userIDKey = "user_id"

// sessionRequest is accepted as a query string, a JSON body, or both. Body
// fields win.
type sessionRequest struct {
	UserID   string  `form:"userId" json:"userId"`
	LessonID string  `form:"lessonId" json:"lessonId"`
	Command  string  `json:"command"`
	Answer   string  `json:"answer"`
	Rate     float64 `json:"rate"`
}

type handlers struct {
	svc *session.Service
}

func bind(c *gin.Context) (sessionRequest, bool) {
	var req sessionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return req, false
	}
	if c.Request.Method == http.MethodPost && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErr(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
			return req, false
		}
	}
	return req, true
}

// bindSession binds the request and requires a user id.
func bindSession(c *gin.Context) (sessionRequest, bool) {
	req, ok := bind(c)
	if !ok {
		return req, false
	}
	if req.UserID == "" {
		respondErr(c, fmt.Errorf("%w: userId is required", errInvalidRequest))
		return req, false
	}
	c.Set(userIDKey, req.UserID)
	return req, true
}

func (h *handlers) healthCheck(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

func (h *handlers) listLessons(c *gin.Context) {
	respondOK(c, gin.H{"lessons": h.svc.Lessons()})
}

func (h *handlers) nextLesson(c *gin.Context) {
	respondOK(c, gin.H{"lesson": h.svc.GetNextLessonInCourse(c.Param("id"))})
}

func (h *handlers) previousLesson(c *gin.Context) {
	respondOK(c, gin.H{"lesson": h.svc.GetPreviousLessonInCourse(c.Param("id"))})
}

func (h *handlers) newSession(c *gin.Context) {
	req, ok := bind(c)
	if !ok {
		return
	}
	res, err := h.svc.CreateSession(req.LessonID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Set(userIDKey, res.UserID)
	respondOK(c, res)
}

func (h *handlers) command(c *gin.Context) {
	req, ok := bindSession(c)
	if !ok {
		return
	}
	res, err := h.svc.HandleCommand(req.UserID, req.Command)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, res)
}

func (h *handlers) play(c *gin.Context) {
	h.playback(c, h.svc.PlayCurrentSegment)
}

func (h *handlers) pause(c *gin.Context) {
	h.playback(c, h.svc.PauseAudio)
}

func (h *handlers) resume(c *gin.Context) {
	h.playback(c, h.svc.ResumeAudio)
}

func (h *handlers) stop(c *gin.Context) {
	h.playback(c, h.svc.StopAudio)
}

func (h *handlers) rate(c *gin.Context) {
	req, ok := bindSession(c)
	if !ok {
		return
	}
	res, err := h.svc.SetPlaybackRate(req.UserID, req.Rate)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, res)
}

func (h *handlers) playback(c *gin.Context, op func(string) (session.PlaybackResult, error)) {
	req, ok := bindSession(c)
	if !ok {
		return
	}
	res, err := op(req.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, res)
}

func (h *handlers) state(c *gin.Context) {
	req, ok := bindSession(c)
	if !ok {
		return
	}
	view, err := h.svc.State(req.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, view)
}

func (h *handlers) progress(c *gin.Context) {
	req, ok := bindSession(c)
	if !ok {
		return
	}
	stats, err := h.svc.GetCourseProgress(req.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, stats)
}

func (h *handlers) answer(c *gin.Context) {
	req, ok := bindSession(c)
	if !ok {
		return
	}
	res, err := h.svc.SubmitAnswer(req.UserID, req.Answer)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, res)
}

func (h *handlers) feedback(c *gin.Context) {
	req, ok := bindSession(c)
	if !ok {
		return
	}
	fb, ready, err := h.svc.CoachFeedback(req.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"ready": ready, "feedback": fb})
}

func (h *handlers) end(c *gin.Context) {
	req, ok := bindSession(c)
	if !ok {
		return
	}
	if err := h.svc.EndSession(req.UserID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"status": "ok"})
}
