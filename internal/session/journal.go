package session

import (
	"context"

	"github.com/abhisek/lectern/internal/progress"
	"github.com/abhisek/lectern/internal/store"
)

// eventJournal writes tracker records as session events.
type eventJournal struct {
	repo store.EventRepo
}

func (j eventJournal) Append(ctx context.Context, r progress.Record) error {
	return j.repo.AppendSessionEvent(ctx, store.SessionEventData{
		UserID:     r.UserID,
		CourseID:   r.CourseID,
		LessonID:   r.LessonID,
		Action:     string(r.Kind),
		State:      r.State,
		SegmentIdx: r.SegmentIdx,
		Timestamp:  r.At,
	})
}
