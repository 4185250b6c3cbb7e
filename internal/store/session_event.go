package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// eventRepo implements EventRepo over the shared sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO session_events
			(sequence, timestamp, user_id, course_id, lesson_id, action, state, segment_idx, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, formatTime(ts), data.UserID, data.CourseID, data.LessonID,
		data.Action, data.State, data.SegmentIdx, data.Detail,
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error) {
	w := commonFilters(opts)
	if opts.UserID != "" {
		w.add("user_id = ?", opts.UserID)
	}
	q := `SELECT id, sequence, timestamp, user_id, course_id, lesson_id, action, state, segment_idx, detail
		FROM session_events` + w.sql() + limitClause(opts)

	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var (
			e  SessionEvent
			ts string
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.UserID, &e.CourseID, &e.LessonID,
			&e.Action, &e.State, &e.SegmentIdx, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		e.SessionEventData.Timestamp = e.Timestamp
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) SessionStats(ctx context.Context) ([]SessionStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.user_id,
			(SELECT lesson_id FROM session_events l
			 WHERE l.user_id = e.user_id ORDER BY l.sequence DESC LIMIT 1),
			COUNT(*),
			COUNT(DISTINCT CASE WHEN action = ? THEN lesson_id || ':' || segment_idx END),
			COUNT(DISTINCT CASE WHEN action = ? THEN lesson_id END),
			MIN(timestamp),
			MAX(timestamp)
		FROM session_events e
		GROUP BY e.user_id
		ORDER BY MAX(sequence) DESC`,
		ActionSegmentCompleted, ActionLessonCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("query session stats: %w", err)
	}
	defer rows.Close()

	var out []SessionStat
	for rows.Next() {
		var (
			s           SessionStat
			first, last string
		)
		if err := rows.Scan(&s.UserID, &s.LessonID, &s.Events, &s.SegmentsCompleted,
			&s.LessonsCompleted, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session stat: %w", err)
		}
		if s.FirstSeen, err = parseTime(first); err != nil {
			return nil, err
		}
		if s.LastSeen, err = parseTime(last); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
