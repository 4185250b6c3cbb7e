package study

import "time"

// tickMsg refreshes playback status and polls coach feedback.
type tickMsg time.Time

const tickInterval = 250 * time.Millisecond
