package vad

// Stats counts completed frame evaluations for a session. Counters are
// monotonically non-decreasing; partially buffered audio never contributes.
type Stats struct {
	TotalWindows  int
	SpeechWindows int
}

// SpeechRatio returns the fraction of evaluated windows classified as speech,
// or 0 when nothing has been evaluated yet.
func (s Stats) SpeechRatio() float64 {
	if s.TotalWindows == 0 {
		return 0
	}
	return float64(s.SpeechWindows) / float64(s.TotalWindows)
}
