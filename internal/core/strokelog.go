package core

// StrokeLog is the linear edit history of one room.
//
// A stroke lives in exactly one of committed or undone. Appending a new stroke
// discards the redo stack. StrokeLog does no locking; Room serializes access.
type StrokeLog struct {
	committed []Stroke
	undone    []Stroke
}

// NewStrokeLog returns an empty log.
func NewStrokeLog() *StrokeLog {
	return &StrokeLog{}
}

// Append commits a stroke and returns its index in the visible history.
// Callers must have validated the stroke (at least MinStrokePoints points).
func (l *StrokeLog) Append(s Stroke) int {
	l.committed = append(l.committed, s)
	l.undone = nil
	return len(l.committed) - 1
}

// Undo moves the newest committed stroke onto the redo stack and returns the
// index it occupied. ok is false when there is nothing to undo.
func (l *StrokeLog) Undo() (index int, ok bool) {
	n := len(l.committed)
	if n == 0 {
		return 0, false
	}
	s := l.committed[n-1]
	l.committed[n-1] = Stroke{}
	l.committed = l.committed[:n-1]
	l.undone = append(l.undone, s)
	return n - 1, true
}

// Redo restores the most recently undone stroke and returns it with its new index.
// ok is false when the redo stack is empty.
func (l *StrokeLog) Redo() (s Stroke, index int, ok bool) {
	n := len(l.undone)
	if n == 0 {
		return Stroke{}, 0, false
	}
	s = l.undone[n-1]
	l.undone[n-1] = Stroke{}
	l.undone = l.undone[:n-1]
	l.committed = append(l.committed, s)
	return s, len(l.committed) - 1, true
}

// Clear drops both history and redo stack. It cannot be undone.
func (l *StrokeLog) Clear() {
	l.committed = nil
	l.undone = nil
}

// Snapshot returns a copy of the committed strokes in order.
func (l *StrokeLog) Snapshot() []Stroke {
	out := make([]Stroke, len(l.committed))
	copy(out, l.committed)
	return out
}

// Len is the number of committed strokes.
func (l *StrokeLog) Len() int {
	return len(l.committed)
}

// RedoDepth is the number of strokes available to Redo.
func (l *StrokeLog) RedoDepth() int {
	return len(l.undone)
}
