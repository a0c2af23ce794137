package core

// Tool selects how a stroke is composited by clients.
type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
)

// Point is one sampled position of a stroke.
type Point struct {
	X float64
	Y float64
}

// Stroke is one finished, continuous path. Committed strokes are never mutated.
type Stroke struct {
	Tool   Tool
	Color  string
	Width  float64
	Points []Point
}

// MinStrokePoints is the shortest stroke that may be committed.
const MinStrokePoints = 2
