package proto

import (
	"encoding/json"
	"strings"
	"testing"
)

func validStroke() Stroke {
	return Stroke{
		Tool:   "brush",
		Color:  "#ff00aa",
		Width:  4,
		Points: []Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
	}
}

func TestStrokeValidateAccepts(t *testing.T) {
	if err := validStroke().Validate(100); err != nil {
		t.Fatalf("valid stroke rejected: %v", err)
	}
	eraser := validStroke()
	eraser.Tool = "eraser"
	if err := eraser.Validate(0); err != nil {
		t.Fatalf("eraser rejected: %v", err)
	}
}

func TestStrokeValidateRejects(t *testing.T) {
	cases := map[string]func(s *Stroke){
		"single point":  func(s *Stroke) { s.Points = s.Points[:1] },
		"no points":     func(s *Stroke) { s.Points = nil },
		"unknown tool":  func(s *Stroke) { s.Tool = "spray" },
		"missing tool":  func(s *Stroke) { s.Tool = "" },
		"missing color": func(s *Stroke) { s.Color = "" },
		"zero width":    func(s *Stroke) { s.Width = 0 },
		"too wide":      func(s *Stroke) { s.Width = 1500 },
		"long color":    func(s *Stroke) { s.Color = strings.Repeat("f", 33) },
		"too many points": func(s *Stroke) {
			s.Points = append(s.Points, Point{X: 5, Y: 6}, Point{X: 7, Y: 8})
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := validStroke()
			mutate(&s)
			if err := s.Validate(3); err == nil {
				t.Fatalf("stroke accepted: %+v", s)
			}
		})
	}
}

func TestValidationErrorNamesJSONField(t *testing.T) {
	s := validStroke()
	s.Points = nil
	err := s.Validate(0)
	if err == nil || !strings.Contains(err.Error(), "points") {
		t.Fatalf("error %v does not mention points", err)
	}
}

func TestJoinRoomValidate(t *testing.T) {
	if err := (JoinRoom{RoomID: "r1"}).Validate(); err != nil {
		t.Fatalf("join rejected: %v", err)
	}
	if err := (JoinRoom{Username: "alice"}).Validate(); err == nil {
		t.Fatal("join without roomId accepted")
	}
	if err := (JoinRoom{RoomID: strings.Repeat("r", 129)}).Validate(); err == nil {
		t.Fatal("join with 129-char roomId accepted")
	}
	if err := (JoinRoom{RoomID: "r1", Username: strings.Repeat("u", 65)}).Validate(); err == nil {
		t.Fatal("join with 65-char username accepted")
	}
}

func TestIndexedStrokeFlattensFields(t *testing.T) {
	raw, err := json.Marshal(IndexedStroke{Stroke: validStroke(), StrokeIndex: 7})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"tool", "color", "width", "points", "strokeIndex"} {
		if _, ok := flat[key]; !ok {
			t.Fatalf("key %q missing from %s", key, raw)
		}
	}
}
