package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status   string    `json:"status" example:"healthy" doc:"Service health status"`
		Version  string    `json:"version" example:"1.0.0" doc:"API version"`
		Time     time.Time `json:"time" doc:"Current server time"`
		Sessions int       `json:"sessions" doc:"Live sessions"`
	}
}

// Tick is one labelled axis tick
type Tick struct {
	Value    int     `json:"value" doc:"dB HL or Hz"`
	Position float64 `json:"position" doc:"Pixel position along the axis"`
	Label    string  `json:"label" doc:"Display label"`
}

// Geometry is the chart canvas geometry
type Geometry struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	MarginLeft   float64 `json:"margin_left"`
	MarginRight  float64 `json:"margin_right"`
	MarginTop    float64 `json:"margin_top"`
	MarginBottom float64 `json:"margin_bottom"`
}

// GetGeometryResponse describes how thresholds map onto the chart canvas
type GetGeometryResponse struct {
	Body struct {
		Geometry      Geometry `json:"geometry" doc:"Canvas size and margins"`
		Frequencies   []int    `json:"frequencies" doc:"Audiometric frequencies in x-axis order"`
		MinDb         int      `json:"min_db" example:"-10" doc:"Top of the dB axis"`
		MaxDb         int      `json:"max_db" example:"120" doc:"Bottom of the dB axis"`
		SnapIncrement int      `json:"snap_increment" example:"5" doc:"Threshold quantization step"`
		YTicks        []Tick   `json:"y_ticks" doc:"dB HL ticks"`
		XTicks        []Tick   `json:"x_ticks" doc:"Frequency ticks"`
	}
}

// EarThresholds holds one ear's thresholds keyed by frequency in Hz
type EarThresholds struct {
	Air  map[string]int `json:"air" doc:"Air conduction dB HL by frequency"`
	Bone map[string]int `json:"bone" doc:"Bone conduction dB HL by frequency"`
}

// Editing holds the conduction each ear's chart edits
type Editing struct {
	Right string `json:"right" enum:"air,bone"`
	Left  string `json:"left" enum:"air,bone"`
}

// Patient holds the metadata printed on exports
type Patient struct {
	Name      string `json:"name" doc:"Patient's name"`
	ExamDate  string `json:"exam_date" doc:"Date of examination"`
	BirthDate string `json:"birth_date" doc:"Birth date"`
}

// SessionState is the full state of one session
type SessionState struct {
	ID        string        `json:"id" doc:"Session ID"`
	Right     EarThresholds `json:"right" doc:"Right ear thresholds"`
	Left      EarThresholds `json:"left" doc:"Left ear thresholds"`
	Editing   Editing       `json:"editing" doc:"Per-ear editing selector"`
	Patient   Patient       `json:"patient" doc:"Patient metadata"`
	Theme     string        `json:"theme" enum:"light,dark" doc:"Display theme"`
	CreatedAt time.Time     `json:"created_at" doc:"Session creation time"`
}

// SessionResponse returns a session's state
type SessionResponse struct {
	Body SessionState
}

// SessionRequest addresses one session
type SessionRequest struct {
	ID string `path:"id" doc:"Session ID"`
}

// DeleteSessionResponse is empty; the session is gone
type DeleteSessionResponse struct{}

// UpdateThresholdRequest sets one threshold directly
type UpdateThresholdRequest struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Ear        string  `json:"ear" enum:"right,left" doc:"Ear"`
		Conduction string  `json:"conduction" enum:"air,bone" doc:"Conduction mode"`
		Frequency  int     `json:"frequency" example:"1000" doc:"Frequency in Hz"`
		Value      float64 `json:"value" example:"45" doc:"dB HL; snapped to 5 and clamped to [-10, 120]"`
	}
}

// SetEditingRequest switches which conduction an ear's chart edits
type SetEditingRequest struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Ear        string `json:"ear" enum:"right,left" doc:"Ear"`
		Conduction string `json:"conduction" enum:"air,bone" doc:"Conduction mode"`
	}
}

// ResetRequest restores default thresholds
type ResetRequest struct {
	ID   string `path:"id" doc:"Session ID"`
	Body *struct {
		ClearPatient bool `json:"clear_patient,omitempty" doc:"Also blank the patient metadata"`
	}
}

// UpdatePatientRequest sets any of the patient fields; omitted fields are kept
type UpdatePatientRequest struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Name      *string `json:"name,omitempty" doc:"Patient's name"`
		ExamDate  *string `json:"exam_date,omitempty" doc:"Date of examination"`
		BirthDate *string `json:"birth_date,omitempty" doc:"Birth date"`
	}
}

// SetThemeRequest sets or toggles the display theme
type SetThemeRequest struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Theme string `json:"theme" enum:"light,dark,toggle" doc:"New theme, or toggle"`
	}
}

// ValidatePatientResponse lists what blocks an export
type ValidatePatientResponse struct {
	Body struct {
		Valid  bool     `json:"valid" doc:"True when the patient metadata is complete"`
		Errors []string `json:"errors" doc:"One message per missing field"`
	}
}

// ChartRequest addresses one ear's chart
type ChartRequest struct {
	ID  string `path:"id" doc:"Session ID"`
	Ear string `path:"ear" enum:"right,left" doc:"Ear"`
}

// ChartSVGResponse is a rendered chart
type ChartSVGResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// PointerEvent is one pointer input on a chart
type PointerEvent struct {
	Type       string  `json:"type" enum:"down,move,up,leave,click" doc:"Pointer event type"`
	X          float64 `json:"x,omitempty" doc:"Pointer x"`
	Y          float64 `json:"y,omitempty" doc:"Pointer y"`
	ViewWidth  float64 `json:"view_width,omitempty" doc:"Rendered chart width x and y were measured in"`
	ViewHeight float64 `json:"view_height,omitempty" doc:"Rendered chart height x and y were measured in"`
	Frequency  int     `json:"frequency,omitempty" doc:"Marker frequency for a direct down"`
	Conduction string  `json:"conduction,omitempty" enum:"air,bone" doc:"Marker conduction for a direct down"`
}

// PointerEventRequest sends one pointer event to a chart
type PointerEventRequest struct {
	ID   string `path:"id" doc:"Session ID"`
	Ear  string `path:"ear" enum:"right,left" doc:"Ear"`
	Body PointerEvent
}

// Target is the marker being dragged
type Target struct {
	Frequency  int    `json:"frequency"`
	Conduction string `json:"conduction" enum:"air,bone"`
}

// Tooltip is the hover readout
type Tooltip struct {
	Visible bool    `json:"visible"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Content string  `json:"content,omitempty" example:"1k • 45 dB HL"`
}

// PointerResult is a chart's state after a pointer event
type PointerResult struct {
	Ear        string        `json:"ear" enum:"right,left"`
	Phase      string        `json:"phase" enum:"idle,dragging" doc:"Gesture state"`
	Applied    bool          `json:"applied" doc:"Whether the event changed the gesture or the thresholds"`
	Target     *Target       `json:"target,omitempty" doc:"Dragged marker"`
	Tooltip    Tooltip       `json:"tooltip"`
	Editing    string        `json:"editing" enum:"air,bone" doc:"The ear's editing selector"`
	Thresholds EarThresholds `json:"thresholds" doc:"The ear's thresholds"`
}

// PointerEventResponse returns the chart state after a pointer event
type PointerEventResponse struct {
	Body PointerResult
}

// ExportResponse is the exported PNG
type ExportResponse struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	ArchiveURL         string `header:"X-Archive-URL"`
	Body               []byte
}
