package handlers

import (
	"iter"
	"strconv"

	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/chart"
	"github.com/RMahshie/audiogram/internal/session"
	"github.com/RMahshie/audiogram/pkg/models"
)

func thresholdMap(t audiogram.Thresholds) map[string]int {
	out := make(map[string]int, chart.NumFrequencies)
	for f, db := range t.Map() {
		out[strconv.Itoa(f)] = db
	}
	return out
}

// EarBody converts one ear's thresholds to its API form.
func EarBody(e audiogram.EarData) models.EarThresholds {
	return models.EarThresholds{Air: thresholdMap(e.Air), Bone: thresholdMap(e.Bone)}
}

// StateBody converts a session snapshot to its API form.
func StateBody(s *session.Session, st audiogram.State) models.SessionState {
	return models.SessionState{
		ID:      s.ID.String(),
		Right:   EarBody(st.Right),
		Left:    EarBody(st.Left),
		Editing: models.Editing{Right: string(st.Editing.Right), Left: string(st.Editing.Left)},
		Patient: models.Patient{
			Name:      st.Patient.Name,
			ExamDate:  st.Patient.ExamDate,
			BirthDate: st.Patient.BirthDate,
		},
		Theme:     string(st.Theme),
		CreatedAt: s.CreatedAt,
	}
}

// PointerBody converts a pointer result to its API form.
func PointerBody(r session.PointerResult) models.PointerResult {
	body := models.PointerResult{
		Ear:     string(r.Ear),
		Phase:   string(r.Phase),
		Applied: r.Applied,
		Tooltip: models.Tooltip{
			Visible: r.Tooltip.Visible,
			X:       r.Tooltip.X,
			Y:       r.Tooltip.Y,
			Content: r.Tooltip.Content,
		},
		Editing:    string(r.Editing),
		Thresholds: EarBody(r.Thresholds),
	}
	if r.Target != nil {
		body.Target = &models.Target{Frequency: r.Target.Frequency, Conduction: string(r.Target.Conduction)}
	}
	return body
}

// PointerEvent converts an API pointer event to the session form.
func PointerEvent(e models.PointerEvent) session.PointerEvent {
	return session.PointerEvent{
		Type:       session.EventType(e.Type),
		X:          e.X,
		Y:          e.Y,
		ViewWidth:  e.ViewWidth,
		ViewHeight: e.ViewHeight,
		Frequency:  e.Frequency,
		Conduction: e.Conduction,
	}
}

func ticks(seq iter.Seq[chart.Tick]) []models.Tick {
	var out []models.Tick
	for t := range seq {
		out = append(out, models.Tick{Value: t.Value, Position: t.Position, Label: t.Label})
	}
	return out
}
