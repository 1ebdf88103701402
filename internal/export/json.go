package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/studyflow/studyflow/internal/model"
	"github.com/studyflow/studyflow/internal/view"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID        int64  `json:"id"`
	Subject   string `json:"subject"`
	SubjectID int64  `json:"subject_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Minutes   int    `json:"duration_minutes"`
	Technique string `json:"technique"`
	Notes     string `json:"notes,omitempty"`
}

// ToJSON writes study sessions to a JSON file at path.
func ToJSON(sessions []model.StudySession, subjects []model.Subject, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	idx := view.SubjectIndex(subjects)
	for _, s := range sessions {
		out.Sessions = append(out.Sessions, jsonSession{
			ID:        s.ID,
			Subject:   view.SubjectLabel(idx, s.SubjectID),
			SubjectID: s.SubjectID,
			Date:      s.Date,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Minutes:   s.DurationMinutes,
			Technique: s.Technique,
			Notes:     s.Notes,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
