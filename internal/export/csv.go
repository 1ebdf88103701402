package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/studyflow/studyflow/internal/model"
	"github.com/studyflow/studyflow/internal/view"
)

// ToCSV writes study sessions to a CSV file at path.
func ToCSV(sessions []model.StudySession, subjects []model.Subject, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Subject", "Date", "Start", "End", "Minutes", "Technique", "Notes"}); err != nil {
		return err
	}

	idx := view.SubjectIndex(subjects)
	for _, s := range sessions {
		row := []string{
			fmt.Sprintf("%d", s.ID),
			view.SubjectLabel(idx, s.SubjectID),
			s.Date,
			s.StartTime,
			s.EndTime,
			fmt.Sprintf("%d", s.DurationMinutes),
			s.Technique,
			s.Notes,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
