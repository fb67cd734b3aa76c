package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/transfermap/transfermap/internal/model"
)

// SnapshotExporter writes point-in-time JSON exports of the dataset: one
// full-dataset file plus one file per school named by the school's slug.
type SnapshotExporter struct {
	// dir is the export directory. Created lazily.
	dir string
}

// NewSnapshotExporter creates an exporter writing under dir.
func NewSnapshotExporter(dir string) *SnapshotExporter {
	return &SnapshotExporter{dir: dir}
}

// SchoolSnapshot is the per-school export: the school's courses and the
// equivalencies pointing at it, with GT course codes resolved.
type SchoolSnapshot struct {
	School        string                         `json:"school"`
	Semester      string                         `json:"semester,omitempty"`
	Courses       []model.SnapshotExternalCourse `json:"courses"`
	Equivalencies []SchoolEquivalency            `json:"equivalencies"`
}

// SchoolEquivalency is one mapping fact in a per-school export.
type SchoolEquivalency struct {
	GTCode       string `json:"gt_code"`
	ExternalCode string `json:"external_code"`
	Semester     string `json:"semester"`
}

// Export writes the full snapshot and the per-school files. Returns the
// paths written, full dataset first.
func (e *SnapshotExporter) Export(snap *model.Snapshot) ([]string, error) {
	schoolsDir := filepath.Join(e.dir, "schools")
	if err := os.MkdirAll(schoolsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	fullPath := filepath.Join(e.dir, "transfermap.json")
	if err := writeJSONFile(fullPath, snap); err != nil {
		return nil, err
	}
	paths := []string{fullPath}

	gtCodes := make(map[int64]string, len(snap.GTCourses))
	for _, c := range snap.GTCourses {
		gtCodes[c.ID] = c.Code
	}

	for _, school := range snap.Schools {
		ss := SchoolSnapshot{
			School:        school.Name,
			Semester:      snap.Semester,
			Courses:       make([]model.SnapshotExternalCourse, 0),
			Equivalencies: make([]SchoolEquivalency, 0),
		}
		for _, c := range snap.ExternalCourses {
			if c.SchoolID == school.ID {
				ss.Courses = append(ss.Courses, c)
			}
		}
		for _, eq := range snap.Equivalencies {
			if eq.SchoolID == school.ID {
				ss.Equivalencies = append(ss.Equivalencies, SchoolEquivalency{
					GTCode:       gtCodes[eq.GTCourseID],
					ExternalCode: eq.ExternalCourseCode,
					Semester:     eq.Semester,
				})
			}
		}

		path := filepath.Join(schoolsDir, model.Slug(school.Name)+".json")
		if err := writeJSONFile(path, ss); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// writeJSONFile writes v as indented JSON.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
