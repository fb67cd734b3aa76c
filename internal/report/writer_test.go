package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/transfermap/transfermap/internal/model"
)

// testSummary returns a finished summary with a bit of everything.
func testSummary() *model.RunSummary {
	s := model.NewRunSummary("run-123")
	s.UnitAttempted()
	s.UnitAttempted()
	s.PageFetched()
	s.PageFailed("georgia-state-university_cs_fall-2025", model.ReasonNetworkTransient)
	s.RecordsFound(3)
	s.RecordPersisted()
	s.RecordPersisted()
	s.RecordRejected(model.ReasonInvalidCreditHours)
	s.DuplicateSuppressed()
	s.UnitSucceeded()
	s.Finish()
	return s
}

// TestSimpleWriter tests the plain-text rendering.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewSimpleWriter(&buf).Write(testSummary())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"run-123",
		"units attempted:       2",
		"records persisted:     2",
		string(model.ReasonInvalidCreditHours),
		"georgia-state-university_cs_fall-2025",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestJSONWriter tests that the JSON output round-trips the counters.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(testSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded struct {
		RunID            string               `json:"run_id"`
		RecordsPersisted int                  `json:"records_persisted"`
		RejectReasons    map[model.Reason]int `json:"reject_reasons"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.RunID != "run-123" || decoded.RecordsPersisted != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.RejectReasons[model.ReasonNetworkTransient] != 1 {
		t.Errorf("reject reasons = %v", decoded.RejectReasons)
	}
}

// TestMarkdownWriter tests the markdown structure.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(testSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Crawl Summary",
		"## Counters",
		"## Rejections by Reason",
		"mermaid",
		"## Failed Units",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))

	if _, err := mw.Write(testSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("both writers should receive output")
	}
}

// TestSnapshotExporter tests the full and per-school snapshot files.
func TestSnapshotExporter(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{
		ExportedAt: time.Now().UTC(),
		Semester:   "Fall 2025",
		Schools: []model.SnapshotSchool{
			{ID: 1, Name: "Georgia State University"},
			{ID: 2, Name: "Kennesaw State University"},
		},
		GTCourses: []model.SnapshotGTCourse{
			{ID: 1, Code: "CS 1331", Title: "Intro to OOP", CreditHours: 3},
		},
		ExternalCourses: []model.SnapshotExternalCourse{
			{ID: 1, SchoolID: 1, Code: "CSC 2510", Title: "Theoretical Foundations", CreditHours: 4},
		},
		Equivalencies: []model.SnapshotEquivalency{
			{ID: 1, GTCourseID: 1, SchoolID: 1, ExternalCourseCode: "CSC 2510", Semester: "Fall 2025"},
		},
	}

	dir := t.TempDir()
	paths, err := NewSnapshotExporter(dir).Export(snap)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// Full dataset plus one file per school.
	if len(paths) != 3 {
		t.Fatalf("paths = %v, want 3 entries", paths)
	}
	if paths[0] != filepath.Join(dir, "transfermap.json") {
		t.Errorf("paths[0] = %q", paths[0])
	}

	data, err := os.ReadFile(filepath.Join(dir, "schools", "georgia-state-university.json"))
	if err != nil {
		t.Fatalf("failed to read school snapshot: %v", err)
	}

	var ss SchoolSnapshot
	if err := json.Unmarshal(data, &ss); err != nil {
		t.Fatalf("school snapshot is not valid JSON: %v", err)
	}
	if ss.School != "Georgia State University" || len(ss.Equivalencies) != 1 {
		t.Errorf("school snapshot = %+v", ss)
	}
	if ss.Equivalencies[0].GTCode != "CS 1331" {
		t.Errorf("GT code = %q, want CS 1331", ss.Equivalencies[0].GTCode)
	}

	// A school with no data still gets a file, with empty arrays.
	data, err = os.ReadFile(filepath.Join(dir, "schools", "kennesaw-state-university.json"))
	if err != nil {
		t.Fatalf("failed to read empty school snapshot: %v", err)
	}
	if err := json.Unmarshal(data, &ss); err != nil {
		t.Fatalf("empty school snapshot is not valid JSON: %v", err)
	}
	if len(ss.Courses) != 0 || len(ss.Equivalencies) != 0 {
		t.Errorf("empty school snapshot = %+v", ss)
	}
}
