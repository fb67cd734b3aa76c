package model

import "time"

// Snapshot is a point-in-time JSON export of the full relational dataset.
// Slices are ordered deterministically by the store (schools by name,
// courses by code) so that two exports of the same data are byte-identical.
type Snapshot struct {
	// ExportedAt is when the snapshot was read from the store.
	ExportedAt time.Time `json:"exported_at"`

	// Semester is the term label the dataset was crawled against.
	Semester string `json:"semester,omitempty"`

	Schools         []SnapshotSchool         `json:"schools"`
	GTCourses       []SnapshotGTCourse       `json:"gt_courses"`
	ExternalCourses []SnapshotExternalCourse `json:"external_courses"`
	Equivalencies   []SnapshotEquivalency    `json:"equivalencies"`
}

// SnapshotSchool is one School row.
type SnapshotSchool struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SnapshotGTCourse is one GTCourse row.
type SnapshotGTCourse struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	CreditHours float64 `json:"credit_hours"`
}

// SnapshotExternalCourse is one ExternalCourse row.
type SnapshotExternalCourse struct {
	ID          int64   `json:"id"`
	SchoolID    int64   `json:"school_id"`
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	CreditHours float64 `json:"credit_hours"`
}

// SnapshotEquivalency is one Equivalency row.
type SnapshotEquivalency struct {
	ID                 int64  `json:"id"`
	GTCourseID         int64  `json:"gt_course_id"`
	SchoolID           int64  `json:"school_id"`
	ExternalCourseCode string `json:"external_course_code"`
	Semester           string `json:"semester"`
}

// EquivalencyView is one row of the course lookup join: an Equivalency
// joined with its School, GTCourse, and (when known) ExternalCourse.
// ExternalTitle and ExternalCreditHours are zero-valued when the upstream
// source reported the equivalency before the course's full record.
type EquivalencyView struct {
	GTCode              string  `json:"gt_code"`
	GTTitle             string  `json:"gt_title"`
	GTCreditHours       float64 `json:"gt_credit_hours"`
	SchoolName          string  `json:"school_name"`
	ExternalCode        string  `json:"external_code"`
	ExternalTitle       string  `json:"external_title,omitempty"`
	ExternalCreditHours float64 `json:"external_credit_hours,omitempty"`
	Semester            string  `json:"semester"`
}
