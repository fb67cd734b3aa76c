package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultProfileFile is the default crawl profile file name.
const DefaultProfileFile = ".transfermap.yml"

// ErrProfileNotFound is returned when the crawl profile file does not
// exist. Callers treat this as fatal only when the path was given
// explicitly.
var ErrProfileNotFound = errors.New("crawl profile not found")

// Profile is an optional YAML file describing a reusable crawl setup.
// Useful for keeping a test slice (one school, one subject prefix) out of
// the environment.
type Profile struct {
	// StateName overrides the crawl state when non-empty.
	StateName string `yaml:"state"`

	// Level overrides the course level when non-empty.
	Level string `yaml:"level"`

	// Semester overrides the term label when non-empty.
	Semester string `yaml:"semester"`

	// SchoolNameFilter restricts the crawl to matching schools.
	SchoolNameFilter string `yaml:"school_filter"`

	// SubjectPrefixFilter restricts the crawl to matching subjects.
	SubjectPrefixFilter string `yaml:"subject_filter"`

	// SemesterPolicy overrides the repeat-observation policy.
	SemesterPolicy string `yaml:"semester_policy"`
}

// LoadProfile reads and parses a crawl profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided profile path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProfile locates the crawl profile: the explicit path if given, then
// the current directory, then the home directory. Returns an empty string
// when no profile exists.
func FindProfile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		p := filepath.Join(cwd, DefaultProfileFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, DefaultProfileFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// Apply copies the profile's non-empty fields onto c.
func (p *Profile) Apply(c *Config) {
	if p.StateName != "" {
		c.StateName = p.StateName
	}
	if p.Level != "" {
		c.Level = p.Level
	}
	if p.Semester != "" {
		c.Semester = p.Semester
	}
	if p.SchoolNameFilter != "" {
		c.SchoolNameFilter = p.SchoolNameFilter
	}
	if p.SubjectPrefixFilter != "" {
		c.SubjectPrefixFilter = p.SubjectPrefixFilter
	}
	if p.SemesterPolicy != "" {
		c.SemesterPolicy = p.SemesterPolicy
	}
}
