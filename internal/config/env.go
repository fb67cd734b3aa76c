package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv layers environment configuration onto c: first an optional
// .env file (loaded into the process environment without overriding
// variables that are already set), then the recognized variables from the
// process environment. Unset variables leave the current values alone.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// Best effort: a missing .env in the working directory is normal.
		_ = godotenv.Load()
	}

	setString(&c.BaseURL, "BASE_URL")
	setString(&c.StateName, "STATE_NAME")
	setString(&c.Level, "LEVEL")
	setString(&c.Semester, "SEMESTER")
	setString(&c.UserAgent, "USER_AGENT")
	setString(&c.SchoolNameFilter, "SCHOOL_NAME_FILTER")
	setString(&c.SubjectPrefixFilter, "SUBJECT_PREFIX_FILTER")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.SemesterPolicy, "SEMESTER_POLICY")

	if err := setInt(&c.RequestsPerMinute, "REQUESTS_PER_MINUTE"); err != nil {
		return err
	}
	if err := setInt(&c.RetryMax, "RETRY_MAX"); err != nil {
		return err
	}
	if err := setInt(&c.Workers, "WORKERS"); err != nil {
		return err
	}
	if err := setSeconds(&c.RetryBackoff, "RETRY_BACKOFF_SECONDS"); err != nil {
		return err
	}

	return nil
}

// setString overwrites dst when the variable is set and non-empty.
func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setInt overwrites dst when the variable is set, failing on junk rather
// than silently keeping the default.
func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

// setSeconds overwrites dst from a variable holding a (possibly
// fractional) second count.
func setSeconds(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	*dst = time.Duration(secs * float64(time.Second))
	return nil
}
