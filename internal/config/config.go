// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an
// error.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the listing service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// Collection endpoints. JobSourceURL is required; the others are
	// optional screens.
	JobSourceURL       string
	GovExamSourceURL   string
	CandidateSourceURL string
	CollegeSourceURL   string

	// ApplyEndpointURL is the act-confirmation endpoint prefix.
	ApplyEndpointURL string

	PageSize             int
	RefreshIntervalHours int
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	jobSource := os.Getenv("JOB_SOURCE_URL")
	if jobSource == "" {
		return nil, fmt.Errorf("JOB_SOURCE_URL is required")
	}

	applyURL := os.Getenv("APPLY_ENDPOINT_URL")
	if applyURL == "" {
		return nil, fmt.Errorf("APPLY_ENDPOINT_URL is required")
	}

	pageSize := 20
	if s := os.Getenv("PAGE_SIZE"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("PAGE_SIZE must be a positive integer, got %q", s)
		}
		pageSize = v
	}

	interval := 6
	if s := os.Getenv("REFRESH_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("REFRESH_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	port := os.Getenv("LISTING_PORT")
	if port == "" {
		port = "8083"
	}

	return &Config{
		Port:                 port,
		DatabaseURL:          dbURL,
		RedisURL:             redisURL,
		JobSourceURL:         jobSource,
		GovExamSourceURL:     os.Getenv("GOV_EXAM_SOURCE_URL"),
		CandidateSourceURL:   os.Getenv("CANDIDATE_SOURCE_URL"),
		CollegeSourceURL:     os.Getenv("COLLEGE_SOURCE_URL"),
		ApplyEndpointURL:     applyURL,
		PageSize:             pageSize,
		RefreshIntervalHours: interval,
	}, nil
}
