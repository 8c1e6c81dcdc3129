package snapbook

import (
	"fmt"
	"strings"
)

var allowedSources = map[string]bool{
	SourceManual:             true,
	SourceScheduled:          true,
	SourceBeforeStatusChange: true,
}

var allowedFrequencies = map[string]bool{
	FrequencyWeekly:             true,
	FrequencyMonthly:            true,
	FrequencyBeforeStatusChange: true,
}

// normalizeTags lower-cases, trims, de-duplicates, and drops empty tags,
// preserving first-seen order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func validateCaptureRequest(req *CaptureRequest, cfg *Config) error {
	if !allowedSources[req.CreationSource] {
		return fmt.Errorf("%w: unknown creation_source %q", ErrInvalidInput, req.CreationSource)
	}
	if len(req.Name) > cfg.MaxNameLen {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, cfg.MaxNameLen)
	}
	if len(req.Tags) > cfg.MaxTags {
		return fmt.Errorf("%w: more than %d tags", ErrInvalidInput, cfg.MaxTags)
	}
	return nil
}

func validateScheduleRequest(req *ScheduleRequest) error {
	if !allowedFrequencies[req.Frequency] {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, req.Frequency)
	}
	switch req.Frequency {
	case FrequencyWeekly:
		if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
			return fmt.Errorf("%w: day_of_week must be 0-6", ErrInvalidInput)
		}
	case FrequencyMonthly:
		if req.DayOfMonth < 1 || req.DayOfMonth > 31 {
			return fmt.Errorf("%w: day_of_month must be 1-31", ErrInvalidInput)
		}
	}
	if req.RetentionCount < 0 {
		return fmt.Errorf("%w: retention_count must be positive", ErrInvalidInput)
	}
	return nil
}
