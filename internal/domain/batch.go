package domain

import (
	"fmt"
	"strconv"
	"time"
)

// BatchZone is the fixed UTC+8 offset batch identifiers are computed in.
var BatchZone = time.FixedZone("UTC+8", 8*60*60)

const batchDateLayout = "2006-01-02"

// BatchID identifies one pipeline invocation cohort, formatted YYYY-MM-DD-HH.
type BatchID string

// Edition is the morning/evening label of a batch.
type Edition string

const (
	EditionMorning Edition = "Morning"
	EditionEvening Edition = "Evening"
)

// NewBatchID derives the batch identifier for the given instant.
func NewBatchID(now time.Time) BatchID {
	local := now.In(BatchZone)
	return BatchID(fmt.Sprintf("%s-%02d", local.Format(batchDateLayout), local.Hour()))
}

// Parse splits the identifier into its date (midnight UTC+8) and hour.
func (b BatchID) Parse() (time.Time, int, error) {
	s := string(b)
	if len(s) != len("2006-01-02-15") || s[10] != '-' {
		return time.Time{}, 0, fmt.Errorf("malformed batch id %q", s)
	}
	day, err := time.ParseInLocation(batchDateLayout, s[:10], BatchZone)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("batch id %q date: %w", s, err)
	}
	hour, err := strconv.Atoi(s[11:])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, 0, fmt.Errorf("batch id %q hour out of range", s)
	}
	return day, hour, nil
}

// Edition returns Morning for hours before noon and Evening otherwise.
func (b BatchID) Edition() (Edition, error) {
	_, hour, err := b.Parse()
	if err != nil {
		return "", err
	}
	if hour < 12 {
		return EditionMorning, nil
	}
	return EditionEvening, nil
}

func (b BatchID) String() string {
	return string(b)
}
