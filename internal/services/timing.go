package services

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// TrackTime logs how long an engine operation took. Use with defer:
//
//	defer TrackTime("RecalculateAll", time.Now())
func TrackTime(op string, start time.Time) {
	log.WithFields(log.Fields{
		"op":          op,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("operation finished")
}
