// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Operation names one analytics endpoint.
type Operation string

const (
	OpAggregate    Operation = "aggregate"
	OpTimeSeries   Operation = "timeseries"
	OpEntities     Operation = "entity-analytics"
	OpSectors      Operation = "sector-analysis"
	OpProducts     Operation = "product-timeseries"
	OpCorrelations Operation = "business-correlations"
	OpScorecard    Operation = "scorecard"
)

// ReportSnapshot is the audit record of one generated report. It is written
// after the response is built and never read back by report computation.
type ReportSnapshot struct {
	ID            string    `json:"id"`
	Operation     Operation `json:"operation"`
	GeneratedAt   time.Time `json:"generatedAt"`
	TotalEntities int       `json:"totalEntities"`
	Score         float64   `json:"score,omitempty"`
	Grade         string    `json:"grade,omitempty"`
	Warnings      []string  `json:"warnings,omitempty"`
	RequestID     string    `json:"requestId,omitempty"`
}

// NewSnapshot returns a snapshot with a fresh id.
func NewSnapshot(op Operation, at time.Time, totalEntities int, warnings []string) ReportSnapshot {
	return ReportSnapshot{
		ID:            uuid.NewString(),
		Operation:     op,
		GeneratedAt:   at.UTC(),
		TotalEntities: totalEntities,
		Warnings:      warnings,
	}
}

// Degraded reports whether any section fell back to defaults.
func (s ReportSnapshot) Degraded() bool {
	return len(s.Warnings) > 0
}
