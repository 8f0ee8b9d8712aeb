// Package repository stores the audit trail of generated reports.
package repository

import (
	"context"

	"github.com/okian/bizlens/internal/domain/model"
)

// Store persists report snapshots. Report computation never reads from it.
type Store interface {
	// Save appends a snapshot.
	Save(ctx context.Context, s model.ReportSnapshot) error

	// Recent returns up to limit snapshots, newest first.
	// Returns ErrInvalidLimit if limit < 1.
	Recent(ctx context.Context, limit int) ([]model.ReportSnapshot, error)

	// Count returns the number of stored snapshots.
	Count(ctx context.Context) (int, error)

	Close() error
}
