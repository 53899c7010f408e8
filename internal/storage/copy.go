package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// CopyResult reports what Copy transferred.
type CopyResult struct {
	Members        int
	MembersSkipped int
	Admins         int
	AdminsSkipped  int
}

// Copy transfers members and admins from src to dst.
// Records already present in dst (same email) are skipped, so Copy can be re-run.
func Copy(ctx context.Context, dst, src Store) (CopyResult, error) {
	var res CopyResult

	members, err := src.ListMembers(ctx, All())
	if err != nil {
		return res, fmt.Errorf("failed to list source members: %w", err)
	}
	for _, m := range members {
		if err := dst.CreateMember(ctx, m); err != nil {
			if errors.Is(err, ErrConflict) {
				slog.Debug("Copy: member already present", "member_id", m.ID)
				res.MembersSkipped++
				continue
			}
			return res, fmt.Errorf("failed to copy member %s: %w", m.ID, err)
		}
		res.Members++
	}

	admins, err := src.ListAdmins(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list source admins: %w", err)
	}
	for _, a := range admins {
		if err := dst.CreateAdmin(ctx, a); err != nil {
			if errors.Is(err, ErrConflict) {
				res.AdminsSkipped++
				continue
			}
			return res, fmt.Errorf("failed to copy admin %s: %w", a.ID, err)
		}
		res.Admins++
	}

	return res, nil
}
