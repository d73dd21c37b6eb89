package engine

import (
	"context"

	"github.com/pkg/errors"
)

// MigrateSlots copies every slot from src into dst and returns how many were
// copied. This works for:
// - File -> SQLite (moving to an embedded database)
// - SQLite/Redis -> File (backup or offline copy)
func MigrateSlots(ctx context.Context, src, dst SlotStore) (int, error) {
	names, err := src.Names(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list source slots")
	}

	copied := 0
	for _, name := range names {
		data, err := src.Load(ctx, name)
		if err != nil {
			return copied, errors.Wrapf(err, "failed to read slot %s", name)
		}
		if err := dst.Save(ctx, name, data); err != nil {
			return copied, errors.Wrapf(err, "failed to write slot %s to destination", name)
		}
		copied++
	}
	return copied, nil
}
