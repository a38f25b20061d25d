package state

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var Schema string

// InitSchema creates the tables and notification triggers if they don't
// already exist.
func (s *DBStorage) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("can't create schema: %w", err)
	}
	return nil
}
