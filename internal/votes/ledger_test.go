package votes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		duplicate  bool
		foreignKey bool
	}{
		{name: "nil", err: nil},
		{name: "unrelated", err: errors.New("connection reset")},
		{name: "translated duplicate", err: gorm.ErrDuplicatedKey, duplicate: true},
		{name: "raw unique violation", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), duplicate: true},
		{name: "translated foreign key", err: gorm.ErrForeignKeyViolated, foreignKey: true},
		{name: "raw foreign key violation", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), foreignKey: true},
		{name: "other sqlstate", err: &pgconn.PgError{Code: "40001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.duplicate, isDuplicate(tt.err))
			assert.Equal(t, tt.foreignKey, isForeignKeyViolation(tt.err))
		})
	}
}
