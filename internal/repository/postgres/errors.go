package postgres

import (
	"github.com/lib/pq"

	"stockpulse/pkg/errors"
)

const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
