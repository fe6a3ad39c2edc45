package ledger

import (
	"errors"

	"gorm.io/gorm"

	"landq-backend/pkg/apperr"
)

var ErrUnavailable = apperr.New(apperr.KindUnavailable, "ledger_unavailable", "ledger unavailable")

// translate maps store errors onto domain errors. Coded errors pass through,
// a missing row becomes notFound and anything else is reported unavailable.
func translate(err, notFound error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return ErrUnavailable.Wrap(err)
}
