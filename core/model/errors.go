package model

import "github.com/hydras3/hydras/pkg/errors"

func raggedRowError(op string, row, want, got int) error {
	return errors.NewInvalidInputErrorf(op, "row %d has %d features, expected %d", row, got, want)
}
