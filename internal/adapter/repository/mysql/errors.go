package mysql

import (
	"errors"

	"realestate-lifecycle/internal/domain/shared"

	"gorm.io/gorm"
)

// translate maps storage errors onto the domain taxonomy; what is left is returned as-is.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.Wrap(shared.KindNotFound, what+" not found", err)
	default:
		return err
	}
}

func codeTaken(code string, err error) error {
	return shared.Wrap(shared.KindValidation, "contract_code "+code+" is already in use", err)
}

func versionConflict(what string, expected int) error {
	return shared.Newf(shared.KindConcurrentModification, "%s was modified concurrently (expected version %d); reload and retry", what, expected)
}
