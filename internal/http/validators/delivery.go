package validators

import (
	"strings"

	dto "assignmint.com/assignmint/internal/data_models"
	apperrors "assignmint.com/assignmint/internal/errors"
)

const maxDeliveryFiles = 20

func ValidateDeliveryRequest(r *dto.DeliveryRequest) error {
	if len(r.Files) == 0 && strings.TrimSpace(r.Message) == "" {
		return apperrors.ErrValidation.WithMessage("files or message required")
	}
	if len(r.Files) > maxDeliveryFiles {
		return apperrors.ErrValidation.WithMessage("too many files")
	}
	for _, f := range r.Files {
		if strings.TrimSpace(f.Name) == "" {
			return apperrors.ErrValidation.WithMessage("file name is required")
		}
		if f.Size < 0 {
			return apperrors.ErrValidation.WithMessage("file size must not be negative")
		}
	}
	return nil
}

func ValidateTaskActionRequest(r *dto.TaskActionRequest) error {
	if strings.TrimSpace(r.Action) == "" {
		return apperrors.ErrValidation.WithMessage("action is required")
	}
	return nil
}
