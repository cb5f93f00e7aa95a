package validators

import (
	"strings"

	"assignmint.com/assignmint/internal/constants"
	dto "assignmint.com/assignmint/internal/data_models"
	apperrors "assignmint.com/assignmint/internal/errors"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxTagsPerTask       = 10
)

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) error {
	var missing []string
	if strings.TrimSpace(r.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(r.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(r.Subject) == "" {
		missing = append(missing, "subject")
	}
	if r.Deadline.IsZero() {
		missing = append(missing, "deadline")
	}
	if len(missing) > 0 {
		return apperrors.ErrValidation.WithMessage(strings.Join(missing, ", ") + " required")
	}

	if len(r.Title) > maxTitleLength {
		return apperrors.ErrValidation.WithMessage("title is too long")
	}
	if len(r.Description) > maxDescriptionLength {
		return apperrors.ErrValidation.WithMessage("description is too long")
	}
	if r.Budget <= 0 {
		return apperrors.ErrValidation.WithMessage("budget must be positive")
	}
	if len(r.Tags) > maxTagsPerTask {
		return apperrors.ErrValidation.WithMessage("at most 10 tags are allowed")
	}
	if r.Urgency != "" && !constants.Urgency(r.Urgency).Valid() {
		return apperrors.ErrValidation.WithMessage("urgency must be one of high, medium, low")
	}
	if r.MatchingType != "" && !constants.MatchingType(r.MatchingType).Valid() {
		return apperrors.ErrValidation.WithMessage("matchingType must be manual or auto")
	}
	return nil
}
