package errors

var ErrInvalidJSON = ErrValidation.WithMessage("invalid JSON payload")
