package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tracker-suite/internal/repository"
)

// toStatus maps a storage error to a status the client may see. Anything
// unexpected is logged and reported as Internal.
func (h *Handler) toStatus(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrTenantMismatch):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, repository.ErrDuplicateKey):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	h.logger.Error(op, "err", err)
	return status.Error(codes.Internal, "internal error")
}
