package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/auth"
	"github.com/ukydev/fleetfix/internal/service"
	"github.com/ukydev/fleetfix/internal/upload"
)

var badRequestErrors = []error{
	service.ErrCodeRequired,
	service.ErrTooManyImages,
	service.ErrInvalidSide,
	service.ErrNoPhotos,
	service.ErrNoTires,
	service.ErrInvalidMileage,
	service.ErrTruckRequired,
	api.ErrTireIdentityMissing,
	api.ErrNegativeMileage,
	auth.ErrInvalidInput,
}

// statusFor maps workflow errors onto HTTP statuses.
func statusFor(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}

	var missing *service.MissingReadingsError
	var statusErr *api.StatusError
	var batchErr *upload.BatchError
	var presignErr *upload.PresignError
	var transferErr *upload.TransferError
	var publishErr *upload.PublishError

	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNothingToComplete):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, api.ErrSessionExpired),
		errors.Is(err, api.ErrNoToken):
		return http.StatusUnauthorized
	case errors.As(err, &batchErr), errors.As(err, &presignErr),
		errors.As(err, &transferErr), errors.As(err, &publishErr):
		return http.StatusBadGateway
	case errors.As(err, &statusErr):
		if statusErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and sends the error message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	respondError(w, status, err.Error())
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
