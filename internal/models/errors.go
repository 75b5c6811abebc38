package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrValidation = errors.New("request failed validation")
var ErrConflict = errors.New("resource conflict")

// ErrVehicleUnavailable indicates that a vehicle could not be reserved because
// it is already assigned, in maintenance, or offline. Conflict family: the
// caller may retry the higher-level operation.
var ErrVehicleUnavailable = errors.New("vehicle is not available for reservation")

// ErrRouteTerminal indicates an attempt to mutate a route that has already
// reached a terminal status (completed or cancelled).
var ErrRouteTerminal = errors.New("route is in a terminal status")

var ErrInvalidTransition = errors.New("invalid status transition")

// ErrDistanceProvider wraps failures of the external distance-matrix service
// after retries are exhausted. Retryable: no partial state has been committed.
var ErrDistanceProvider = errors.New("distance provider unavailable")

// ErrMatrixDimension signals a mismatch between the distance matrix and the
// location set handed to the optimizer. Programming error, not user error.
var ErrMatrixDimension = errors.New("distance matrix dimension mismatch")
