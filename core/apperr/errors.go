// Package apperr is the closed set of business error codes the game core
// can raise, each carrying its own HTTP status and client-facing envelope:
// a single source of truth for error-to-HTTP mapping, with every error kind
// a tagged variant and every conversion total.
package apperr

import (
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable business error identifier.
type Code string

const (
	CodeRoomNotFound            Code = "ROOM_NOT_FOUND"
	CodeRoomFull                Code = "ROOM_FULL"
	CodeInvalidPublicKey        Code = "INVALID_PUBLIC_KEY"
	CodeTokenGenerationFailed   Code = "TOKEN_GENERATION_FAILED"
	CodeExpiredToken            Code = "EXPIRED_TOKEN"
	CodeMissingToken            Code = "MISSING_TOKEN"
	CodeInvalidToken            Code = "INVALID_TOKEN"
	CodeMemberNotFound          Code = "MEMBER_NOT_FOUND"
	CodeTokenEncryptionFailed   Code = "TOKEN_ENCRYPTION_FAILED"
	CodeRequiresOwnerPermission Code = "REQUIRES_OWNER_PERMISSION"
	CodeInvalidGamePhase        Code = "INVALID_GAME_PHASE"
	CodeAlreadySentMessage      Code = "ALREADY_SENT_MESSAGE"
	CodeValidationError         Code = "VALIDATION_ERROR"
	CodeDatabaseError           Code = "DATABASE_ERROR"
	CodeUnknownError            Code = "UNKNOWN_ERROR"
	CodeLiarLiarPantsOnFire     Code = "LIAR_LIAR_PANTS_ON_FIRE"
)

// httpStatus is the exhaustive code→status table; a code missing here is a
// build-time bug, caught by the fallback in Error.HTTPStatus.
var httpStatus = map[Code]int{
	CodeValidationError:         http.StatusBadRequest,
	CodeInvalidPublicKey:        http.StatusBadRequest,
	CodeInvalidToken:            http.StatusBadRequest,
	CodeInvalidGamePhase:        http.StatusBadRequest,
	CodeAlreadySentMessage:      http.StatusBadRequest,
	CodeLiarLiarPantsOnFire:     http.StatusBadRequest,
	CodeMissingToken:            http.StatusUnauthorized,
	CodeExpiredToken:            http.StatusUnauthorized,
	CodeRequiresOwnerPermission: http.StatusForbidden,
	CodeRoomFull:                http.StatusForbidden,
	CodeRoomNotFound:            http.StatusNotFound,
	CodeMemberNotFound:          http.StatusNotFound,
	CodeTokenGenerationFailed:   http.StatusInternalServerError,
	CodeTokenEncryptionFailed:   http.StatusInternalServerError,
	CodeDatabaseError:           http.StatusInternalServerError,
	CodeUnknownError:            http.StatusInternalServerError,
}

// Error is a tagged application error: a business code, a client-safe
// message, optional structured details, and the underlying cause (never
// serialized, only logged).
type Error struct {
	Code    Code
	Message string
	Details any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus returns the status this error's code maps to.
func (e *Error) HTTPStatus() int {
	if status, ok := httpStatus[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Envelope is the wire shape of the error response: {code, message, details?}.
type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope renders the client-facing response body for this error.
func (e *Error) Envelope() Envelope {
	return Envelope{Code: string(e.Code), Message: e.Message, Details: e.Details}
}

// New constructs a tagged error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs a tagged error around an underlying cause, which is
// logged but never leaked to the client.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithDetails attaches structured details (e.g. {expected, current} for
// INVALID_GAME_PHASE) and returns the same error for chaining.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// RoomNotFound, RoomFull, ... are convenience constructors for the common
// cases so call sites read like the bands in the error-handling design.
func RoomNotFound() *Error {
	return New(CodeRoomNotFound, "no room exists for that join code")
}

func RoomFull() *Error {
	return New(CodeRoomFull, "the room has reached its member limit")
}

func InvalidPublicKey(cause error) *Error {
	return Wrap(CodeInvalidPublicKey, "the supplied public key could not be parsed", cause)
}

func TokenGenerationFailed(cause error) *Error {
	return Wrap(CodeTokenGenerationFailed, "failed to generate a secure token", cause)
}

func ExpiredToken() *Error {
	return New(CodeExpiredToken, "the token has expired")
}

func MissingToken() *Error {
	return New(CodeMissingToken, "no session token was presented")
}

func InvalidToken() *Error {
	return New(CodeInvalidToken, "the token is invalid or has already been used")
}

func MemberNotFound() *Error {
	return New(CodeMemberNotFound, "no member exists for that identity")
}

func TokenEncryptionFailed(cause error) *Error {
	return Wrap(CodeTokenEncryptionFailed, "failed to encrypt the challenge token", cause)
}

func RequiresOwnerPermission() *Error {
	return New(CodeRequiresOwnerPermission, "this operation requires room-owner permission")
}

// InvalidGamePhaseDetails is the {expected, current} detail payload carried
// by an INVALID_GAME_PHASE error.
type InvalidGamePhaseDetails struct {
	Expected string `json:"expected"`
	Current  string `json:"current"`
}

func InvalidGamePhase(expected, current string) *Error {
	return New(CodeInvalidGamePhase, "the room is not in the required phase for this action").
		WithDetails(InvalidGamePhaseDetails{Expected: expected, Current: current})
}

func AlreadySentMessage() *Error {
	return New(CodeAlreadySentMessage, "you have already published a message for this round")
}

func ValidationError(details any) *Error {
	return New(CodeValidationError, "the request data is invalid").WithDetails(details)
}

func Database(cause error) *Error {
	return Wrap(CodeDatabaseError, "an internal database error occurred", cause)
}

func Unknown(cause error) *Error {
	return Wrap(CodeUnknownError, "an internal server error occurred", cause)
}

func LiarLiarPantsOnFire(reason string) *Error {
	return New(CodeLiarLiarPantsOnFire, reason)
}
