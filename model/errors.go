package model

import (
	"errors"
	"net/http"
)

// ErrInvalidImage is wrapped by inference backends when a buffer cannot be decoded.
var ErrInvalidImage = errors.New("invalid image")

type ErrorKind string

const (
	KindMissingInput   ErrorKind = "missing_input"
	KindMalformedInput ErrorKind = "malformed_input"
	KindInternal       ErrorKind = "internal"
)

const (
	MsgNoImage      = "No image provided"
	MsgInvalidImage = "Invalid image"
)

// DetectError is the only error type that crosses the request boundary.
type DetectError struct {
	Kind     ErrorKind
	Message  string
	Filename string
	Err      error
}

func (e *DetectError) Error() string {
	return e.Message
}

func (e *DetectError) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *DetectError) Status() int {
	return StatusOf(e.Kind)
}

func StatusOf(kind ErrorKind) int {
	switch kind {
	case KindMissingInput, KindMalformedInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NewMissingInput() *DetectError {
	return &DetectError{
		Kind:    KindMissingInput,
		Message: MsgNoImage,
	}
}

func NewMalformedInput(filename string, err error) *DetectError {
	return &DetectError{
		Kind:     KindMalformedInput,
		Message:  MsgInvalidImage,
		Filename: filename,
		Err:      err,
	}
}

// NewMalformedUpload reports a multipart body that could not be parsed at all.
func NewMalformedUpload(err error) *DetectError {
	return &DetectError{
		Kind:    KindMalformedInput,
		Message: "Invalid upload",
		Err:     err,
	}
}

// NewInternal carries the raw error text to the client.
func NewInternal(filename string, err error) *DetectError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &DetectError{
		Kind:     KindInternal,
		Message:  msg,
		Filename: filename,
		Err:      err,
	}
}

// AsDetectError returns err as a *DetectError, classifying unknown errors as internal.
func AsDetectError(err error) *DetectError {
	if err == nil {
		return nil
	}
	var de *DetectError
	if errors.As(err, &de) {
		return de
	}
	return NewInternal("", err)
}
