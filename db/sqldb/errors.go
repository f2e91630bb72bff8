package sqldb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrMissingConf    = errors.New("missing configuration")
	ErrNotInitialized = errors.New("sql db client not initialized")
)

// MissingConfError names the required Conf fields that were left empty
type MissingConfError struct {
	Fields []string
}

func (e *MissingConfError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingConf, strings.Join(e.Fields, ", "))
}

func (e *MissingConfError) Is(target error) bool {
	return target == ErrMissingConf
}

// ErrorKind is a coarse classification of a statement failure
type ErrorKind uint8

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindConfig
	ErrorKindConnection
	ErrorKindAuth
	ErrorKindSyntax
	ErrorKindSchema
	ErrorKindConstraint
	ErrorKindPermission
	ErrorKindLock
	ErrorKindTimeout
	ErrorKindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindConfig:
		return "config"
	case ErrorKindConnection:
		return "connection"
	case ErrorKindAuth:
		return "auth"
	case ErrorKindSyntax:
		return "syntax"
	case ErrorKindSchema:
		return "schema"
	case ErrorKindConstraint:
		return "constraint"
	case ErrorKindPermission:
		return "permission"
	case ErrorKindLock:
		return "lock"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ClassifyFunc maps a driver error to an ErrorKind.
// Backends return ErrorKindUnknown for errors they don't recognize.
type ClassifyFunc func(err error) ErrorKind

// ClassifyCommon covers errors that are not driver specific
func ClassifyCommon(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrorKindCanceled
	}
	if errors.Is(err, ErrMissingConf) || errors.Is(err, ErrNotInitialized) {
		return ErrorKindConfig
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorKindTimeout
		}
		return ErrorKindConnection
	}
	return ErrorKindUnknown
}

// Failure describes why a statement could not be run.
// Type is the Go type of the innermost error, Message the text of the outermost.
type Failure struct {
	Kind    ErrorKind
	Type    string
	Message string
	Err     error
}

// NewFailure classifies err with classify, then with ClassifyCommon
func NewFailure(err error, classify ClassifyFunc) *Failure {
	kind := ErrorKindUnknown
	if classify != nil {
		kind = classify(err)
	}
	if kind == ErrorKindUnknown {
		kind = ClassifyCommon(err)
	}
	return &Failure{
		Kind:    kind,
		Type:    rootTypeName(err),
		Message: err.Error(),
		Err:     err,
	}
}

func (f *Failure) Error() string {
	return f.Type + " - " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func rootTypeName(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}
