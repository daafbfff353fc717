// Package remote defines the capabilities the checker needs from a
// management endpoint: enumerate objects, describe them, read attributes
// and invoke zero-argument operations.
package remote

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrConnect is returned when a session cannot be opened.
	ErrConnect = errors.New("connect failed")
	// ErrBadURL is returned for an endpoint URL that cannot be used.
	ErrBadURL = errors.New("bad endpoint url")
	// ErrInstanceNotFound is returned when an object or member does not exist.
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrIntrospection is returned when an object cannot be described.
	ErrIntrospection = errors.New("introspection failed")
)

// AccessError reports a failed read or invocation of one member.
type AccessError struct {
	Object ObjectName
	Member string
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access %s on %s: %v", e.Member, e.Object, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// Credentials are passed to Dialer.Open when a user is configured.
type Credentials struct {
	User     string
	Password string
}

// MemberInfo names an attribute or operation and its remote type name.
type MemberInfo struct {
	Name string
	Type string
}

// ObjectInfo describes the readable attributes and zero-argument operations
// of one object.
type ObjectInfo struct {
	Attributes []MemberInfo
	Operations []MemberInfo
}

// Session is an open connection to a management endpoint.
type Session interface {
	ListObjects(ctx context.Context) ([]ObjectName, error)
	Describe(ctx context.Context, name ObjectName) (*ObjectInfo, error)
	GetAttribute(ctx context.Context, name ObjectName, attribute string) (any, error)
	Invoke(ctx context.Context, name ObjectName, operation string) (any, error)
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Open(ctx context.Context, url string, creds *Credentials) (Session, error)
}
