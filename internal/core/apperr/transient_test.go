package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type httpErr int

func (e httpErr) Error() string   { return fmt.Sprintf("http %d", int(e)) }
func (e httpErr) StatusCode() int { return int(e) }

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"canceled", fmt.Errorf("call: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, true},
		{"http 429", httpErr(429), true},
		{"http 503 wrapped", fmt.Errorf("embed: %w", httpErr(503)), true},
		{"http 400", httpErr(400), false},
		{"http 401", httpErr(401), false},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), true},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Fatalf("want=%t got=%t", tc.want, got)
			}
		})
	}
}

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unclassified", errors.New("connection reset"), false},
		{"canceled", context.Canceled, true},
		{"http 400", httpErr(400), true},
		{"http 429", httpErr(429), false},
		{"http 500", httpErr(500), false},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad"), true},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsPermanent(tc.err); got != tc.want {
				t.Fatalf("want=%t got=%t", tc.want, got)
			}
		})
	}
}
