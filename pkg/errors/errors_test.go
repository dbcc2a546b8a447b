package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeSchema, "rooms[%d].width must be positive", 2)

	if err.Code != ErrCodeSchema {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeSchema)
	}
	if err.Message != "rooms[2].width must be positive" {
		t.Errorf("Message = %q", err.Message)
	}
	if got, want := err.Error(), "SCHEMA_ERROR: rooms[2].width must be positive"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if len(err.Subjects) != 0 {
		t.Errorf("Subjects = %v, want none", err.Subjects)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "extract scene")

	if err.Code != ErrCodeNetwork {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNetwork)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got, want := err.Error(), "NETWORK_ERROR: extract scene: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIs(t *testing.T) {
	dangling := DanglingParent("lamp1", "attic")

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"same code", dangling, ErrCodeDanglingParent, true},
		{"other code", dangling, ErrCodeDuplicateID, false},
		{"outermost code wins", Wrap(ErrCodeInvalidConfig, Schema("", "room.width", "bad"), "load"), ErrCodeInvalidConfig, true},
		{"fmt wrapped", fmt.Errorf("resolve: %w", dangling), ErrCodeDanglingParent, true},
		{"plain error", errors.New("boom"), ErrCodeSchema, false},
		{"nil", nil, ErrCodeSchema, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeDuplicateID, "test"),
			expected: ErrCodeDuplicateID,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRateLimitedError(t *testing.T) {
	t.Run("with retry after", func(t *testing.T) {
		err := &RateLimitedError{RetryAfter: 60}
		expected := "rate limited: retry after 60 seconds"
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("without retry after", func(t *testing.T) {
		err := &RateLimitedError{}
		expected := "rate limited"
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("code method", func(t *testing.T) {
		err := &RateLimitedError{}
		if err.Code() != ErrCodeRateLimited {
			t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeRateLimited)
		}
	})
}

func TestDanglingParent(t *testing.T) {
	err := DanglingParent("lamp1", "kitchen")

	if err.Code != ErrCodeDanglingParent {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDanglingParent)
	}
	subjects := Subjects(err)
	if len(subjects) != 2 || subjects[0] != "lamp1" || subjects[1] != "kitchen" {
		t.Errorf("Subjects() = %v, want [lamp1 kitchen]", subjects)
	}
	if !IsStructural(err) {
		t.Error("IsStructural() = false, want true")
	}
}

func TestCyclicAttachment(t *testing.T) {
	err := CyclicAttachment([]string{"a", "b", "c"})

	if err.Code != ErrCodeCyclicAttachment {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeCyclicAttachment)
	}
	if err.Message != "attachment cycle: a -> b -> c -> a" {
		t.Errorf("Message = %q", err.Message)
	}
	if len(err.Subjects) != 3 {
		t.Errorf("Subjects = %v, want 3 nodes", err.Subjects)
	}
}

func TestSchema(t *testing.T) {
	err := Schema("lamp1", "objects[0].position", "expected object, got %s", "string")

	expected := "SCHEMA_ERROR: objects[0].position: expected object, got string"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
	if got := Subjects(err); len(got) != 1 || got[0] != "lamp1" {
		t.Errorf("Subjects() = %v, want [lamp1]", got)
	}

	if anon := Schema("", "rooms", "expected array"); anon.Subjects != nil {
		t.Errorf("Subjects = %v, want nil", anon.Subjects)
	}
}

func TestOrderingInvariantIsNotStructural(t *testing.T) {
	err := Wrap(ErrCodeInternal, OrderingInvariant("b", "a"), "resolve placements")

	if IsStructural(err) {
		t.Error("IsStructural() = true, want false")
	}
	// The wrapper's code wins; the inner code is still reachable via errors.As.
	if GetCode(err) != ErrCodeInternal {
		t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeInternal)
	}
	if !errors.Is(err, err.Cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}
