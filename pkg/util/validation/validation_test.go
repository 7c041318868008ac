package validation

import (
	"testing"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type sample struct {
	Title  string `form:"title" validate:"required,max=5"`
	Email  string `json:"email" validate:"omitempty,email"`
	Status string `form:"status" validate:"omitempty,oneof=TODO DONE"`
}

func TestStructPasses(t *testing.T) {
	if err := Struct(sample{Title: "ok", Email: "a@b.io", Status: "DONE"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructReportsFieldsByTagName(t *testing.T) {
	err := Struct(sample{Title: "", Email: "nope", Status: "LATER"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation code, got %s", domainErr.Code)
	}
	for _, field := range []string{"title", "email", "status"} {
		if _, ok := domainErr.Details[field]; !ok {
			t.Fatalf("missing detail for %s: %v", field, domainErr.Details)
		}
	}
	if got := domainErr.Details["title"]; got != "title field is required" {
		t.Fatalf("unexpected title message %q", got)
	}
	if got := domainErr.Details["status"]; got != "status must be one of TODO, DONE" {
		t.Fatalf("unexpected status message %q", got)
	}
}

func TestStructMaxLength(t *testing.T) {
	err := Struct(sample{Title: "too long"})
	domainErr := apperrors.ToDomainError(err)
	if got := domainErr.Details["title"]; got != "title length must be at most 5" {
		t.Fatalf("unexpected message %q", got)
	}
}
