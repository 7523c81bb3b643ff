package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/edgeshim/errors"
)

type inner struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type outer struct {
	Name   string `mapstructure:"name" validate:"required"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Server inner  `mapstructure:"server"`
}

func TestValidatePasses(t *testing.T) {
	if err := Validate(outer{Name: "edge", Format: "json", Server: inner{Port: 8080}}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateReportsNestedFieldPaths(t *testing.T) {
	err := Validate(outer{Format: "xml", Server: inner{Port: 0}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	for _, want := range []string{"name: is required", "format: must be one of: json console", "server.port: must be at least 1"} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("expected %q in %q", want, appErr.Message)
		}
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 3 {
		t.Errorf("expected 3 field errors, got %v", appErr.Details["fields"])
	}
}

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{"ShutdownTimeout": "shutdown_timeout", "port": "port", "A": "a"}
	for in, want := range cases {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
