package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidatorCollectsAllErrors(t *testing.T) {
	err := NewConfigValidator("server").
		Required("data_dir", "").
		RangeInt("port", 70000, 1, 65535).
		OneOf("delete_policy", "purge", "reject", "cascade").
		MinDuration("shutdown_timeout", time.Millisecond, time.Second).
		Positive("max_body_kb", 0).
		Validate()

	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"server.data_dir", "server.port", "server.delete_policy", "server.shutdown_timeout", "server.max_body_kb"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %q in %q", want, err.Error())
		}
	}
}

func TestConfigValidatorPasses(t *testing.T) {
	cv := NewConfigValidator("server").
		Required("data_dir", "./data").
		RangeInt("port", 8080, 1, 65535).
		OneOf("delete_policy", "cascade", "reject", "cascade").
		MinDuration("shutdown_timeout", 5*time.Second, time.Second).
		Positive("max_body_kb", 512)

	if err := cv.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if len(cv.Errors()) != 0 {
		t.Errorf("Expected no recorded errors, got %v", cv.Errors())
	}
}

func TestConfigValidatorCustomAndWhen(t *testing.T) {
	sentinel := errors.New("bad url")
	err := NewConfigValidator("storage").
		When(true, func(cv *ConfigValidator) {
			cv.Custom("database_url", func() error { return sentinel })
		}).
		When(false, func(cv *ConfigValidator) {
			cv.Required("never_checked", "")
		}).
		Validate()

	if !errors.Is(err, sentinel) {
		t.Errorf("Expected wrapped sentinel, got %v", err)
	}
	if strings.Contains(err.Error(), "never_checked") {
		t.Error("When(false) applied its validations")
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr("", "memory"); got != "memory" {
		t.Errorf("DefaultOr(\"\") = %q", got)
	}
	if got := DefaultOr("wal", "memory"); got != "wal" {
		t.Errorf("DefaultOr(\"wal\") = %q", got)
	}
	if got := DefaultOr(0, 8080); got != 8080 {
		t.Errorf("DefaultOr(0) = %d", got)
	}
}
