package validation

import (
	"strings"
	"testing"

	"github.com/skillsenselab/telepathy/internal/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("backend", "stub")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("backend", "")
	if !v2.HasErrors() {
		t.Error("expected error for empty required field")
	}

	v3 := New()
	v3.Required("backend", "   ")
	if !v3.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorMaxLength(t *testing.T) {
	v := New()
	v.MaxLength("detector", "short", 10)
	if v.HasErrors() {
		t.Error("expected no error for string within limit")
	}

	v2 := New()
	v2.MaxLength("detector", "much too long for this", 5)
	if !v2.HasErrors() {
		t.Error("expected error for string over limit")
	}
}

func TestValidatorRange(t *testing.T) {
	v := New()
	v.Range("port", 17845, 1, 65535)
	if v.HasErrors() {
		t.Error("expected no error for port in range")
	}

	v2 := New()
	v2.Range("port", 70000, 1, 65535)
	if !v2.HasErrors() {
		t.Error("expected error for port out of range")
	}
}

func TestValidatorMin(t *testing.T) {
	v := New()
	v.Min("frames", 0, 0)
	if v.HasErrors() {
		t.Error("expected no error for value at minimum")
	}

	v2 := New()
	v2.Min("frames", -1, 0)
	if !v2.HasErrors() {
		t.Error("expected error for value below minimum")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"stub", "autoavsr"}

	v := New()
	v.OneOf("backend", "stub", allowed)
	if v.HasErrors() {
		t.Error("expected no error for allowed value")
	}

	v2 := New()
	v2.OneOf("backend", "whisper", allowed)
	if !v2.HasErrors() {
		t.Error("expected error for disallowed value")
	}

	// Empty values are skipped: pair with Required when mandatory.
	v3 := New()
	v3.OneOf("backend", "", allowed)
	if v3.HasErrors() {
		t.Error("expected empty value to be skipped")
	}
}

func TestValidatorPattern(t *testing.T) {
	v := New()
	v.Pattern("host", "127.0.0.1", `^[0-9.]+$`)
	if v.HasErrors() {
		t.Error("expected no error for matching pattern")
	}

	v2 := New()
	v2.Pattern("host", "not an ip!", `^[0-9.]+$`)
	if !v2.HasErrors() {
		t.Error("expected error for non-matching pattern")
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(true, "timeout", "must not be negative")
	if v.HasErrors() {
		t.Error("expected no error when condition holds")
	}

	v2 := New()
	v2.Custom(false, "timeout", "must not be negative")
	if !v2.HasErrors() {
		t.Error("expected error when condition fails")
	}
}

func TestValidatorValidateCollectsAll(t *testing.T) {
	v := New().
		Required("backend", "").
		Min("port", -1, 1)

	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected AppError for failed validation")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "backend") || !strings.Contains(appErr.Message, "port") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", appErr.Details["fields"])
	}
}

func TestValidatorValidateNilWhenClean(t *testing.T) {
	if err := New().Required("x", "y").Validate(); err != nil {
		t.Errorf("expected nil AppError, got %v", err)
	}
}

func TestRequiredHelper(t *testing.T) {
	if err := Required("repo", "/opt/model"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := Required("repo", ""); err == nil {
		t.Error("expected error for empty value")
	}
}

// --- struct tag validation ---

type sampleRequest struct {
	Frames int     `json:"frames" validate:"gte=0"`
	FPS    float64 `json:"fps" validate:"gte=0"`
	Video  string  `json:"videoDataUrl" validate:"required"`
	Mode   string  `json:"mode" validate:"omitempty,oneof=stub autoavsr"`
}

func TestValidateStructValid(t *testing.T) {
	req := sampleRequest{Frames: 10, FPS: 24, Video: "data:video/mp4;base64,AAAA"}
	if err := Validate(req); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}
}

func TestValidateStructMissingRequired(t *testing.T) {
	req := sampleRequest{Frames: 10}
	err := Validate(req)
	if err == nil {
		t.Fatal("expected error for missing videoDataUrl")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if !strings.Contains(appErr.Message, "videoDataUrl") {
		t.Errorf("expected json field name in message, got %q", appErr.Message)
	}
	if !strings.Contains(appErr.Message, "is required") {
		t.Errorf("expected readable reason, got %q", appErr.Message)
	}
}

func TestValidateStructNegativeNumber(t *testing.T) {
	req := sampleRequest{Frames: -5, Video: "data:video/mp4;base64,AAAA"}
	err := Validate(req)
	if err == nil {
		t.Fatal("expected error for negative frames")
	}
	if !strings.Contains(err.Error(), "at least 0") {
		t.Errorf("expected gte message, got %q", err.Error())
	}
}

func TestValidateStructOneOf(t *testing.T) {
	req := sampleRequest{Video: "data:video/mp4;base64,AAAA", Mode: "whisper"}
	err := Validate(req)
	if err == nil {
		t.Fatal("expected error for invalid mode")
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("expected oneof message, got %q", err.Error())
	}
}

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Frames":       "frames",
		"VideoDataURL": "video_data_u_r_l",
		"FPS":          "f_p_s",
		"lower":        "lower",
	}
	for in, want := range cases {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
