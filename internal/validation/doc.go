// Package validation provides input validation for telepathy requests and
// configuration.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// used for request payloads; programmatic validation covers the checks tags
// cannot express.
//
// # Struct Tag Validation
//
//	type TranscribeRequest struct {
//	    Frames int    `validate:"gte=0"`
//	    Video  string `validate:"required"`
//	}
//	err := validation.Validate(req)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Custom(port > 0, "port", "port must be positive")
//	err := v.Validate()
package validation
