// Package validation provides input validation for pass descriptors, option
// schemas and configuration structs.
//
// It supports struct tag validation (using the go-playground validator library)
// and programmatic validation with error collection.
//
// # Struct Tag Validation
//
//	type PortDescriptor struct {
//	    Name string `yaml:"name" validate:"required,identifier"`
//	}
//	err := validation.Validate(desc)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.OneOf("precisionMode", mode, []string{"Double", "Single", "SingleCompensated"})
//	err := v.Validate()
package validation
