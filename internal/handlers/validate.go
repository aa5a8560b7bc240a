package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is the shared validator for request bodies. Field names in
// messages follow the JSON tags.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// categoryRequest is the body of create and edit requests.
type categoryRequest struct {
	NamePrimary   string `json:"name_primary" validate:"required,max=300"`
	NameSecondary string `json:"name_secondary" validate:"max=300"`
	Slug          string `json:"slug" validate:"max=300"`
	ParentID      string `json:"parent_id" validate:"omitempty,uuid"`
	ActorID       string `json:"actor_id" validate:"max=100"`
}

// moveRequest is the body of a move request.
type moveRequest struct {
	SubjectID string `json:"subject_id" validate:"required,uuid"`
	TargetID  string `json:"target_id" validate:"required,uuid"`
	Intent    string `json:"intent" validate:"required,oneof=into before after"`
}

// viewRequest replaces the editor's view state.
type viewRequest struct {
	Expanded []string `json:"expanded" validate:"max=10000,dive,uuid"`
	Selected string   `json:"selected" validate:"omitempty,uuid"`
}

// validateRequest runs the struct validator and returns the first problem
// as a readable message, or "" when the request is valid.
func validateRequest(req any) string {
	err := validate.Struct(req)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "max":
		return fmt.Sprintf("%s is too long (max %s).", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a UUID.", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}

// parseOptionalID parses s as a UUID, returning nil for "". Callers
// validate the format first.
func parseOptionalID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
