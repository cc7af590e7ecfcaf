package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("colorid", func(fl validator.FieldLevel) bool {
		id := fl.Field().String()
		return id == "" || paper.IsColorID(id)
	})
	_ = v.RegisterValidation("papertype", func(fl validator.FieldLevel) bool {
		return paper.Type(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// bind parses the JSON body into dst and validates it. On failure the
// error response has already been written and handled is true.
func (s *Server) bind(c *fiber.Ctx, dst any) (handled bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return true, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return true, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		resp := ErrorResponse{Error: "validation failed"}
		for _, e := range verrs {
			resp.Fields = append(resp.Fields, FieldError{
				Field:   e.Field(),
				Message: fieldMessage(e.Tag(), e.Param()),
			})
		}
		return true, c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	return false, nil
}

func fieldMessage(tag, param string) string {
	switch tag {
	case "required", "notblank":
		return "This field is required"
	case "required_without":
		return fmt.Sprintf("Required when %s is not set", param)
	case "gt":
		return fmt.Sprintf("Must be greater than %s", param)
	case "colorid":
		return "Must be a palette color id"
	case "papertype":
		return fmt.Sprintf("Must be one of: %s, %s, %s", paper.TypeURL, paper.TypeFile, paper.TypeVideo)
	case "dive":
		return "Invalid item in collection"
	default:
		return fmt.Sprintf("Failed %s validation", tag)
	}
}
