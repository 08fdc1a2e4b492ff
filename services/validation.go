package services

import (
	"errors"
	"fmt"
	"fulfillment-wms/types"
	"fulfillment-wms/utils"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and reports the first failing field.
func validateStruct(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &types.ValidationError{Field: fe.Field(), Reason: describeTag(fe)}
	}
	return &types.ValidationError{Reason: err.Error()}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be an e-mail address"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// checkQuantity accepts a positive quantity with at most utils.QtyPrecision
// decimals. Stored counters are compared exactly, so finer input is refused.
func checkQuantity(field string, q decimal.Decimal) error {
	if !utils.QtyIsPositive(q) {
		return &types.ValidationError{Field: field, Reason: "must be greater than zero"}
	}
	if !utils.HasQtyPrecision(q) {
		return &types.ValidationError{Field: field, Reason: fmt.Sprintf("must have at most %d decimals", utils.QtyPrecision)}
	}
	return nil
}
