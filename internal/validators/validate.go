package validators

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("txid", txidValidation)
	_ = validate.RegisterValidation("btc_amount", btcAmountValidation)
	validate.RegisterAlias("not_empty", "required")
	return validate
}

// txidValidation accepts 32-byte hex encoded transaction ids.
func txidValidation(fl validator.FieldLevel) bool {
	txid := fl.Field().String()
	if len(txid) != 64 {
		return false
	}
	_, err := hex.DecodeString(txid)
	return err == nil
}

// MaxSats is the total bitcoin supply in satoshis.
const MaxSats int64 = 21_000_000 * 100_000_000

// btcAmountValidation accepts positive satoshi amounts that do not exceed the total supply.
func btcAmountValidation(fl validator.FieldLevel) bool {
	if !fl.Field().CanInt() {
		return false
	}
	amount := fl.Field().Int()
	return amount > 0 && amount <= MaxSats
}

func ParseValidationError(errors validator.ValidationErrors) map[string]string {
	fieldErrors := make(map[string]string)
	for _, err := range errors {
		fieldErrors[getFieldName(err)] = msgForFieldError(err)
	}
	return fieldErrors
}

// msgForFieldError gets the message for the given validation error (tag).
func msgForFieldError(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "not_empty":
		return "This field cannot be empty"
	case "txid":
		return "Invalid transaction id provided"
	case "btc_amount":
		return "Amount must be at least 1 sat and no more than the total supply"
	case "oneof":
		params := strings.Join(strings.Split(fieldError.Param(), " "), ", ")
		return fmt.Sprintf("Unexpected value %q. Expected one of the following values: %s", fieldError.Value(), params)
	case "gt":
		if fieldError.Kind() == reflect.Slice || fieldError.Kind() == reflect.Array {
			return "Should have at least 1 element"
		}
		return fmt.Sprintf("Should be greater than %s", fieldError.Param())
	case "gte":
		return fmt.Sprintf("Should be greater than or equal %s", fieldError.Param())
	default:
		return "Invalid value"
	}
}

func getFieldName(fieldError validator.FieldError) string {
	// Ex.: structName.FieldName, structName.nestedStructName.nestedStructFieldName, structName.nestedStructName.nestedStructName....
	namespace := strings.Split(fieldError.StructNamespace(), ".")
	length := len(namespace)
	if length == 2 {
		return lcFirst(namespace[1])
	}

	if length > 2 {
		return fmt.Sprintf("%s.%s", lcFirst(namespace[length-2]), lcFirst(namespace[length-1]))
	}

	return lcFirst(namespace[0])
}

// lcFirst lowers the case of the first letter of the given string.
//
//	Example: Address -> address
func lcFirst(str string) string {
	for index, letter := range str {
		return string(unicode.ToLower(letter)) + str[index+1:]
	}
	return ""
}
