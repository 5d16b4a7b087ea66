package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
)

// EnvPrefix namespaces every variable read by the loader. The bare name is
// consulted when the prefixed one is unset.
const EnvPrefix = "REGISTRAR_"

// lookupEnv prefers REGISTRAR_<key> over <key>
func lookupEnv(key string) (string, bool) {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return value, true
	}
	return os.LookupEnv(key)
}

// processStructFields walks through struct fields to override config with env
// vars. Every bad value is reported, not only the first.
func processStructFields(s interface{}) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	var errs []error
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if field.Kind() == reflect.Struct {
			if err := processStructFields(field.Addr().Interface()); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envValue, exists := lookupEnv(envTag)
		if !exists {
			continue
		}

		if err := setFieldFromEnv(field, envValue); err != nil {
			errs = append(errs, fmt.Errorf("%s from env var %s: %w", fieldType.Name, envTag, err))
		}
	}

	return errors.Join(errs...)
}

// setFieldFromEnv sets a field value from an environment variable string
func setFieldFromEnv(field reflect.Value, value string) error {
	if !field.CanSet() {
		return errors.New("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer format: %w", err)
		}
		field.SetInt(intValue)

	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean format: %w", err)
		}
		field.SetBool(boolValue)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
