// Package config provides fail-open environment loaders and the validators
// used by the service configuration structs.
//
// A loader never fails: invalid or out-of-range values are replaced by the
// default and reported through Result.Warnings so the caller can log them
// and bump its fallback metric.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of loading a single environment variable.
type Result[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// Parser converts a raw environment value into T.
type Parser[T any] func(string) (T, error)

// LoadEnv reads envKey, parses it and validates it. Unset or empty
// variables yield the default without warnings.
func LoadEnv[T any](envKey string, defaultValue T, parse Parser[T], validate func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return Result[T]{Value: defaultValue}
	}

	value, err := parse(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, fmt.Sprintf("cannot parse: %v", err))
	}
	if validate != nil {
		if err := validate(value); err != nil {
			return fallback(envKey, raw, defaultValue, err.Error())
		}
	}
	return Result[T]{Value: value}
}

func fallback[T any](envKey, raw string, defaultValue T, reason string) Result[T] {
	return Result[T]{
		Value: defaultValue,
		Warnings: []string{
			fmt.Sprintf("%s=%q is invalid (%s), using default %v", envKey, raw, reason, defaultValue),
		},
		FallbackApplied: true,
	}
}

// LoadEnvString returns the variable or defaultValue when it is unset.
func LoadEnvString(envKey, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string value checked by validator.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) Result[string] {
	return LoadEnv(envKey, defaultValue, parseString, validator)
}

// LoadEnvDuration loads a time.ParseDuration value. Bare integers are read
// as seconds so "600" and "600s" are equivalent.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) Result[time.Duration] {
	return LoadEnv(envKey, defaultValue, ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) Result[int] {
	return LoadEnv(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvFloat loads a float64.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) Result[float64] {
	return LoadEnv(envKey, defaultValue, parseFloat, validator)
}

// LoadEnvBool loads a strconv.ParseBool value.
func LoadEnvBool(envKey string, defaultValue bool) Result[bool] {
	return LoadEnv(envKey, defaultValue, strconv.ParseBool, nil)
}

// ParseDuration accepts Go duration syntax or a bare number of seconds.
func ParseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func parseString(raw string) (string, error) { return raw, nil }

func parseFloat(raw string) (float64, error) { return strconv.ParseFloat(raw, 64) }
