package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var paramNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// validatePathPattern validates a store path pattern with {param}
// placeholders. Raw MQTT wildcards are rejected for explicitness; parameter
// names must start with a letter and contain only alphanumerics and
// underscores.
func validatePathPattern(path string) error {
	if path == "" {
		return errors.New("path cannot be empty")
	}

	if strings.HasPrefix(path, "/") {
		return errors.New("leading slash is not allowed")
	}

	if strings.HasSuffix(path, "/") {
		return errors.New("trailing slash is not allowed")
	}

	for segment := range strings.SplitSeq(path, "/") {
		if segment == "" {
			return errors.New("empty segments are not allowed")
		}

		if strings.Contains(segment, "#") {
			return errors.New("multi-level wildcard '#' is not supported - use explicit parameters {param} instead")
		}

		if strings.Contains(segment, "+") {
			return errors.New("wildcard '+' is not supported - use parameter syntax {param} instead")
		}

		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			paramName := segment[1 : len(segment)-1]
			if !paramNamePattern.MatchString(paramName) {
				return fmt.Errorf("invalid parameter name '%s' - must start with a letter and contain only alphanumeric characters and underscores", paramName)
			}
		} else if strings.Contains(segment, "{") || strings.Contains(segment, "}") {
			return errors.New("invalid parameter syntax - use {paramName} format")
		}
	}

	return nil
}

// validateConcretePath validates a path used for writes and deletes, which
// must not contain placeholders.
func validateConcretePath(path string) error {
	if err := validatePathPattern(path); err != nil {
		return err
	}

	if strings.Contains(path, "{") {
		return errors.New("write path cannot contain {param} placeholders")
	}

	return nil
}

// toWildcard converts a parameterized path (relays/{deviceID}/telemetry) to
// an MQTT wildcard pattern (relays/+/telemetry).
func toWildcard(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			segments[i] = "+"
		}
	}

	return strings.Join(segments, "/")
}

// validateQoS validates a QoS level.
func validateQoS(qos QoS) error {
	if qos != QoSAtMostOnce && qos != QoSAtLeastOnce && qos != QoSExactlyOnce {
		return errors.New("qos must be 0, 1, or 2")
	}

	return nil
}
