package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// maxEntityNameLength bounds entity API names (40 characters plus namespace and suffix).
const maxEntityNameLength = 80

// entityNameRegex matches entity API names: a letter followed by letters,
// digits and single or double underscores.
var entityNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateEntityName validates an entity API name before it is used in a
// request path or cache key.
//
// Names are rejected when empty, longer than 80 characters, containing
// control characters or path separators, or not matching the API name
// alphabet. A trailing underscore is also rejected.
func ValidateEntityName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidEntity, "entity name cannot be empty")
	}

	if len(name) > maxEntityNameLength {
		return New(ErrCodeInvalidEntity, "entity name too long (max %d characters)", maxEntityNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidEntity, "entity name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidEntity, "entity name contains invalid characters: %q", pattern)
		}
	}

	if !entityNameRegex.MatchString(name) || strings.HasSuffix(name, "_") {
		return New(ErrCodeInvalidEntity, "invalid entity name: %q", name)
	}

	return nil
}

// apiVersionRegex matches "60.0" and "v60.0".
var apiVersionRegex = regexp.MustCompile(`^v?\d{1,3}\.\d$`)

// ValidateAPIVersion validates a schema version string such as "v60.0".
func ValidateAPIVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidVersion, "API version cannot be empty")
	}
	if !apiVersionRegex.MatchString(version) {
		return New(ErrCodeInvalidVersion, "invalid API version: %q (expected e.g. v60.0)", version)
	}
	return nil
}

// NormalizeAPIVersion returns version with a leading "v".
func NormalizeAPIVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// ValidateInstanceURL validates an org instance URL. Only https is accepted,
// except for loopback hosts used in local testing.
func ValidateInstanceURL(rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid instance URL")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "instance URL must include a host")
	}
	if u.Scheme != "https" && !isLoopback(u.Hostname()) {
		return New(ErrCodeInvalidInput, "instance URL must use https")
	}
	if u.Path != "" && u.Path != "/" {
		return New(ErrCodeInvalidInput, "instance URL must not include a path")
	}
	return nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
