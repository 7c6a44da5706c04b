package cache

import "strings"

// Keyer generates cache keys for every cached payload kind.
type Keyer interface {
	// HTTPKey generates a key for a raw HTTP response.
	HTTPKey(namespace, key string) string

	// DescribeKey generates a key for one entity describe of a schema version.
	DescribeKey(version, entity string) string

	// VersionPrefix returns the prefix shared by all describe keys of a version.
	VersionPrefix(version string) string

	// DiagramKey generates a key for a finished diagram.
	DiagramKey(root, version string, opts DiagramKeyOpts) string
}

// DiagramKeyOpts holds every option that changes a diagram's content.
type DiagramKeyOpts struct {
	Depth           int    `json:"depth"`
	IncludeStandard bool   `json:"include_standard"`
	IncludeCustom   bool   `json:"include_custom"`
	Layout          string `json:"layout"`
	MaxNodes        int    `json:"max_nodes"`
	MaxEdges        int    `json:"max_edges"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// DescribeKey returns "describe:<version>:<entity>". Entity names are kept
// verbatim so that a version can be invalidated by prefix.
func (k DefaultKeyer) DescribeKey(version, entity string) string {
	return k.VersionPrefix(version) + entity
}

// VersionPrefix returns "describe:<version>:".
func (DefaultKeyer) VersionPrefix(version string) string {
	return "describe:" + strings.TrimPrefix(version, "v") + ":"
}

// DiagramKey hashes root, version and options into "diagram:<sha256>".
// The version is normalized so "60.0" and "v60.0" share a key.
func (DefaultKeyer) DiagramKey(root, version string, opts DiagramKeyOpts) string {
	return hashKey("diagram", root, strings.TrimPrefix(version, "v"), opts)
}

var _ Keyer = DefaultKeyer{}
