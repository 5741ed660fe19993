// Package codec implements the four wire representations entity routes
// negotiate between: JSON, XML, YAML and HTML. All codecs share one
// contract: Encode renders a single entity or a collection, Decode
// parses one object's fields into a flat string map, and ContentType
// names the media type served.
//
// Field values are normalized uniformly: timestamps render in
// TimeFormat, nested maps are recursively flattened into the top-level
// field map. Malformed input surfaces ErrDecode; a missing body is the
// distinct ErrEmptyBody.
package codec
