package upload

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field coercion helpers for validation code. Multipart form values are all
// strings; these apply the same loose parsing rules everywhere.

// ObjectIDField parses a required ObjectID-valued field.
func (s *Session) ObjectIDField(name string) (primitive.ObjectID, error) {
	v, ok := s.Field(name)
	if !ok || v == "" {
		return primitive.NilObjectID, Validationf("%s is required", name)
	}

	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		return primitive.NilObjectID, Validationf("invalid %s format - must be a valid ObjectId", name)
	}
	return id, nil
}

// IntField parses an optional integer field, falling back to def when the
// field is absent or unparseable.
func (s *Session) IntField(name string, def int) int {
	v, ok := s.Field(name)
	if !ok || v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// BoolField parses an optional boolean field ("true"/"false"), falling back
// to def when absent.
func (s *Session) BoolField(name string, def bool) bool {
	v, ok := s.Field(name)
	if !ok || v == "" {
		return def
	}
	return v == "true"
}
