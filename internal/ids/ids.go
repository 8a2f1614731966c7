// Package ids generates and checks the 24-character hexadecimal identifiers
// used for products, orders and users.
package ids

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func New() string {
	return primitive.NewObjectID().Hex()
}

func Valid(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// Normalize returns the canonical lowercase form of a valid identifier.
func Normalize(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !Valid(s) {
		return "", false
	}
	return strings.ToLower(s), true
}
