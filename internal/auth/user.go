package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// User is a validated user-details record. The role is always present; the
// remaining profile fields are whatever the backend sent at login.
type User struct {
	Role   string
	fields map[string]interface{}
}

// ParseUser decodes serialized user details. Input that is not a JSON object
// fails with ErrParseFailure; an object without a non-empty string role fails
// with ErrMissingUserData.
func ParseUser(raw string) (*User, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var decoded interface{}
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after user object", ErrParseFailure)
	}

	fields, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: user details are not an object", ErrParseFailure)
	}

	role, _ := fields["role"].(string)
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, fmt.Errorf("%w: role is absent", ErrMissingUserData)
	}
	fields["role"] = role

	return &User{Role: role, fields: fields}, nil
}

// NewUser builds a user from known fields, as local login does.
func NewUser(role string, profile map[string]interface{}) *User {
	fields := make(map[string]interface{}, len(profile)+1)
	for k, v := range profile {
		fields[k] = v
	}
	fields["role"] = role
	return &User{Role: role, fields: fields}
}

// Field returns a raw profile field.
func (u *User) Field(name string) (interface{}, bool) {
	value, ok := u.fields[name]
	return value, ok
}

// String returns a profile field rendered as a string, or "" when absent.
func (u *User) String(name string) string {
	value, ok := u.fields[name]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// ID returns the user identifier under "id" or "_id".
func (u *User) ID() string {
	if id := u.String("id"); id != "" {
		return id
	}
	return u.String("_id")
}

// Name returns the display name, falling back to the email address.
func (u *User) Name() string {
	for _, key := range []string{"name", "fullName", "username"} {
		if name := u.String(key); name != "" {
			return name
		}
	}
	first, last := u.String("firstName"), u.String("lastName")
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	return u.Email()
}

// Email returns the email address.
func (u *User) Email() string {
	return u.String("email")
}

// Keys returns the profile field names in sorted order.
func (u *User) Keys() []string {
	keys := make([]string, 0, len(u.fields))
	for k := range u.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON renders the user as the original object.
func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.fields)
}

// Serialize returns the user as stored in a session.
func (u *User) Serialize() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(u.fields); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
