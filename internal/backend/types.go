package backend

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// ID is an identifier the backend may send as a string or a number.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Station is a fuel station as listed by the backend.
type Station struct {
	ID      ID                     `json:"id"`
	Name    string                 `json:"name"`
	Address string                 `json:"address"`
	Phone   string                 `json:"phone"`
	Status  string                 `json:"status"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

// UnmarshalJSON keeps unknown fields in Extra.
func (s *Station) UnmarshalJSON(b []byte) error {
	type plain Station
	var decoded struct {
		plain
		MongoID ID `json:"_id"`
	}
	extra, err := decodeWithExtra(b, &decoded, "id", "_id", "name", "address", "phone", "status")
	if err != nil {
		return err
	}
	*s = Station(decoded.plain)
	if s.ID == "" {
		s.ID = decoded.MongoID
	}
	s.Extra = extra
	return nil
}

// Order is a fuel delivery order.
type Order struct {
	ID          ID                     `json:"id"`
	Status      string                 `json:"status"`
	FuelType    string                 `json:"fuelType"`
	Quantity    float64                `json:"quantity"`
	TotalAmount float64                `json:"totalAmount"`
	Address     string                 `json:"address"`
	CreatedAt   string                 `json:"createdAt"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// UnmarshalJSON keeps unknown fields in Extra.
func (o *Order) UnmarshalJSON(b []byte) error {
	type plain Order
	var decoded struct {
		plain
		MongoID ID `json:"_id"`
	}
	extra, err := decodeWithExtra(b, &decoded, "id", "_id", "status", "fuelType", "quantity", "totalAmount", "address", "createdAt")
	if err != nil {
		return err
	}
	*o = Order(decoded.plain)
	if o.ID == "" {
		o.ID = decoded.MongoID
	}
	o.Extra = extra
	return nil
}

// User is an app user as listed by the backend.
type User struct {
	ID    ID                     `json:"id"`
	Name  string                 `json:"name"`
	Email string                 `json:"email"`
	Phone string                 `json:"phone"`
	Role  string                 `json:"role"`
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// UnmarshalJSON keeps unknown fields in Extra.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var decoded struct {
		plain
		MongoID ID `json:"_id"`
	}
	extra, err := decodeWithExtra(b, &decoded, "id", "_id", "name", "email", "phone", "role")
	if err != nil {
		return err
	}
	*u = User(decoded.plain)
	if u.ID == "" {
		u.ID = decoded.MongoID
	}
	u.Extra = extra
	return nil
}

// ExtraKeys returns the names of unknown fields in sorted order.
func ExtraKeys(extra map[string]interface{}) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func decodeWithExtra(b []byte, known interface{}, fields ...string) (map[string]interface{}, error) {
	if err := json.Unmarshal(b, known); err != nil {
		return nil, err
	}
	var all map[string]interface{}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, f := range fields {
		delete(all, f)
	}
	delete(all, "extra")
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// CountByStatus tallies orders per lower-cased status.
func CountByStatus(orders []Order) map[string]int {
	counts := make(map[string]int)
	for _, o := range orders {
		status := strings.ToLower(strings.TrimSpace(o.Status))
		if status == "" {
			status = "unknown"
		}
		counts[status]++
	}
	return counts
}
