package catalogapi

import (
	"bytes"
	"encoding/json"
)

// envelope is the {"data": ...} wrapper every upstream read and write returns.
type envelope[T any] struct {
	Data T `json:"data"`
}

// OptionalString is a string that distinguishes "absent" (JSON null or
// missing) from "present but empty". The price field relies on this: an
// absent price renders as "-" while an empty one renders blank.
type OptionalString struct {
	Value string
	Valid bool
}

// Some returns a present OptionalString holding v (which may be empty).
func Some(v string) OptionalString {
	return OptionalString{Value: v, Valid: true}
}

// IsBlank reports whether the value is absent or empty.
func (o OptionalString) IsBlank() bool {
	return !o.Valid || o.Value == ""
}

// Display returns the list-row rendering: "-" when absent, the raw value otherwise.
func (o OptionalString) Display() string {
	if !o.Valid {
		return "-"
	}
	return o.Value
}

// Badge returns the value and true only when it should be shown as a badge.
func (o OptionalString) Badge() (string, bool) {
	if o.IsBlank() {
		return "", false
	}
	return o.Value, true
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = OptionalString{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Numbers are accepted and kept verbatim, formatting included.
		var n json.Number
		if nerr := json.Unmarshal(b, &n); nerr != nil {
			return err
		}
		s = n.String()
	}
	*o = Some(s)
	return nil
}

// Spec is one label/value row of a material's specification table.
type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SpecList tolerates the upstream returning a single object or null in place
// of an array.
type SpecList []Spec

func (l *SpecList) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*l = SpecList{}
		return nil
	case trimmed[0] == '{':
		var one Spec
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*l = SpecList{one}
		return nil
	}
	var many []Spec
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	if many == nil {
		many = []Spec{}
	}
	*l = many
	return nil
}

// Material is a building material as stored by the upstream.
type Material struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Series      *string        `json:"series"`
	Image       string         `json:"image"`
	Gallery     []string       `json:"gallery,omitempty"`
	Description string         `json:"description"`
	Specs       SpecList       `json:"specs"`
	Price       OptionalString `json:"price"`
	CreatedAt   string         `json:"created_at,omitempty"`
}

// SeriesName returns the series or "" when the material has none.
func (m Material) SeriesName() string {
	if m.Series == nil {
		return ""
	}
	return *m.Series
}

// Category is a material category. Prefix drives code allocation.
type Category struct {
	ID          int    `json:"id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Prefix      string `json:"prefix,omitempty"`
}

// Series is a product series with its brochure document.
type Series struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	PDF       string `json:"pdf"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Message is a customer-submitted inquiry. Only Done is mutable.
type Message struct {
	ID          int      `json:"id"`
	CreatedAt   string   `json:"created_at"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Subject     string   `json:"subject"`
	Message     string   `json:"message"`
	Attachments []string `json:"attachments"`
	Done        bool     `json:"done"`
}

// Identity is the "auth" object returned by /auth/me. Raw keeps every field
// the upstream sent so it can be echoed back untouched.
type Identity struct {
	Role   string          `json:"role"`
	UserID string          `json:"userId,omitempty"`
	Email  string          `json:"email,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

func (i *Identity) UnmarshalJSON(b []byte) error {
	type plain Identity
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*i = Identity(p)
	i.Raw = append(json.RawMessage(nil), b...)
	return nil
}

type meResponse struct {
	Auth *Identity `json:"auth"`
}

type statusRequest struct {
	Done bool `json:"done"`
}
