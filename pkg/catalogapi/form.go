package catalogapi

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

// File is an in-memory upload destined for a multipart field.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type formPart struct {
	field string
	value string
	file  *File
}

// Form collects multipart fields in insertion order.
type Form struct {
	parts []formPart
}

// NewForm returns an empty Form.
func NewForm() *Form {
	return &Form{}
}

// Set appends a text field. Empty values are sent as-is.
func (f *Form) Set(field, value string) *Form {
	f.parts = append(f.parts, formPart{field: field, value: value})
	return f
}

// SetIf appends a text field only when value is non-empty.
func (f *Form) SetIf(field, value string) *Form {
	if value == "" {
		return f
	}
	return f.Set(field, value)
}

// Attach appends a file field. Nil files are skipped.
func (f *Form) Attach(field string, file *File) *Form {
	if file == nil {
		return f
	}
	f.parts = append(f.parts, formPart{field: field, file: file})
	return f
}

// Fields returns the values recorded for a text field, in order.
func (f *Form) Fields(field string) []string {
	var out []string
	for _, p := range f.parts {
		if p.file == nil && p.field == field {
			out = append(out, p.value)
		}
	}
	return out
}

// Parts returns the field name of every part in insertion order.
func (f *Form) Parts() []string {
	out := make([]string, len(f.parts))
	for i, p := range f.parts {
		out[i] = p.field
	}
	return out
}

// Has reports whether any part, text or file, was recorded under field.
func (f *Form) Has(field string) bool {
	for _, p := range f.parts {
		if p.field == field {
			return true
		}
	}
	return false
}

// encode renders the form and returns the body and its Content-Type.
func (f *Form) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, p := range f.parts {
		if p.file == nil {
			if err := w.WriteField(p.field, p.value); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", p.field, err)
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.file.Name))
		ct := p.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %s: %w", p.field, err)
		}
		if _, err := pw.Write(p.file.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write part %s: %w", p.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
