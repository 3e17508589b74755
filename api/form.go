package api

import (
	"bytes"
	"io"
	"mime/multipart"

	"github.com/pkg/errors"
)

// Form accumulates fields and file parts for a multipart upload. Parts are
// written in the order they were added.
type Form struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

// NewForm creates an empty multipart form.
func NewForm() *Form {
	f := &Form{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

// Field adds a plain text field.
func (f *Form) Field(name, value string) *Form {
	if f.err != nil {
		return f
	}
	f.err = errors.Wrapf(f.writer.WriteField(name, value), "[Field] writing field %q", name)
	return f
}

// File adds a file part read from r.
func (f *Form) File(name, filename string, r io.Reader) *Form {
	if f.err != nil {
		return f
	}
	part, err := f.writer.CreateFormFile(name, filename)
	if err != nil {
		f.err = errors.Wrapf(err, "[File] creating part %q", name)
		return f
	}
	if _, err := io.Copy(part, r); err != nil {
		f.err = errors.Wrapf(err, "[File] writing part %q", name)
	}
	return f
}

// encode finalizes the form, returning the body and its content type with
// the boundary set.
func (f *Form) encode() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", errors.Wrap(err, "[encode] closing multipart writer")
	}
	return &f.buf, f.writer.FormDataContentType(), nil
}
