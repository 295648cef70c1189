package upload

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
)

// maxFieldBytes caps a single non-file form field value.
const maxFieldBytes = 1 << 20

// FieldEvent is one non-file form part.
type FieldEvent struct {
	Name  string
	Value string
}

// FileEvent is one fully buffered file part. Buffering the bytes lets
// validation that depends on later fields run at session completion, which
// tolerates clients that send the file part first.
type FileEvent struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

type ParserLimits struct {
	MaxFileParts int
	MaxFileSize  int64
}

// Parser turns a multipart request body into a sequence of field and file
// events in arrival order, enforcing part-count and per-file size limits.
type Parser struct {
	mr        *multipart.Reader
	limits    ParserLimits
	fileParts int
}

// NewParser wraps the request's multipart body. A request without a
// multipart content type is a validation failure.
func NewParser(r *http.Request, limits ParserLimits) (*Parser, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, Validationf("multipart form-data body required: %s", err)
	}
	if limits.MaxFileParts <= 0 {
		limits.MaxFileParts = 1
	}
	return &Parser{mr: mr, limits: limits}, nil
}

// Next returns the next event. Exactly one of the returned events is
// non-nil; io.EOF signals the end of the body. Oversize file parts and
// excess file parts are drained before the error returns so the client
// connection is never left hanging.
func (p *Parser) Next() (*FieldEvent, *FileEvent, error) {
	part, err := p.mr.NextPart()
	if errors.Is(err, io.EOF) {
		return nil, nil, io.EOF
	}
	if err != nil {
		return nil, nil, Validationf("malformed multipart body: %s", err)
	}
	defer part.Close()

	if part.FileName() == "" {
		value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
		if err != nil {
			return nil, nil, Validationf("failed to read field %s: %s", part.FormName(), err)
		}
		return &FieldEvent{Name: part.FormName(), Value: string(value)}, nil, nil
	}

	p.fileParts++
	if p.fileParts > p.limits.MaxFileParts {
		drain(part)
		return nil, nil, PayloadTooLarge("too many file parts")
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, p.limits.MaxFileSize+1))
	if err != nil {
		return nil, nil, Validationf("failed to read file part %s: %s", part.FormName(), err)
	}
	if n > p.limits.MaxFileSize {
		drain(part)
		return nil, nil, PayloadTooLarge("file exceeds the maximum allowed size")
	}

	return nil, &FileEvent{
		Field:       part.FormName(),
		Filename:    part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Data:        buf.Bytes(),
	}, nil
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
