package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ukydev/fleetfix/internal/upload"
)

const (
	// maxUploadBytes bounds one multipart request.
	maxUploadBytes = 40 << 20
	// formMemory is kept in memory; the rest spills to temp files.
	formMemory = 16 << 20
)

// parseMultipart accepts multipart forms and plain url-encoded forms.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(formMemory); err != nil {
			return fmt.Errorf("invalid multipart form: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("invalid form: %w", err)
	}
	return nil
}

// formFile reads one uploaded file, or returns nil when the field is absent.
func formFile(r *http.Request, field string) (*upload.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	return readFileHeader(headers[0])
}

func readFileHeader(fh *multipart.FileHeader) (*upload.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &upload.File{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
		Filename:    fh.Filename,
	}, nil
}

// fileFields lists the names of all uploaded file fields.
func fileFields(r *http.Request) []string {
	if r.MultipartForm == nil {
		return nil
	}
	names := make([]string, 0, len(r.MultipartForm.File))
	for name := range r.MultipartForm.File {
		names = append(names, name)
	}
	return names
}

// jsonField decodes a JSON-encoded form value. An empty value leaves v untouched.
func jsonField(r *http.Request, field string, v any) error {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	return nil
}
