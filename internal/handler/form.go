package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/purrfectmatch/api/internal/domain"
)

const maxMultipartMemory = 16 << 20 // 16MB

// formValue returns a pointer to the form field's value, or nil when the
// field is absent. Distinguishing absent from empty matters for PATCH.
func formValue(r *http.Request, name string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// formFile reads an uploaded file and sniffs its content type from the
// bytes. ok is false when the field is absent.
func formFile(r *http.Request, name string) (data []byte, contentType string, ok bool, err error) {
	file, _, err := r.FormFile(name)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, "", false, nil
		}
		return nil, "", false, err
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", false, fmt.Errorf("read upload: %w", err)
	}
	return data, http.DetectContentType(data), true, nil
}

func parseBirthday(value string) (time.Time, error) {
	t, err := time.ParseInLocation(birthdayFormat, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birthday must look like 31.12.2020", domain.ErrInvalidInput)
	}
	return t, nil
}

func parsePositiveInt(value string, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}
