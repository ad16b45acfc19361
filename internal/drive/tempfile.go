package drive

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// WithTempFile creates a temporary file in dir, hands it to fn and
// removes it afterwards on every path, including when fn fails or panics.
func WithTempFile(dir, pattern string, fn func(f *os.File) error) (err error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()

	defer func() {
		closeErr := f.Close()
		if closeErr != nil && errors.Is(closeErr, os.ErrClosed) {
			closeErr = nil
		}
		if rmErr := os.Remove(name); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			slog.Warn("Failed to remove temp file", "path", name, "err", rmErr)
			if err == nil {
				err = fmt.Errorf("failed to remove temp file: %w", rmErr)
			}
		}
		if err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close temp file: %w", closeErr)
		}
	}()

	return fn(f)
}
