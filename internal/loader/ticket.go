package loader

import (
	"fmt"
	"os"

	"github.com/pixil98/go-orbis/internal/resource"
)

// Ticket is the CPU-side result of one preload. It is handed from the worker
// to the main goroutine exactly once.
type Ticket struct {
	ID      int
	Kind    resource.Kind
	Path    string
	Payload []byte
	Err     error
}

// LoadError is returned when an asset cannot be preloaded or uploaded. The
// engine does not run with missing data, so callers treat it as fatal.
type LoadError struct {
	ID   int
	Kind resource.Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s %d from %q: %v", e.Kind, e.ID, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Preloader performs the file read and CPU decode for a request.
type Preloader interface {
	Preload(req resource.Request) ([]byte, error)
}

// DiskPreloader reads asset files straight from disk.
type DiskPreloader struct{}

func (DiskPreloader) Preload(req resource.Request) ([]byte, error) {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("reading asset: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("asset file is empty")
	}
	return data, nil
}
