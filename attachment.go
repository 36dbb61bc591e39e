package gmail

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Attachment is an immutable view over one decoded MIME part with an
// attachment disposition. It is safe to retain after the owning Message is
// discarded.
type Attachment struct {
	// Name is the filename from the part's disposition metadata; may be empty.
	Name string

	// Payload holds the raw decoded bytes.
	Payload []byte
}

// Size returns the payload length in whole kilobytes, 0 when the payload is
// empty or rounds below half a kilobyte.
func (a Attachment) Size() int {
	return int(math.Round(float64(len(a.Payload)) / 1000.0))
}

// Save writes the raw payload to path, overwriting silently. When path is a
// directory the attachment's own name is used inside it; when path is empty
// the name is used in the current working directory.
func (a Attachment) Save(path string) error {
	switch {
	case path == "":
		path = a.Name
	default:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, a.Name)
		}
	}

	if err := os.WriteFile(path, a.Payload, 0o644); err != nil {
		return fmt.Errorf("saving attachment %q: %w", a.Name, err)
	}
	return nil
}
