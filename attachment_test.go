package gmail

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestAttachmentSize(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    int
	}{
		{name: "empty", payload: nil, want: 0},
		{name: "below half a kilobyte", payload: make([]byte, 400), want: 0},
		{name: "rounds up", payload: make([]byte, 1500), want: 2},
		{name: "two kilobytes", payload: make([]byte, 2000), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Attachment{Name: "a", Payload: tt.payload}
			if got := a.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAttachmentSaveExplicitPath(t *testing.T) {
	a := Attachment{Name: "report.bin", Payload: []byte("payload")}
	path := filepath.Join(t.TempDir(), "out.bin")

	if err := a.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, a.Payload) {
		t.Errorf("saved %q, want %q", got, a.Payload)
	}
}

func TestAttachmentSaveToDirectory(t *testing.T) {
	a := Attachment{Name: "report.bin", Payload: []byte("payload")}
	dir := t.TempDir()

	if err := a.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "report.bin")); err != nil {
		t.Errorf("attachment not written under directory: %v", err)
	}
}

func TestAttachmentSaveDefaultName(t *testing.T) {
	a := Attachment{Name: "report.bin", Payload: []byte("payload")}
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldwd) })

	if err := a.Save(""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat("report.bin"); err != nil {
		t.Errorf("attachment not written under its own name: %v", err)
	}
}

func TestAttachmentSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := Attachment{Name: "out.bin", Payload: []byte("new")}
	if err := a.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("saved %q, want overwrite", got)
	}
}
