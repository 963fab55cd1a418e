package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// FileSnapshotter writes one JSON snapshot file per session under a base
// directory. Writes go to a temp file first and are renamed into place so
// a crash mid-write never corrupts the previous snapshot.
type FileSnapshotter struct {
	Dir string
}

func NewFileSnapshotter(dir string) *FileSnapshotter {
	return &FileSnapshotter{Dir: dir}
}

func (f *FileSnapshotter) path(sessionID string) string {
	return filepath.Join(f.Dir, sessionID+".json")
}

func (f *FileSnapshotter) Write(sessionID string, s Snapshot) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp := f.path(sessionID) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(sessionID))
}

// Read loads a previously written snapshot, for crash recovery.
func (f *FileSnapshotter) Read(sessionID string) (Snapshot, error) {
	var s Snapshot
	b, err := os.ReadFile(f.path(sessionID))
	if err != nil {
		return s, err
	}
	err = json.Unmarshal(b, &s)
	return s, err
}
