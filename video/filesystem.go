package video

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	FilePrefix = "monitoring_video_"
	ExtVideo   = ".avi"

	// FileTimeLayout defines the timestamp part of filenames.
	// See https://golang.org/src/time/format.go.
	FileTimeLayout = "2006-01-02_15-04-05"
)

// OutputPath returns the clip path for a capture started at t. Paths are
// unique per second.
func OutputPath(dir string, t time.Time) string {
	return filepath.Join(dir, FilePrefix+t.Format(FileTimeLayout)+ExtVideo)
}

type VideoRecord struct {
	Time      time.Time
	VideoPath string
	Size      int64
}

// Filesystem is the directory clips are written to. Nothing here deletes
// clips; usage grows until an operator cleans up.
type Filesystem struct {
	BasePath string
}

func NewFilesystem(path string) (*Filesystem, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	return &Filesystem{
		BasePath: path,
	}, nil
}

func (f *Filesystem) NewRecord(t time.Time) *VideoRecord {
	return &VideoRecord{
		Time:      t,
		VideoPath: OutputPath(f.BasePath, t),
	}
}

// GetRecords lists the clips present on disk, oldest first.
func (f *Filesystem) GetRecords() ([]*VideoRecord, error) {
	files, err := os.ReadDir(f.BasePath)
	if err != nil {
		return nil, err
	}

	var records []*VideoRecord
	for _, file := range files {
		b := file.Name()
		if file.IsDir() || !strings.HasPrefix(b, FilePrefix) || !strings.HasSuffix(b, ExtVideo) {
			continue
		}
		ts := strings.TrimSuffix(strings.TrimPrefix(b, FilePrefix), ExtVideo)
		t, err := time.ParseInLocation(FileTimeLayout, ts, time.Local)
		if err != nil {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		records = append(records, &VideoRecord{
			Time:      t,
			VideoPath: filepath.Join(f.BasePath, b),
			Size:      info.Size(),
		})
	}
	// ReadDir sorts by name, and the layout sorts chronologically.
	return records, nil
}

// Usage returns the total size in bytes of all clips on disk.
func (f *Filesystem) Usage() (int64, error) {
	records, err := f.GetRecords()
	if err != nil {
		return 0, err
	}
	var sz int64
	for _, r := range records {
		sz += r.Size
	}
	return sz, nil
}
