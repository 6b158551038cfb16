package archiver

import (
	"io/fs"
	"time"
)

// memoryFileInfo describes an archive entry that only exists in memory
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m memoryFileInfo) Name() string {
	return m.name
}

func (m memoryFileInfo) Size() int64 {
	return m.size
}

func (m memoryFileInfo) Mode() fs.FileMode {
	return m.mode
}

func (m memoryFileInfo) ModTime() time.Time {
	return m.modTime
}

func (m memoryFileInfo) IsDir() bool {
	return m.isDir
}

func (m memoryFileInfo) Sys() any {
	return nil
}
