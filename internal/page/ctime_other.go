//go:build !linux

package page

import (
	"io/fs"
	"time"
)

func changeTime(fi fs.FileInfo) time.Time {
	return fi.ModTime()
}
