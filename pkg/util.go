package pkg

import (
	"os"
	"unsafe"
)

// BytesToString converts bytes to a string without allocating.
func BytesToString(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// PathExists reports whether path exists and is of the wanted kind,
// directory when isDir is set, regular file otherwise.
func PathExists(path string, isDir bool) (bool, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return stat.IsDir() == isDir, nil
}
