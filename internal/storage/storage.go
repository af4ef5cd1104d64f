package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// GetUserHomeDir returns the user's home directory on linux, windows or macOS.
func GetUserHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		if home == "" {
			home = os.Getenv("USERPROFILE")
		}
		return home
	}

	return os.Getenv("HOME")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return GetUserHomeDir()
	}

	if len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == '\\') {
		return filepath.Join(GetUserHomeDir(), path[2:])
	}

	return path
}

// Exists checks if the given file or folder for a path exists
func Exists(path string) bool {
	if path == "" {
		return false
	}

	_, err := os.Stat(path)
	return err == nil
}

// Save writes data to name, creating the parent directory when needed. The
// file is written next to its destination and renamed so readers never see a
// partial file.
func Save(name string, data []byte, perm os.FileMode) error {
	if err := CreateDir(filepath.Dir(name)); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), name)
}

// Read reads data from a file
func Read(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// CreateDir creates a directory
func CreateDir(dir string) error {
	return os.MkdirAll(dir, os.FileMode(0700))
}

// EraseFile erases the file, a missing file is not an error
func EraseFile(file string) error {
	err := os.Remove(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ReadJSON decodes the json file at name into v.
func ReadJSON(name string, v any) error {
	b, err := Read(name)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, v)
}

// SaveJSON encodes v as indented json and saves it to name.
func SaveJSON(name string, v any, perm os.FileMode) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return Save(name, b, perm)
}
