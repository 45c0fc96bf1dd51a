package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SetKeyInFile updates or adds an option in the config file. Section "" is
// the global section. Comments and formatting are preserved: an existing key
// line is replaced in place, a missing global key is inserted before the
// first section header, and a missing section key is appended to the end of
// its section (creating the section at the end of the file if needed).
//
// Only keys inside the target section are matched, so options of the same
// name in other sections are never overwritten.
func SetKeyInFile(path, section, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(string(data), "\n")
	}

	newLine := key
	if value != "" {
		newLine = key + " " + value
	}

	found := false
	inTarget := section == ""
	sectionSeen := section == ""
	// global: the first section header; section: the line after its last option
	insertIndex := -1

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if section == "" && inTarget {
				insertIndex = i
			}
			name := strings.TrimSpace(strings.Trim(trimmed, "[]"))
			inTarget = section != "" && name == section
			if inTarget {
				sectionSeen = true
				insertIndex = i + 1
			}
			continue
		}

		if !inTarget || trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = newLine
			found = true
			break
		}
		if section != "" {
			insertIndex = i + 1
		}
	}

	if !found {
		switch {
		case !sectionSeen:
			lines = trimTrailingEmpty(lines)
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, "["+section+"]", newLine, "")
		case insertIndex >= 0 && insertIndex < len(lines):
			lines = insertLine(lines, insertIndex, newLine)
		default:
			// Append: keep the trailing newline last
			if len(lines) > 0 && lines[len(lines)-1] == "" {
				lines = append(lines[:len(lines)-1], newLine, "")
			} else {
				lines = append(lines, newLine)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func insertLine(lines []string, i int, line string) []string {
	lines = append(lines[:i+1], lines[i:]...)
	lines[i] = line
	return lines
}

func trimTrailingEmpty(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// atomicWriteFile writes data to a temporary file in the same directory and
// renames it over path, so readers never observe a partial file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
