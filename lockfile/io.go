package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// DefaultFilename is the lockfile name next to the root manifest.
const DefaultFilename = "depsolve.lock"

// lockfilePermissions is the file permission mode for lockfiles.
const lockfilePermissions = 0o644

// ReadFile reads and parses a lockfile from the given path.
func ReadFile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return Parse(data)
}

// Parse parses lockfile JSON data. Only CurrentVersion is accepted.
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile JSON: %w", err)
	}
	if lf.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported lockfile version %d (want %d)", lf.Version, CurrentVersion)
	}

	// Initialize nil maps to empty maps for consistency
	if lf.Packages == nil {
		lf.Packages = make(map[string]Entry)
	}
	if lf.SelectedYankedVersions == nil {
		lf.SelectedYankedVersions = make(map[string]string)
	}

	return &lf, nil
}

// WriteFile writes the lockfile to the given path with deterministic formatting.
func (l *Lockfile) WriteFile(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, lockfilePermissions)
}

// WriteTo writes the lockfile to the given writer.
func (l *Lockfile) WriteTo(w io.Writer) (int64, error) {
	data, err := l.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Marshal serializes the lockfile to indented JSON with sorted keys.
func (l *Lockfile) Marshal() ([]byte, error) {
	ordered := orderedLockfile{
		Version:                l.Version,
		Root:                   l.Root,
		ManifestHash:           l.ManifestHash,
		Digest:                 l.Digest,
		Packages:               orderedMap[Entry]{keys: sortedKeys(l.Packages), values: l.Packages},
		SelectedYankedVersions: orderedMap[string]{keys: sortedKeys(l.SelectedYankedVersions), values: l.SelectedYankedVersions},
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(ordered); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// orderedLockfile is used for deterministic JSON output.
type orderedLockfile struct {
	Version                int                `json:"lockFileVersion"`
	Root                   string             `json:"root,omitempty"`
	ManifestHash           string             `json:"manifestHash,omitempty"`
	Digest                 string             `json:"digest"`
	Packages               orderedMap[Entry]  `json:"packages"`
	SelectedYankedVersions orderedMap[string] `json:"selectedYankedVersions"`
}

// orderedMap marshals a map with its keys in the given order.
type orderedMap[V any] struct {
	keys   []string
	values map[string]V
}

func (o orderedMap[V]) MarshalJSON() ([]byte, error) {
	if len(o.keys) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Exists returns true if a lockfile exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultPath returns the default lockfile path in a workspace directory.
func DefaultPath(workspaceRoot string) string {
	if workspaceRoot == "" {
		return DefaultFilename
	}
	return filepath.Join(workspaceRoot, DefaultFilename)
}
