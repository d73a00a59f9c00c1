package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CurrentVersion is the persisted workspace format version.
const CurrentVersion = 2

// File is the persisted workspace document.
type File struct {
	Version        int             `json:"version"`
	Title          string          `json:"title,omitempty"`
	VoiceProfileID string          `json:"voiceProfileId,omitempty"`
	Root           []*Node         `json:"root"`
	Context        json.RawMessage `json:"context,omitempty"`
}

// legacyFile is the pre-v2 format: a flat list of tagged file entries.
type legacyFile struct {
	Version int `json:"version"`
	Docs    []struct {
		File string `json:"file"`
		Tag  string `json:"tag,omitempty"`
	} `json:"docs"`
}

// TagIndex receives tag associations during legacy migration. Tag storage
// itself lives outside the workspace tree.
type TagIndex interface {
	AssignTag(file, tag string) error
}

// Decode parses persisted workspace bytes, migrating the legacy flat format
// when necessary. Tags found during migration are handed to tags (may be
// nil to discard them).
func Decode(data []byte, tags TagIndex) (*File, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("workspace: decode: %w", err)
	}

	if probe.Version >= CurrentVersion {
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("workspace: decode v%d: %w", probe.Version, err)
		}
		if f.Root == nil {
			f.Root = []*Node{}
		}
		return &f, nil
	}

	var legacy legacyFile
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("workspace: decode legacy: %w", err)
	}
	f := &File{Version: CurrentVersion, Root: make([]*Node, 0, len(legacy.Docs))}
	for _, d := range legacy.Docs {
		if d.File == "" {
			continue
		}
		f.Root = append(f.Root, &Node{File: d.File, Title: titleFromFile(d.File)})
		if tags != nil && d.Tag != "" {
			_ = tags.AssignTag(d.File, d.Tag)
		}
	}
	return f, nil
}

// Encode renders the workspace for persistence.
func (f *File) Encode() ([]byte, error) {
	f.Version = CurrentVersion
	if f.Root == nil {
		f.Root = []*Node{}
	}
	out, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("workspace: encode: %w", err)
	}
	return append(out, '\n'), nil
}

// Tree returns a Tree view over the file's root forest. After mutating the
// view, assign its Root back (the root slice header may move on insertion).
func (f *File) Tree() *Tree {
	return &Tree{Root: f.Root}
}

func titleFromFile(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadFile reads and decodes the workspace at path, returning a fresh empty
// workspace when the file does not exist yet.
func LoadFile(path string, tags TagIndex) (*File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &File{Version: CurrentVersion, Root: []*Node{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workspace: read %s: %w", path, err)
	}
	return Decode(data, tags)
}

// SaveFile encodes and writes the workspace to path.
func SaveFile(path string, f *File) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("workspace: mkdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("workspace: write %s: %w", path, err)
	}
	return nil
}
