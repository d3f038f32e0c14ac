// Package model defines the opaque payload types that flow through the
// pipeline. The core never inspects their contents; it only moves them,
// caches them, and hands them to a writer for serialization.
package model

import "fmt"

// Serializable names the Marshal method every payload type provides; the
// provider codecs call it to store a payload in the cache. Result artifacts
// are rendered by the pipeline's writer, not through this method.
type Serializable interface {
	// Marshal renders the value for cache storage.
	Marshal() ([]byte, error)
}

// VariabilityModel is the single-result payload produced by the
// variability-model provider: the set of configuration variables visible
// at the source tree root.
type VariabilityModel struct {
	Variables []string
}

func (vm *VariabilityModel) Marshal() ([]byte, error) {
	out := make([]byte, 0)

	for i, v := range vm.Variables {
		if i > 0 {
			out = append(out, '\n')
		}

		out = append(out, v...)
	}

	return out, nil
}

// UnmarshalVariabilityModel is the inverse of VariabilityModel.Marshal.
func UnmarshalVariabilityModel(data []byte) (*VariabilityModel, error) {
	vm := &VariabilityModel{}

	start := 0

	for i, b := range data {
		if b == '\n' {
			if i > start {
				vm.Variables = append(vm.Variables, string(data[start:i]))
			}

			start = i + 1
		}
	}

	if start < len(data) {
		vm.Variables = append(vm.Variables, string(data[start:]))
	}

	return vm, nil
}

// BuildModel is the single-result payload produced by the build-model
// provider: the mapping from source file to the build condition under which
// it is compiled.
type BuildModel struct {
	FileConditions map[string]string
}

func (bm *BuildModel) Marshal() ([]byte, error) {
	out := make([]byte, 0)

	for path, cond := range bm.FileConditions {
		out = append(out, fmt.Sprintf("%s=%s\n", path, cond)...)
	}

	return out, nil
}

// SourceFile is one element of the code model's multi-result stream: a
// single parsed source file, keyed by its path as enumerated under
// source_tree (source_tree joined with the file's relative path).
type SourceFile struct {
	Path    string
	Content string
}

func (sf *SourceFile) Marshal() ([]byte, error) {
	return []byte(sf.Content), nil
}

// UnmarshalSourceFile reconstructs a SourceFile whose Path is already known
// (the cache key), from its cached content.
func UnmarshalSourceFile(path string, data []byte) (*SourceFile, error) {
	return &SourceFile{Path: path, Content: string(data)}, nil
}
