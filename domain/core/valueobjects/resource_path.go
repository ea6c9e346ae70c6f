package valueobjects

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	pkgerrors "famorg/pkg/errors"
)

// MaxSegmentLength bounds a single path segment, matching common filesystem limits.
const MaxSegmentLength = 255

// LeafExt is the suffix a leaf file carries on disk. No segment may end in
// it, so a category directory can never shadow a leaf file.
const LeafExt = ".json"

// reservedKeys are rejected wherever external input becomes a path segment or map key.
var reservedKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// ResourcePath is a validated, `/`-joined path below the knowledge root.
// It is immutable; every constructor rejects unsafe segments up front so
// callers never touch the filesystem with an unchecked path.
type ResourcePath struct {
	segments []string
}

// ValidateKey checks a single dynamic key (path segment, member id, attribute id).
func ValidateKey(key string) error {
	if _, reserved := reservedKeys[key]; reserved {
		return pkgerrors.NewUnsafeKeyError(key)
	}
	if key == "" {
		return pkgerrors.NewValidationError("key cannot be empty")
	}
	return nil
}

// NewSegment validates one path segment and returns it unchanged.
func NewSegment(name string) (string, error) {
	if err := ValidateKey(name); err != nil {
		return "", err
	}
	if name == "." || name == ".." {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("path segment %q is not allowed", name))
	}
	// Dot entries are hidden from the tree scan
	if strings.HasPrefix(name, ".") {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("path segment %q may not start with a dot", name))
	}
	if strings.HasSuffix(strings.ToLower(name), LeafExt) {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("path segment %q may not end in %s", name, LeafExt))
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("path segment %q contains a separator", name))
	}
	if !utf8.ValidString(name) {
		return "", pkgerrors.NewValidationError("path segment is not valid UTF-8")
	}
	if len(name) > MaxSegmentLength {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("path segment exceeds %d bytes", MaxSegmentLength))
	}
	return name, nil
}

// NewResourcePath parses a `/`-joined path such as "英语/单词/水果".
func NewResourcePath(raw string) (ResourcePath, error) {
	if raw == "" {
		return ResourcePath{}, pkgerrors.NewValidationError("path cannot be empty")
	}

	parts := strings.Split(raw, "/")

	// Reserved tokens win over every other complaint so the caller sees UNSAFE_KEY.
	for _, part := range parts {
		if _, reserved := reservedKeys[part]; reserved {
			return ResourcePath{}, pkgerrors.NewUnsafeKeyError(part)
		}
	}

	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		seg, err := NewSegment(part)
		if err != nil {
			return ResourcePath{}, err
		}
		segments = append(segments, seg)
	}
	return ResourcePath{segments: segments}, nil
}

// PathFromSegments builds a path from already split names.
func PathFromSegments(names ...string) (ResourcePath, error) {
	if len(names) == 0 {
		return ResourcePath{}, pkgerrors.NewValidationError("path cannot be empty")
	}
	segments := make([]string, 0, len(names))
	for _, name := range names {
		seg, err := NewSegment(name)
		if err != nil {
			return ResourcePath{}, err
		}
		segments = append(segments, seg)
	}
	return ResourcePath{segments: segments}, nil
}

// Child returns a new path with name appended.
func (p ResourcePath) Child(name string) (ResourcePath, error) {
	seg, err := NewSegment(name)
	if err != nil {
		return ResourcePath{}, err
	}
	segments := make([]string, len(p.segments), len(p.segments)+1)
	copy(segments, p.segments)
	return ResourcePath{segments: append(segments, seg)}, nil
}

// Parent returns the enclosing path; the parent of a root-level path is zero.
func (p ResourcePath) Parent() ResourcePath {
	if len(p.segments) <= 1 {
		return ResourcePath{}
	}
	return ResourcePath{segments: p.segments[:len(p.segments)-1]}
}

// Name returns the last segment
func (p ResourcePath) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Segments returns a copy of the path segments
func (p ResourcePath) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Depth is the number of segments
func (p ResourcePath) Depth() int {
	return len(p.segments)
}

// Root returns the top-level segment
func (p ResourcePath) Root() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0]
}

// String returns the `/`-joined form used as external identifier
func (p ResourcePath) String() string {
	return strings.Join(p.segments, "/")
}

// LeafFile returns the document name backing this path as a leaf.
func (p ResourcePath) LeafFile(ext string) string {
	return p.String() + ext
}

// IsZero checks if the path is the zero value
func (p ResourcePath) IsZero() bool {
	return len(p.segments) == 0
}

// Equals checks if two paths are equal
func (p ResourcePath) Equals(other ResourcePath) bool {
	return p.String() == other.String()
}

// MarshalJSON implements json.Marshaler
func (p ResourcePath) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler and validates the path
func (p *ResourcePath) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return pkgerrors.NewValidationError("path must be a string")
	}
	parsed, err := NewResourcePath(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
