// Package path implements the distributed filesystem's path value.
//
// A Path is an immutable, ordered sequence of non-empty components. The
// empty sequence denotes the root directory. The serialized form is "/"
// alone for root, or "/" followed by components joined with "/". Path
// components may not contain "/" or ":".
package path

import (
	"os"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rvsharma-cmu/DistributedFileSystem/errors"
)

// Path is an immutable, slash-delimited sequence of components.
type Path struct {
	components []string
}

// Root is the path representing the root directory.
var Root = Path{}

// New creates the root path. It is equivalent to the zero value of Path.
func New() Path {
	return Path{}
}

// Parse parses a path string of the form produced by String. Empty
// components (from a leading, trailing, or repeated slash) are dropped,
// so "//a///b" parses the same as "/a/b". The string must begin with "/"
// and must not contain ":".
func Parse(s string) (Path, error) {
	const op = "path.Parse"
	if !strings.HasPrefix(s, "/") {
		return Path{}, errors.E(op, errors.IllegalArgument, errors.Str("path must begin with /: "+s))
	}
	if strings.Contains(s, ":") {
		return Path{}, errors.E(op, errors.IllegalArgument, errors.Str("path must not contain ':': "+s))
	}
	var components []string
	for _, c := range strings.Split(s, "/") {
		if c == "" {
			continue
		}
		components = append(components, normalizeComponent(c))
	}
	return Path{components: components}, nil
}

// MustParse is like Parse but panics on error. It is intended for use with
// literal path strings in tests and initialization code.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func normalizeComponent(c string) string {
	return norm.NFC.String(c)
}

func validComponent(c string) error {
	const op = "path.validComponent"
	if c == "" {
		return errors.E(op, errors.IllegalArgument, errors.Str("path component must not be empty"))
	}
	if strings.ContainsAny(c, "/:") {
		return errors.E(op, errors.IllegalArgument, errors.Str("path component must not contain '/' or ':': "+c))
	}
	return nil
}

// Append returns a new path formed by appending component to p.
func Append(p Path, component string) (Path, error) {
	if err := validComponent(component); err != nil {
		return Path{}, err
	}
	out := make([]string, len(p.components)+1)
	copy(out, p.components)
	out[len(p.components)] = normalizeComponent(component)
	return Path{components: out}, nil
}

// IsRoot reports whether p is the root directory.
func (p Path) IsRoot() bool {
	return len(p.components) == 0
}

// Parent returns the path to the parent of p.
// It fails with errors.IllegalArgument if p is root.
func (p Path) Parent() (Path, error) {
	const op = "path.Parent"
	if p.IsRoot() {
		return Path{}, errors.E(op, errors.IllegalArgument, errors.Str("root has no parent"))
	}
	return Path{components: p.components[:len(p.components)-1]}, nil
}

// Last returns the final component of p.
// It fails with errors.IllegalArgument if p is root.
func (p Path) Last() (string, error) {
	const op = "path.Last"
	if p.IsRoot() {
		return "", errors.E(op, errors.IllegalArgument, errors.Str("root has no last component"))
	}
	return p.components[len(p.components)-1], nil
}

// NumComponents returns the number of components in p.
func (p Path) NumComponents() int {
	return len(p.components)
}

// Component returns the i'th component of p.
func (p Path) Component(i int) string {
	return p.components[i]
}

// Components returns a read-only copy of the path's components, left to
// right.
func (p Path) Components() []string {
	out := make([]string, len(p.components))
	copy(out, p.components)
	return out
}

// IsSubpath reports whether other's components are a prefix of p's
// components. Every path is a subpath of itself.
func (p Path) IsSubpath(other Path) bool {
	if len(other.components) > len(p.components) {
		return false
	}
	for i, c := range other.components {
		if p.components[i] != c {
			return false
		}
	}
	return true
}

// Ancestors returns the sequence of proper ancestors of p, from the root
// down to (but excluding) p itself. This is the order in which ancestor
// locks must be acquired (see the naming package's lock manager).
func (p Path) Ancestors() []Path {
	out := make([]Path, len(p.components))
	for i := range p.components {
		out[i] = Path{components: p.components[:i]}
	}
	return out
}

// Equal reports whether p and other denote the same path.
func (p Path) Equal(other Path) bool {
	return p.String() == other.String()
}

// Compare gives the total order used for deadlock-avoidance-friendly
// ancestor-first locking: it is the lexicographic order of the serialized
// string form, so that for any ancestor a of p, a.Compare(p) < 0.
func (p Path) Compare(other Path) int {
	return strings.Compare(p.String(), other.String())
}

// String returns the canonical serialized form of p.
func (p Path) String() string {
	if p.IsRoot() {
		return "/"
	}
	var b strings.Builder
	for _, c := range p.components {
		b.WriteByte('/')
		b.WriteString(c)
	}
	return b.String()
}

// GobEncode implements gob.GobEncoder so a Path can cross the net/rpc
// wire as an RPC argument or reply field despite its unexported field.
func (p Path) GobEncode() ([]byte, error) {
	return []byte(p.String()), nil
}

// GobDecode implements gob.GobDecoder.
func (p *Path) GobDecode(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// List walks the local directory tree rooted at dir and returns one Path
// per non-directory entry encountered, relative to dir, sorted by
// Compare. Entries are classified by os.ReadDir's type bits, so a
// symbolic link is listed as an entry of its own and is not followed,
// even when it points at a directory.
func List(dir string) ([]Path, error) {
	const op = "path.List"
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.E(op, errors.NotFound, err)
	}
	if !info.IsDir() {
		return nil, errors.E(op, errors.IllegalArgument, errors.Str(dir+" is not a directory"))
	}
	var out []Path
	if err := listFiles(dir, Root, &out); err != nil {
		return nil, errors.E(op, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out, nil
}

func listFiles(dir string, prefix Path, out *[]Path) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		p, err := Append(prefix, entry.Name())
		if err != nil {
			continue // skip names that cannot be valid components
		}
		full := dir + string(os.PathSeparator) + entry.Name()
		if entry.IsDir() {
			if err := listFiles(full, p, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, p)
	}
	return nil
}
