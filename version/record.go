package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Components addressable by Record.Bump.
const (
	Major = "x"
	Minor = "y"
	Patch = "z"
)

// VersionPlaceholder must appear in every tag template.
const VersionPlaceholder = "{version}"

var RecordRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Record is a version triple. The zero value is the initial version of a
// key that has never been saved.
type Record struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Parse returns the Record for a "x.y.z" string.
func Parse(s string) (Record, bool) {
	match := RecordRegex.FindStringSubmatch(s)
	if match == nil {
		return Record{}, false
	}

	x, _ := strconv.Atoi(match[1])
	y, _ := strconv.Atoi(match[2])
	z, _ := strconv.Atoi(match[3])

	return Record{X: x, Y: y, Z: z}, true
}

func (r Record) String() string {
	return fmt.Sprintf("%d.%d.%d", r.X, r.Y, r.Z)
}

// Bump increments one component. Bumping x zeroes y and z, bumping y zeroes
// z, bumping z touches nothing else.
func (r Record) Bump(component string) (Record, error) {
	switch component {
	case Major:
		return Record{X: r.X + 1}, nil
	case Minor:
		return Record{X: r.X, Y: r.Y + 1}, nil
	case Patch:
		return Record{X: r.X, Y: r.Y, Z: r.Z + 1}, nil
	}

	return r, &ValidationError{Field: "component", Message: fmt.Sprintf("unknown component: %s (x, y or z)", component)}
}

// ResetZ zeroes the patch component only.
func (r Record) ResetZ() Record {
	return Record{X: r.X, Y: r.Y}
}

// Merge overwrites the components whose pointers are non-nil. Unlike Bump
// there is no reset cascade: setting x leaves y and z as stored.
func (r Record) Merge(x, y, z *int) (Record, error) {
	for field, v := range map[string]*int{"x": x, "y": y, "z": z} {
		if v != nil && *v < 0 {
			return r, &ValidationError{Field: field, Message: fmt.Sprintf("must be non-negative, got %d", *v)}
		}
	}

	if x != nil {
		r.X = *x
	}
	if y != nil {
		r.Y = *y
	}
	if z != nil {
		r.Z = *z
	}

	return r, nil
}

// TagContext carries the build metadata a tag template may reference.
type TagContext struct {
	Repo      string
	Commit    string
	Timestamp int64
}

// Tag renders a tag template against the record. The template must contain
// the {version} placeholder; {repo}, {commit} and {timestamp} are optional
// and filled from tc.
func (r Record) Tag(template string, tc TagContext) (string, error) {
	if !strings.Contains(template, VersionPlaceholder) {
		return "", &ConfigError{Message: fmt.Sprintf("tag template %q has no %s placeholder", template, VersionPlaceholder)}
	}

	rep := strings.NewReplacer(
		VersionPlaceholder, r.String(),
		"{repo}", tc.Repo,
		"{commit}", tc.Commit,
		"{timestamp}", strconv.FormatInt(tc.Timestamp, 10),
	)

	return rep.Replace(template), nil
}
