package config

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/hashicorp/go-getter"
	"github.com/hashicorp/go-version"

	"github.com/runstack-io/runstack/internal/errors"
)

// SourceReference is a parsed unit source: a fetch location, an optional sub-path within it, and an optional
// version/ref selector.
type SourceReference struct {
	// Location is the fetchable address of the template repository or directory.
	Location string

	// Subdir is the optional sub-path within the location, written after the // separator.
	Subdir string

	// Ref is the optional version selector, written as a ?ref= query.
	Ref string
}

// ParseSourceReference parses a raw source string. The ref selector's position is significant: it must follow the
// sub-path separator (location//subdir?ref=v1.2.3), never precede it. A ref written on the location while a
// sub-path is present fails with InvalidSourceError.
func ParseSourceReference(source string) (*SourceReference, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.New(InvalidSourceError{Source: source, Reason: "source must not be empty"})
	}

	location, subdir := getter.SourceDirSubdir(source)

	ref := ""

	if subdir != "" {
		if strings.Contains(location, "?") {
			return nil, errors.New(InvalidSourceError{
				Source: source,
				Reason: "the version selector must follow the sub-path separator, not precede it",
			})
		}

		var err error

		subdir, ref, err = splitRef(source, subdir)
		if err != nil {
			return nil, err
		}
	} else {
		var err error

		location, ref, err = splitRef(source, location)
		if err != nil {
			return nil, err
		}
	}

	if err := validateRef(source, ref); err != nil {
		return nil, err
	}

	return &SourceReference{
		Location: location,
		Subdir:   subdir,
		Ref:      ref,
	}, nil
}

// String renders the reference back into its canonical written form.
func (ref *SourceReference) String() string {
	out := ref.Location

	if ref.Subdir != "" {
		out += "//" + ref.Subdir
	}

	if ref.Ref != "" {
		out += "?ref=" + ref.Ref
	}

	return out
}

func splitRef(source, part string) (string, string, error) {
	base, query, found := strings.Cut(part, "?")
	if !found {
		return part, "", nil
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return "", "", errors.New(InvalidSourceError{Source: source, Reason: "malformed query string: " + err.Error()})
	}

	ref := params.Get("ref")
	if ref == "" {
		return "", "", errors.New(InvalidSourceError{Source: source, Reason: "query string must carry a ref parameter"})
	}

	return base, ref, nil
}

// semverLikeRef matches refs that are clearly meant as version tags, e.g. v1 or v0.85.0.
var semverLikeRef = regexp.MustCompile(`^v\d`)

// validateRef sanity-checks refs that look like semver tags. Branch names and commit hashes pass through as-is.
func validateRef(source, ref string) error {
	if !semverLikeRef.MatchString(ref) {
		return nil
	}

	if _, err := version.NewVersion(strings.TrimPrefix(ref, "v")); err != nil {
		return errors.New(InvalidSourceError{Source: source, Reason: "malformed version selector: " + err.Error()})
	}

	return nil
}
