// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package kernel detects and compares the running kernel version.
package kernel

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed kernel release.
type Version struct {
	Major int
	Minor int
	Patch int
	Raw   string // release string exactly as the kernel reported it
}

// Parse parses a kernel release string such as "6.8.0-41-generic" or "5.15.4".
func Parse(release string) (*Version, error) {
	v := &Version{Raw: release}

	// Distribution suffixes ("-generic", "-348.el8.x86_64") and local build
	// tags ("+") trail the numeric triple.
	numeric := release
	if idx := strings.IndexAny(numeric, "-+"); idx != -1 {
		numeric = numeric[:idx]
	}

	parts := strings.Split(numeric, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid kernel release format: %q", release)
	}

	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return nil, fmt.Errorf("invalid major version in %q: %w", release, err)
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return nil, fmt.Errorf("invalid minor version in %q: %w", release, err)
	}
	if len(parts) >= 3 {
		// Vendors occasionally glue junk onto the patch field; anything
		// unparseable reads as patch 0.
		if patch, err := strconv.Atoi(parts[2]); err == nil {
			v.Patch = patch
		}
	}

	return v, nil
}

func (v *Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1 if v < other, 0 if they are equal, 1 if v > other.
func (v *Version) Compare(other *Version) int {
	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}
	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}
	if v.Patch != other.Patch {
		if v.Patch < other.Patch {
			return -1
		}
		return 1
	}
	return 0
}

// AtLeast reports whether v is other or newer.
func (v *Version) AtLeast(other *Version) bool {
	return v.Compare(other) >= 0
}
