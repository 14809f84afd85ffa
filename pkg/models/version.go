package models

import (
	"github.com/hashicorp/go-version"
	"github.com/tidwall/gjson"
)

// SpecVersion is a generation of the contract file format.
type SpecVersion int

const (
	SpecUnknown SpecVersion = iota
	V1
	V1_1
	V2
	V3
	V4
)

// DefaultSpecVersion is assumed for contract files that do not declare a version.
const DefaultSpecVersion = V3

func (v SpecVersion) String() string {
	switch v {
	case V1:
		return "1.0.0"
	case V1_1:
		return "1.1.0"
	case V2:
		return "2.0.0"
	case V3:
		return "3.0.0"
	case V4:
		return "4.0.0"
	}
	return "unknown"
}

// ParseSpecVersion parses versions such as `3.0.0`, `4.0` or `2`.
func ParseSpecVersion(s string) SpecVersion {
	v, err := version.NewVersion(s)
	if err != nil {
		return SpecUnknown
	}
	segments := v.Segments()
	switch segments[0] {
	case 1:
		if len(segments) > 1 && segments[1] >= 1 {
			return V1_1
		}
		return V1
	case 2:
		return V2
	case 3:
		return V3
	case 4:
		return V4
	}
	return SpecUnknown
}

var versionPaths = []string{
	"metadata.pactSpecification.version",
	"metadata.pact-specification.version",
	"metadata.pactSpecificationVersion",
}

// detectSpecVersion reads the declared version of a contract file. Interactions carrying a
// `type` field only exist in V4 files, so their presence forces V4.
func detectSpecVersion(root gjson.Result) SpecVersion {
	for _, key := range []string{"interactions", "messages"} {
		forced := false
		root.Get(key).ForEach(func(_, interaction gjson.Result) bool {
			forced = interaction.Get("type").Exists()
			return !forced
		})
		if forced {
			return V4
		}
	}

	for _, path := range versionPaths {
		if v := root.Get(path); v.Exists() {
			if parsed := ParseSpecVersion(v.String()); parsed != SpecUnknown {
				return parsed
			}
		}
	}
	return DefaultSpecVersion
}
