package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionPrefersLdflags(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", GetVersion())
	assert.True(t, IsRelease())
}

func TestParseBuildTime(t *testing.T) {
	want := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
	assert.True(t, want.Equal(parseBuildTime("2024-03-09T10:30:00Z")))
	assert.True(t, want.Equal(parseBuildTime("2024-03-09 10:30:00")))
	assert.True(t, parseBuildTime("unknown").IsZero())
}

func TestBuildInfoString(t *testing.T) {
	info := &BuildInfo{
		Version:   "v1.0.0",
		GitCommit: "abcdef1234",
		Modified:  true,
		GoVersion: "go1.24.4",
		Platform:  "linux/amd64",
	}

	out := info.String()
	assert.Contains(t, out, "ogcard v1.0.0")
	assert.Contains(t, out, "commit: abcdef1234 (modified)")
	assert.NotContains(t, out, "built:")
	assert.Contains(t, out, "go1.24.4 linux/amd64")
}
