package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildStatusTransitions(t *testing.T) {
	tests := []struct {
		from BuildStatus
		to   BuildStatus
		want bool
	}{
		{from: BuildStatusPending, to: BuildStatusInProgress, want: true},
		{from: BuildStatusPending, to: BuildStatusSuccess, want: false},
		{from: BuildStatusPending, to: BuildStatusFailed, want: false},
		{from: BuildStatusInProgress, to: BuildStatusSuccess, want: true},
		{from: BuildStatusInProgress, to: BuildStatusFailed, want: true},
		{from: BuildStatusInProgress, to: BuildStatusPending, want: false},
		{from: BuildStatusSuccess, to: BuildStatusFailed, want: false},
		{from: BuildStatusFailed, to: BuildStatusInProgress, want: false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
	assert.True(t, BuildStatusSuccess.Terminal())
	assert.True(t, BuildStatusFailed.Terminal())
	assert.False(t, BuildStatusInProgress.Terminal())
}

func TestBuildKindFromString(t *testing.T) {
	kind, known := BuildKindFromString("binary")
	assert.True(t, known)
	assert.Equal(t, BuildKindBinary, kind)

	_, known = BuildKindFromString("sdist")
	assert.False(t, known)
}

func TestPackageReferenceIsLatest(t *testing.T) {
	assert.True(t, PackageReference{Name: "requests"}.IsLatest())
	assert.True(t, PackageReference{Name: "requests", Version: "latest"}.IsLatest())
	assert.False(t, PackageReference{Name: "requests", Version: "2.31.0"}.IsLatest())
}

func TestStageErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := NewStageError(BuildStageFetch, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "fetch: boom", err.Error())
}
