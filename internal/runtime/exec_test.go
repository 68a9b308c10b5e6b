package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeEnv(t *testing.T) {
	image := []string{
		"PATH=/usr/local/sbin:/usr/local/bin:/usr/bin",
		"ZEPHYR_SDK_INSTALL_DIR=/opt/zephyr-sdk",
	}

	tests := []struct {
		name      string
		base      []string
		overrides []string
		want      []string
	}{
		{
			name:      "image environment kept",
			base:      image,
			overrides: []string{"CCACHE_DIR=/work/.ccache"},
			want:      append([]string{"CCACHE_DIR=/work/.ccache"}, image...),
		},
		{
			name:      "override replaces image value",
			base:      image,
			overrides: []string{"ZEPHYR_SDK_INSTALL_DIR=/sdk"},
			want:      []string{image[0], "ZEPHYR_SDK_INSTALL_DIR=/sdk"},
		},
		{
			name:      "later override wins",
			base:      nil,
			overrides: []string{"BOARD=a", "BOARD=b"},
			want:      []string{"BOARD=b"},
		},
		{
			name:      "value containing equals",
			base:      []string{"CMAKE_ARGS=-DA=1"},
			overrides: nil,
			want:      []string{"CMAKE_ARGS=-DA=1"},
		},
		{
			name:      "malformed entries dropped",
			base:      []string{"NOEQUALS", "A=1"},
			overrides: []string{"ALSO_BAD", "B="},
			want:      []string{"A=1", "B="},
		},
		{
			name: "both empty",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, mergeEnv(tt.base, tt.overrides))
		})
	}
}

func TestNextExecIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := nextExecID()
		assert.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate exec id %q", id)
		seen[id] = true
	}
}
