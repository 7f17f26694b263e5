package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "合法配置原样保留",
			in:   Config{ChunkSize: 500, ChunkOverlap: 50, MinChunkSize: 50},
			want: Config{ChunkSize: 500, ChunkOverlap: 50, MinChunkSize: 50},
		},
		{
			name: "零值退回默认",
			in:   Config{},
			want: Config{ChunkSize: 500, ChunkOverlap: 0, MinChunkSize: 50},
		},
		{
			name: "负 overlap 归零",
			in:   Config{ChunkSize: 200, ChunkOverlap: -10, MinChunkSize: 20},
			want: Config{ChunkSize: 200, ChunkOverlap: 0, MinChunkSize: 20},
		},
		{
			name: "min 超过 chunk_size 时按十分之一重算",
			in:   Config{ChunkSize: 100, ChunkOverlap: 10, MinChunkSize: 400},
			want: Config{ChunkSize: 100, ChunkOverlap: 10, MinChunkSize: 10},
		},
		{
			name: "极小 chunk_size 保证 min 至少为一",
			in:   Config{ChunkSize: 5, ChunkOverlap: 0, MinChunkSize: 0},
			want: Config{ChunkSize: 5, ChunkOverlap: 0, MinChunkSize: 1},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.normalize())
		})
	}
}
