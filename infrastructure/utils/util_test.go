package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"track.mp3":              "track.mp3",
		"../../etc/passwd":       "passwd",
		"my song (final).mp3":    "my_song_final.mp3",
		"добрый.mp3":             "mp3",
		"":                       "file",
		"...":                    "file",
		"cover art.v2.jpg":       "cover_art.v2.jpg",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(map[string]interface{}{"sub": "1"}, "secret")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}
