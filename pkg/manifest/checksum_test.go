package manifest

import (
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// md5("The quick brown fox jumps over the lazy dog")
const foxMD5 = "9e107d9d372bb6826bd81d3542a419d6"

func TestParseChecksum(t *testing.T) {
	sri := sha512.Sum384([]byte("x"))
	sriText := "sha384-" + base64.StdEncoding.EncodeToString(sri[:])

	tests := []struct {
		in   string
		alg  Algorithm
		fail bool
	}{
		{"md5:" + foxMD5, MD5, false},
		{"MD5:" + strings.ToUpper(foxMD5), MD5, false},
		{foxMD5, MD5, false},
		{"sha256:" + strings.Repeat("ab", 32), SHA256, false},
		{strings.Repeat("ab", 32), SHA256, false},
		{sriText, SHA384, false},
		{"", "", true},
		{"md5:xyz", "", true},
		{"md5:abcd", "", true},
		{"crc32:deadbeef", "", true},
		{"sha384-!!!", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChecksum(tt.in)
			if tt.fail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.alg, got.Algorithm)
		})
	}
}

func TestChecksumVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fox.txt")
	require.NoError(t, os.WriteFile(path, []byte("The quick brown fox jumps over the lazy dog"), 0o644))

	good, err := ParseChecksum("md5:" + foxMD5)
	require.NoError(t, err)
	assert.NoError(t, good.VerifyFile(path))

	bad, err := ParseChecksum("md5:" + strings.Repeat("0", 32))
	require.NoError(t, err)
	err = bad.VerifyFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChecksumMismatch))

	var ce *ChecksumError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "md5:"+foxMD5, ce.Got.String())
}

func TestChecksumText(t *testing.T) {
	var c Checksum
	require.NoError(t, c.UnmarshalText([]byte(foxMD5)))
	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "md5:"+foxMD5, string(text))
}
