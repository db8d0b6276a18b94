package uploads

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDataURI(t *testing.T) {
	payload := []byte("transfer receipt bytes")
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	file, err := FromDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, payload, file.Data)
	assert.True(t, strings.HasSuffix(file.Name, ".png"))
	assert.Len(t, file.Name, 32+len(".png"))
}

func TestFromDataURIUnpadded(t *testing.T) {
	payload := []byte("odd!")
	raw := base64.RawStdEncoding.EncodeToString(payload)
	require.NotEqual(t, raw, base64.StdEncoding.EncodeToString(payload))

	file, err := FromDataURI("data:image/jpeg;base64," + raw)
	require.NoError(t, err)
	assert.Equal(t, payload, file.Data)
}

func TestFromDataURIMalformed(t *testing.T) {
	cases := []string{
		"",
		"not a data uri",
		"data:image/png,aGVsbG8=",
		"data:;base64,aGVsbG8=",
		"data:application/x-unknown-donation;base64,aGVsbG8=",
		"data:image/png;base64,%%%",
	}
	for _, uri := range cases {
		_, err := FromDataURI(uri)
		assert.Error(t, err, uri)
	}
}

func TestFromDataURIUniqueNames(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("x"))
	a, err := FromDataURI(uri)
	require.NoError(t, err)
	b, err := FromDataURI(uri)
	require.NoError(t, err)
	assert.NotEqual(t, a.Name, b.Name)
}