package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetMultiline(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "stops on empty line",
			input:    "{\"id\": \"1\",\n\"title\": \"Akira\"}\n\nlist anime\n",
			expected: "{\"id\": \"1\",\n\"title\": \"Akira\"}",
		},
		{
			name:     "windows line endings",
			input:    "{\"title\": \"Ghost in the Shell\"}\r\n\r\n",
			expected: "{\"title\": \"Ghost in the Shell\"}",
		},
		{
			name:     "EOF without trailing blank line",
			input:    "{\"title\": \"Paprika\"}",
			expected: "{\"title\": \"Paprika\"}",
		},
		{
			name:     "immediate blank line",
			input:    "\n",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMultiline(rdr(tc.input), "Enter the record as JSON", &out)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
			require.Contains(t, out.String(), "Enter the record as JSON")
		})
	}
}

func TestGetMultiline_LeavesRestOfInput(t *testing.T) {
	in := rdr("{\"title\": \"Akira\"}\n\nexit\n")
	var out bytes.Buffer

	_, err := GetMultiline(in, "json", &out)
	require.NoError(t, err)

	rest, err := in.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "exit\n", rest)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), pw)
	require.Contains(t, out.String(), "passphrase")
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err := GetPassword(&bytes.Buffer{})
	require.Error(t, err)

	readPassword = func(int) ([]byte, error) { return []byte{}, nil }
	_, err = GetPassword(&bytes.Buffer{})
	require.Error(t, err)
}
