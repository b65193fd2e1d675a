package logger

import (
	"bytes"
	"io"
	"os"
)

// Tail returns the last n lines of the file at path.
// Reads backwards in chunks so large log files are not loaded whole.
func Tail(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return tailReader(f, n)
}

func tailReader(f io.ReadSeeker, n int) ([]byte, error) {
	const chunkSize = 4096

	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	var data []byte
	for end > 0 && bytes.Count(data, []byte{'\n'}) <= n {
		readSize := int64(chunkSize)
		if readSize > end {
			readSize = end
		}
		end -= readSize

		if _, err := f.Seek(end, io.SeekStart); err != nil {
			return nil, err
		}
		buf := make([]byte, readSize)
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, err
		}
		data = append(buf, data...)
	}

	lines := bytes.SplitAfter(data, []byte{'\n'})
	// SplitAfter leaves a trailing empty slice when data ends with a newline.
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return bytes.Join(lines, nil), nil
}
