package decoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// The text configuration block written by the acquisition software ends
// with two closing braces, optionally followed by spaces.
var configurationEnd = []byte("}\n}\n")

const BYTES_PER_WORD = 4
const MEGABYTE = 1 << 20

// PayloadStart returns the offset of the first data word after the text
// configuration block.
func PayloadStart(data []byte) (int, error) {
	position := bytes.Index(data, configurationEnd)
	if position < 0 {
		return 0, ErrNoPayload
	}
	position += len(configurationEnd)
	for position < len(data) && data[position] == ' ' {
		position++
	}
	return position, nil
}

// BytesToWords splits a payload into little-endian 32-bit words. Trailing
// bytes that do not fill a word are dropped.
func BytesToWords(data []byte) []uint32 {
	words := make([]uint32, len(data)/BYTES_PER_WORD)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*BYTES_PER_WORD:])
	}
	return words
}

// ReadCaptureFile reads a capture file and returns its data words. When
// maxSizeMB is positive only the first maxSizeMB megabytes are read.
func ReadCaptureFile(filename string, maxSizeMB int) ([]uint32, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	var reader io.Reader = file
	if maxSizeMB > 0 {
		reader = io.LimitReader(file, int64(maxSizeMB)*MEGABYTE)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filename, err)
	}

	start, err := PayloadStart(content)
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", filename, err)
	}
	return BytesToWords(content[start:]), nil
}
