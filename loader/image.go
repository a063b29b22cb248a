// Package loader reads LEG memory images: flat files of 4-byte big-endian
// words placed at consecutive addresses starting at 0.
package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// WordSize is the number of bytes per image word.
const WordSize = 4

// LoadError reports an image that could not be read.
type LoadError struct {
	// Path is the file name, empty when loading from a reader.
	Path string
	// Offset is the byte offset where loading stopped.
	Offset int64
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load image at byte %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("load image %s at byte %d: %v", e.Path, e.Offset, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrPartialWord is wrapped by a LoadError when the input ends in the
// middle of a word.
var ErrPartialWord = errors.New("trailing partial word")

// Image is a program image.
type Image struct {
	// Words holds the contents of addresses 0, 1, 2, ...
	Words []uint32
}

// Loader is the destination of an image.
type Loader interface {
	Load(words []uint32)
}

// Load reads the image file at path.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	img, err := LoadReader(f)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	return img, nil
}

// LoadReader reads an image from r until end of input.
func LoadReader(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)
	img := &Image{}
	var buf [WordSize]byte
	var offset int64

	for {
		n, err := io.ReadFull(br, buf[:])
		switch {
		case err == nil:
			img.Words = append(img.Words, binary.BigEndian.Uint32(buf[:]))
			offset += WordSize
		case errors.Is(err, io.EOF):
			return img, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, &LoadError{Offset: offset + int64(n), Err: ErrPartialWord}
		default:
			return nil, &LoadError{Offset: offset + int64(n), Err: err}
		}
	}
}

// LoadInto writes the image into dst starting at address 0.
func (img *Image) LoadInto(dst Loader) {
	dst.Load(img.Words)
}

// Bytes encodes the image in its file format.
func (img *Image) Bytes() []byte {
	out := make([]byte, 0, len(img.Words)*WordSize)
	for _, w := range img.Words {
		out = binary.BigEndian.AppendUint32(out, w)
	}
	return out
}

// Save writes the image to path.
func (img *Image) Save(path string) error {
	if err := os.WriteFile(path, img.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}
