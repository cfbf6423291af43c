// Package compression detects the stream compression of an archive payload
// by magic bytes, falling back to the filename suffix, and returns a
// decompressing reader. Detection never trusts the suffix alone when magic
// bytes are readable, so a gzip tarball named plain ".tar" still decodes.
package compression

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/mholt/archives"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

const defaultBufSize = 32 * 1024

// 6 is the longest magic used here (xz)
const maxMagicBytes = 6

type format struct {
	name  string
	magic []byte
	exts  []string
	open  func(io.Reader) (io.ReadCloser, error)
}

// lzma's short magic is checked last so it cannot shadow longer prefixes
var formats = []format{
	{name: "gzip", magic: []byte{0x1F, 0x8B}, exts: []string{".gz", ".tgz"}, open: gzipReader},
	{name: "bzip2", magic: []byte{0x42, 0x5A, 0x68}, exts: []string{".bz2", ".tbz2"}, open: bz2Reader},
	{name: "xz", magic: []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, exts: []string{".xz", ".txz"}, open: xzReader},
	{name: "zstd", magic: []byte{0x28, 0xB5, 0x2F, 0xFD}, exts: []string{".zst"}, open: zstdReader},
	{name: "lzip", magic: []byte{0x4C, 0x5A, 0x49, 0x50}, exts: []string{".lz"}, open: lzipReader},
	{name: "lzma", magic: []byte{0x5D, 0x00, 0x00}, exts: []string{".lzma", ".tlzma"}, open: lzmaReader},
}

// NewReader opens filePath and wraps it in a decompressing reader for
// whichever compression format its magic bytes (or, failing that, its
// suffix) identify. isCompressed is false when no format matches; the
// returned reader then yields the raw file bytes.
func NewReader(filePath string) (reader io.ReadCloser, isCompressed bool, err error) {
	if f := detectByMagic(filePath); f != nil {
		reader, err = openReader(filePath, f.open)
		return reader, true, err
	}
	if f := detectByExt(filePath); f != nil {
		reader, err = openReader(filePath, f.open)
		return reader, true, err
	}
	reader, err = openReader(filePath, rawReader)
	return reader, false, err
}

func detectByMagic(filePath string) *format {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	magic := make([]byte, maxMagicBytes)
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil
	}
	for i := range formats {
		if bytes.HasPrefix(magic, formats[i].magic) {
			return &formats[i]
		}
	}
	return nil
}

func detectByExt(filePath string) *format {
	ext := strings.ToLower(filepath.Ext(filePath))
	for i := range formats {
		for _, candidate := range formats[i].exts {
			if ext == candidate {
				return &formats[i]
			}
		}
	}
	return nil
}

// cReader keeps the underlying file alive for the lifetime of the
// decompressing reader and closes both together.
type cReader struct {
	reader io.ReadCloser
	file   *os.File
}

func (cr *cReader) Read(p []byte) (int, error) {
	return cr.reader.Read(p)
}

func (cr *cReader) Close() error {
	if err := cr.file.Close(); err != nil {
		return err
	}
	return cr.reader.Close()
}

func openReader(filePath string, getReader func(io.Reader) (io.ReadCloser, error)) (io.ReadCloser, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	r, err := getReader(bufio.NewReaderSize(f, defaultBufSize))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &cReader{reader: r, file: f}, nil
}

func gzipReader(reader io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(reader)
}

func bz2Reader(reader io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(bzip2.NewReader(reader)), nil
}

func xzReader(reader io.Reader) (io.ReadCloser, error) {
	r, err := xz.NewReader(reader)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(r), nil
}

func lzmaReader(reader io.Reader) (io.ReadCloser, error) {
	r, err := lzma.NewReader(reader)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(r), nil
}

func lzipReader(reader io.Reader) (io.ReadCloser, error) {
	r, err := archives.Lzip{}.OpenReader(reader)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(r), nil
}

func zstdReader(reader io.Reader) (io.ReadCloser, error) {
	r, err := zstd.NewReader(reader, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return io.NopCloser(r), nil
}

func rawReader(reader io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(reader), nil
}
