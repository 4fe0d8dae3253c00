package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// Frame markers for LZ4Compressor output.
const (
	frameRaw byte = 0
	frameLZ4 byte = 1
)

var errShortFrame = errors.New("compressed frame too short")

// NoCompressor stores account data as is. Frames are copies so callers
// may keep mutating their buffers.
type NoCompressor struct{}

func (*NoCompressor) Name() string { return None }

func (*NoCompressor) Compress(data []byte, _ int) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (*NoCompressor) Decompress(frame []byte) ([]byte, error) {
	return append([]byte(nil), frame...), nil
}

func (*NoCompressor) MaxCompressedSize(n int) int { return n }

// LZ4Compressor implements LZ4 block compression. Output is framed as a
// marker byte and the uvarint uncompressed length, followed by either the
// LZ4 block or the raw bytes when the block would not be smaller.
type LZ4Compressor struct{}

func (*LZ4Compressor) Name() string { return "lz4" }

// Compress ignores level; block mode has a single setting.
func (*LZ4Compressor) Compress(data []byte, _ int) ([]byte, error) {
	header := make([]byte, 1+binary.MaxVarintLen64)
	n := binary.PutUvarint(header[1:], uint64(len(data)))
	header = header[:1+n]

	if len(data) == 0 {
		header[0] = frameRaw
		return header, nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	size, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

		// Incompressible input comes back as size 0.
	if size == 0 || size >= len(data) {
		header[0] = frameRaw
		return append(header, data...), nil
	}

	header[0] = frameLZ4
	return append(header, compressed[:size]...), nil
}

func (*LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, errShortFrame
	}
	length, n := binary.Uvarint(data[1:])
	if n <= 0 {
		return nil, fmt.Errorf("lz4 decompression failed: bad length prefix")
	}
	payload := data[1+n:]

	switch data[0] {
	case frameRaw:
		if uint64(len(payload)) != length {
			return nil, fmt.Errorf("lz4 decompression failed: raw frame holds %d bytes, want %d", len(payload), length)
		}
		result := make([]byte, len(payload))
		copy(result, payload)
		return result, nil
	case frameLZ4:
		result := make([]byte, length)
		size, err := lz4.UncompressBlock(payload, result)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if uint64(size) != length {
			return nil, fmt.Errorf("lz4 decompression failed: got %d bytes, want %d", size, length)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("lz4 decompression failed: unknown frame marker %d", data[0])
	}
}

func (*LZ4Compressor) MaxCompressedSize(n int) int {
	return 1 + binary.MaxVarintLen64 + lz4.CompressBlockBound(n)
}
