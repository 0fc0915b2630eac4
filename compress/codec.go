package compress

import (
	"fmt"

	"github.com/tsfit/tsfit/format"
)

// Compressor compresses a serialized model payload.
type Compressor interface {
	// Compress compresses the input data and returns the compressed
	// result. The returned slice is newly allocated and owned by the
	// caller; the input slice is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a serialized model payload.
type Decompressor interface {
	// Decompress decompresses data previously produced by the matching
	// Compressor. It validates the data format and returns an error if
	// the data is corrupted or uses an incompatible format.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both capabilities. All built-in codecs are stateless and
// safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec creates a fresh Codec for the given compression type.
// target describes the usage and only appears in error messages.
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the shared built-in Codec for the compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
