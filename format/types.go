// Package format defines the wire-level identifiers shared by the
// persistence envelope: the compression-type byte written into the header
// and decoded back on load.
package format

// CompressionType identifies the codec used for a persisted model
// envelope. The value is stored as a single header byte, so existing
// values must never be renumbered.
type CompressionType uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone CompressionType = 0x1
	// CompressionZstd compresses with Zstandard.
	CompressionZstd CompressionType = 0x2
	// CompressionS2 compresses with S2.
	CompressionS2 CompressionType = 0x3
	// CompressionLZ4 compresses with LZ4 block format.
	CompressionLZ4 CompressionType = 0x4
)

var compressionNames = map[CompressionType]string{
	CompressionNone: "None",
	CompressionZstd: "Zstd",
	CompressionS2:   "S2",
	CompressionLZ4:  "LZ4",
}

func (c CompressionType) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}

	return "Unknown"
}
