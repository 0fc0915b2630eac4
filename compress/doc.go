// Package compress provides the compression codecs used by model
// persistence.
//
// Serialized training records are JSON payloads, typically a few KB of
// column names, transform descriptors, and coefficient vectors, which
// compress well. The persistence envelope records which codec produced
// the payload, so any supported codec can be chosen at save time and the
// right one is selected automatically at load time.
//
// Supported algorithms:
//   - None: no compression (fastest, largest)
//   - Zstd: best compression ratio, moderate speed
//   - S2: balanced compression and speed
//   - LZ4: fast decompression, moderate compression
//
// All built-in codecs are stateless and safe for concurrent use; the
// Zstd and LZ4 implementations pool their encoder state internally.
package compress
