package core

// Compression identifies the compression applied to an output bundle.
type Compression int

// Supported compression formats.
const (
	// NoCompression is a plain tar stream.
	NoCompression Compression = iota
	// GzipCompression is gzip-compressed tar (the service default).
	GzipCompression
	// ZstdCompression is zstd-compressed tar.
	ZstdCompression
)

// String returns the conventional file extension name for the format.
func (c Compression) String() string {
	switch c {
	case GzipCompression:
		return "gzip"
	case ZstdCompression:
		return "zstd"
	default:
		return "none"
	}
}
