package constants

const (
	AppName    = "quantum-balances"
	AssetsFile = "assets.json"

	SchemaV1      = 1
	FilePerm      = 0o600
	DirectoryPerm = 0o700

	NativeAddr     = "0x0000000000000000000000000000000000000000"
	NativeDecimals = 18

	// ERC-20 decimals() returns a uint8.
	MaxDecimals = 255

	// Significant digits kept when a display value is truncated.
	DefaultSignificantDigits = 6

	RequestIDHeader = "X-Request-ID"
)
