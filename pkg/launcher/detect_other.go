//go:build !darwin

package launcher

// Detect returns the Starter for this host. Automatic launch is only
// implemented for macOS.
func Detect(_ string) Starter {
	return Unsupported{Reason: "automatic Anki launch is only supported on macOS"}
}
