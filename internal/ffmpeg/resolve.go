package ffmpeg

import "fmt"

// Environment variables for custom binary paths.
const (
	envFFmpegPath  = "FFMPEG_PATH"
	envFFprobePath = "FFPROBE_PATH"
)

// Resolve returns the path to a usable ffmpeg binary.
//
// Resolution order:
//  1. FFMPEG_PATH environment variable (must point at an existing file)
//  2. ffmpeg found on PATH
//
// Returns an error wrapping ErrNotFound when neither yields a binary.
func Resolve() (string, error) {
	return resolve(osEnvProvider{}, osFileReader{}, envFFmpegPath, "ffmpeg")
}

// ResolveProbe returns the path to a usable ffprobe binary, honoring
// FFPROBE_PATH before falling back to PATH lookup.
func ResolveProbe() (string, error) {
	return resolve(osEnvProvider{}, osFileReader{}, envFFprobePath, "ffprobe")
}

// resolve implements the shared lookup logic with injectable dependencies.
func resolve(env envProvider, fs fileReader, envKey, binary string) (string, error) {
	if custom := env.Getenv(envKey); custom != "" {
		info, err := fs.Stat(custom)
		if err != nil {
			return "", fmt.Errorf("%s points to %q: %w", envKey, custom, ErrNotFound)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s points to a directory %q: %w", envKey, custom, ErrNotFound)
		}
		return custom, nil
	}

	path, err := env.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%s not on PATH (install it or set %s): %w", binary, envKey, ErrNotFound)
	}
	return path, nil
}
