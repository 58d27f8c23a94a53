package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Backend names the capture API used to open camera devices.
type Backend string

const (
	BackendAuto         Backend = "auto"
	BackendAny          Backend = "any"
	BackendDShow        Backend = "dshow"
	BackendV4L2         Backend = "v4l2"
	BackendAVFoundation Backend = "avfoundation"
)

type Config struct {
	CameraIndices []int         // Device indices tried in order (external camera first)
	CameraBackend Backend       // Capture API used to open devices
	FrameWidth    int           // Requested capture width
	FrameHeight   int           // Requested capture height
	WarmupDelay   time.Duration // Pause after setting resolution
	ModelPath     string
	WindowTitle   string
	QuitKey       rune
	WaitKeyDelay  int // ms
	LogDirectory  string
}

// Load reads the optional env files and then the environment.
// A missing .env file is not an error; a malformed one is.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	indices, err := parseIndices(getEnv("CAMERA_INDICES", "1,0"))
	if err != nil {
		return nil, err
	}

	backend, err := ParseBackend(getEnv("CAMERA_BACKEND", string(BackendAuto)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CameraIndices: indices,
		CameraBackend: backend,
		FrameWidth:    getEnvAsInt("FRAME_WIDTH", 1280),
		FrameHeight:   getEnvAsInt("FRAME_HEIGHT", 720),
		WarmupDelay:   getEnvAsDuration("WARMUP_DELAY", 2*time.Second),
		ModelPath:     getEnv("MODEL_PATH", "yolov8n.onnx"),
		WindowTitle:   getEnv("WINDOW_TITLE", "Webcam"),
		QuitKey:       getEnvAsRune("QUIT_KEY", 'q'),
		WaitKeyDelay:  getEnvAsInt("WAIT_KEY_DELAY", 1),
		LogDirectory:  getEnv("LOG_DIR", ""),
	}

	// WaitKey(0) blocks until a key arrives.
	if cfg.WaitKeyDelay < 1 {
		return nil, errors.Errorf("WAIT_KEY_DELAY must be at least 1ms, got %d", cfg.WaitKeyDelay)
	}
	// Key codes are compared on their low byte.
	if cfg.QuitKey < 0x20 || cfg.QuitKey > 0x7e {
		return nil, errors.Errorf("QUIT_KEY must be a printable ASCII character, got %q", cfg.QuitKey)
	}

	return cfg, nil
}

// ParseBackend validates a backend name.
func ParseBackend(name string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(name)))
	switch b {
	case BackendAuto, BackendAny, BackendDShow, BackendV4L2, BackendAVFoundation:
		return b, nil
	}
	return "", errors.Errorf("unknown camera backend %q", name)
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "failed to load env file %s", f)
		}
	}
	return nil
}

func parseIndices(value string) ([]int, error) {
	var indices []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil, errors.Errorf("invalid camera index %q", part)
		}
		indices = append(indices, idx)
	}
	if len(indices) == 0 {
		return nil, errors.New("no camera indices configured")
	}
	return indices, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsRune(key string, defaultValue rune) rune {
	if value := os.Getenv(key); value != "" {
		return []rune(value)[0]
	}
	return defaultValue
}
