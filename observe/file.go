package observe

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource reads a native reading recorded in a YAML (or JSON) file:
//
//	connected: true
//	code: 2
//	ssid: "\"HomeNet\""
//	bssid: AA:BB:CC:DD:EE:FF
//
// A file with connected: false yields no reading.
type FileSource struct {
	Path string
}

type fileReading struct {
	Connected     bool `yaml:"connected"`
	NativeReading `yaml:",inline"`
}

// Read loads and decodes the file on every call.
func (f FileSource) Read(ctx context.Context) (*NativeReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read native reading: %w", err)
	}

	return decodeReading(data, f.Path)
}

func decodeReading(data []byte, origin string) (*NativeReading, error) {
	var fr fileReading
	if err := yaml.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("failed to parse native reading %s: %w", origin, err)
	}

	if !fr.Connected {
		return nil, nil
	}
	reading := fr.NativeReading
	return &reading, nil
}
