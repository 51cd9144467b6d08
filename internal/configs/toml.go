package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/facebookgo/atomicfile"
)

// SaveTOML atomically writes data to filePath as TOML.
func SaveTOML(filePath string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}

	file, err := atomicfile.New(filePath, 0644)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(file).Encode(data); err != nil {
		file.Abort()
		return err
	}
	return file.Close()
}

// LoadTOML loads a TOML file into a struct.
func LoadTOML(filePath string, data interface{}) error {
	_, err := toml.DecodeFile(filePath, data)
	return err
}

// WriteDefaultTOML writes encryptor.toml with default values and key into
// dir. It refuses to replace an existing config unless force is set.
func WriteDefaultTOML(dir, key string, force bool) (string, error) {
	existing, err := FindConfigFile(dir)
	if err != nil {
		return "", err
	}
	if existing != "" && !force {
		return existing, fmt.Errorf("%s already exists", existing)
	}

	cfg := Default()
	cfg.Key = key
	p := filepath.Join(dir, ConfigFileNames[0])
	if err := SaveTOML(p, cfg); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return p, nil
}
