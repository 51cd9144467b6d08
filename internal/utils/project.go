package utils

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// PackageInfo holds the package.json fields the pipeline reads.
type PackageInfo struct {
	Name        string
	Version     string
	Main        string
	ProductName string
}

// ReadPackageInfo reads package.json at p.
func ReadPackageInfo(p string) (*PackageInfo, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s is not valid JSON", p)
	}

	fields := gjson.GetManyBytes(data, "name", "version", "main", "productName")
	return &PackageInfo{
		Name:        fields[0].String(),
		Version:     fields[1].String(),
		Main:        fields[2].String(),
		ProductName: fields[3].String(),
	}, nil
}

// PackageField returns one top-level string field of package.json at p.
func PackageField(p, field string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", p, err)
	}
	return gjson.GetBytes(data, field).String(), nil
}
