// Package openapi embeds the inventory API OpenAPI document for runtime
// distribution.
package openapi

import (
	_ "embed"
	"sync"

	"go.yaml.in/yaml/v3"
)

// InventorySpec contains the OpenAPI document served at /openapi.yaml.
//
//go:embed inventory.yaml
var InventorySpec []byte

type infoDoc struct {
	Info struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
}

var (
	infoOnce sync.Once
	info     infoDoc
	infoErr  error
)

// Spec returns a copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), InventorySpec...)
}

// Version returns the API version declared in the document's info block.
func Version() (string, error) {
	infoOnce.Do(func() {
		infoErr = yaml.Unmarshal(InventorySpec, &info)
	})
	return info.Info.Version, infoErr
}
