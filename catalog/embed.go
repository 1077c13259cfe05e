package catalog

import "embed"

//go:embed catalogdata/instructions.json catalogdata/pseudo.json
var defaultCatalogFiles embed.FS

// LoadDefault loads the built-in instruction and pseudo-instruction
// tables shipped with the module.
func LoadDefault() (*Catalogs, error) {
	instructionsJSON, err := defaultCatalogFiles.ReadFile("catalogdata/instructions.json")
	if err != nil {
		return nil, err
	}
	pseudoJSON, err := defaultCatalogFiles.ReadFile("catalogdata/pseudo.json")
	if err != nil {
		return nil, err
	}
	return Load(instructionsJSON, pseudoJSON)
}
