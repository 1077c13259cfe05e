package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Load parses the instruction and pseudo-instruction catalog JSON
// documents and builds three indexes: instructions by mnemonic, by
// (mnemonic, extension) pair, and pseudo-instructions by mnemonic. The RV32 variant
// wins ties in the default (by_mnemonic) index; the (mnemonic,
// extension) index keeps the first occurrence.
func Load(instructionsJSON, pseudoJSON []byte) (*Catalogs, error) {
	var instructions []Instruction
	if err := json.Unmarshal(instructionsJSON, &instructions); err != nil {
		return nil, fmt.Errorf("catalog: decode instructions: %w", err)
	}

	var pseudos []Pseudo
	if len(pseudoJSON) > 0 {
		if err := json.Unmarshal(pseudoJSON, &pseudos); err != nil {
			return nil, fmt.Errorf("catalog: decode pseudo-instructions: %w", err)
		}
	}

	c := &Catalogs{
		byMnemonic:    make(map[string]Instruction, len(instructions)),
		byMnemonicExt: make(map[string]Instruction, len(instructions)),
		pseudoByMnem:  make(map[string][]Pseudo, len(pseudos)),
	}

	for _, rec := range instructions {
		mnemonic := strings.ToUpper(rec.Mnemonic)
		rec.Mnemonic = mnemonic

		key := extKey(mnemonic, rec.Extension)
		if _, exists := c.byMnemonicExt[key]; !exists {
			c.byMnemonicExt[key] = rec
		}

		if existing, exists := c.byMnemonic[mnemonic]; !exists {
			c.byMnemonic[mnemonic] = rec
		} else if !strings.HasPrefix(existing.Extension, "RV32") && strings.HasPrefix(rec.Extension, "RV32") {
			// RV32 variant wins the default index on duplicate mnemonic.
			c.byMnemonic[mnemonic] = rec
		}
	}

	for _, p := range pseudos {
		mnemonic := strings.ToUpper(p.Mnemonic)
		p.Mnemonic = mnemonic
		c.pseudoByMnem[mnemonic] = append(c.pseudoByMnem[mnemonic], p)
	}

	return c, nil
}

// Validate reports structural problems with the loaded catalogs that
// would otherwise surface only as confusing encode/decode failures:
// encoding fields whose bit ranges don't fit inside the record's total
// width, and encodings whose declared width isn't 16 or 32.
func (c *Catalogs) Validate() []error {
	var errs []error
	seen := make(map[string]bool)
	for key, rec := range c.byMnemonicExt {
		if seen[key] {
			continue
		}
		seen[key] = true

		w := rec.Width()
		if w != 16 && w != 32 {
			errs = append(errs, fmt.Errorf("catalog: %s: encoding width %d is neither 16 nor 32", key, w))
			continue
		}
		for _, f := range rec.EncodingFields {
			if f.StartBit >= w || f.EndBit < 0 || f.StartBit < f.EndBit {
				errs = append(errs, fmt.Errorf("catalog: %s: field %s has invalid bit range [%d:%d] for width %d", key, f.Name, f.StartBit, f.EndBit, w))
			}
		}
	}
	return errs
}
