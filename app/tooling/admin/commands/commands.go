// Package commands contains the functionality for the admin tool commands.
package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/ardanlabs/petition/business/sys/output"
	"github.com/ardanlabs/petition/foundation/blockchain/database"
	"github.com/ardanlabs/petition/foundation/blockchain/petition"
	"github.com/ardanlabs/petition/foundation/blockchain/validate"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

// ErrInvalidLedger is returned when a ledger fails validation.
var ErrInvalidLedger = errors.New("ledger failed validation")

// Validate checks the hash linkage of the stored chain and every signature
// against the registry. The reports are written even when validation fails.
func Validate(w io.Writer, format string, strg database.Storage, keys validate.KeyLookup) error {
	chain, err := strg.Load()
	if err != nil {
		return err
	}

	report := struct {
		Chain      validate.Report `json:"chain"`
		Signatures validate.Report `json:"signatures"`
	}{
		Chain:      validate.Chain(chain),
		Signatures: validate.Signatures(chain, keys),
	}

	if err := output.Render(w, format, report); err != nil {
		return err
	}

	if !report.Chain.OK || !report.Signatures.OK {
		return ErrInvalidLedger
	}

	return nil
}

// Chain writes every stored block.
func Chain(w io.Writer, format string, strg database.Storage) error {
	chain, err := strg.Load()
	if err != nil {
		return err
	}

	return output.Render(w, format, chain)
}

// Stats writes the number of signers of every petition.
func Stats(w io.Writer, format string, strg database.Storage) error {
	chain, err := strg.Load()
	if err != nil {
		return err
	}

	return output.Render(w, format, petition.Stats(chain))
}

// Migrate copies a valid chain from one storage to another and returns the
// number of blocks copied. The copy is read back and compared by hash.
func Migrate(src database.Storage, dst database.Storage) (int, error) {
	chain, err := src.Load()
	if err != nil {
		return 0, err
	}

	if r := validate.Chain(chain); !r.OK {
		return 0, fmt.Errorf("%w: %s", ErrInvalidLedger, r.Detail)
	}

	if err := dst.Save(chain); err != nil {
		return 0, err
	}

	cpy, err := dst.Load()
	if err != nil {
		return 0, err
	}

	if len(cpy) != len(chain) {
		return 0, fmt.Errorf("copy holds %d blocks, source holds %d", len(cpy), len(chain))
	}
	for i := range chain {
		if cpy[i].Hash != chain[i].Hash || cpy[i].CalculateHash() != chain[i].Hash {
			return 0, fmt.Errorf("copy of block %d does not match", i)
		}
	}

	return len(chain), nil
}
