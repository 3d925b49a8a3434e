package pdf

import (
	"os"

	"github.com/m-mizutani/bdifget/pkg/domain/interfaces"
	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu otherwise writes its configuration into the user config dir
	api.DisableConfigDir()
}

var _ interfaces.PDFVerifier = (*Verifier)(nil)

// Verifier checks that a file on disk parses as a PDF document. Validation
// is relaxed so common producer quirks are tolerated.
type Verifier struct{}

// New creates a new Verifier
func New() *Verifier {
	return &Verifier{}
}

// Verify returns nil when path holds a readable PDF document
func (v *Verifier) Verify(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return goerr.Wrap(err, "failed to open file",
			goerr.V("path", path),
			goerr.T(types.ErrTagFileSystem),
		)
	}
	defer f.Close()

	// Configuration is mutated by pdfcpu during validation, so every call gets its own
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.Validate(f, conf); err != nil {
		return goerr.Wrap(err, "invalid PDF",
			goerr.V("path", path),
			goerr.T(types.ErrTagProtocol),
		)
	}

	return nil
}
