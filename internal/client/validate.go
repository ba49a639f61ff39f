package client

import "errors"

// Validation errors, detected before any network call. Each message names
// the missing slot so the user knows what to re-select.
var (
	ErrNoDocumentFiles = errors.New("no design document files selected")
	ErrNoNewExcelFiles = errors.New("no new-version design document files selected")
	ErrNoOldStructured = errors.New("previous structured document file not selected")
	ErrNoOldTestSpec   = errors.New("previous test specification file not selected")
)

func validateNormal(sub *NormalSubmission) error {
	if sub == nil || len(sub.DocumentFiles) == 0 {
		return ErrNoDocumentFiles
	}
	return nil
}

// validateDiff checks the three diff-mode slots in fixed order: new files
// first, then the old structured document, then the old test spec. The
// first missing slot short-circuits.
func validateDiff(sub *DiffSubmission) error {
	if sub == nil || len(sub.NewExcelFiles) == 0 {
		return ErrNoNewExcelFiles
	}
	if sub.OldStructuredMd == nil {
		return ErrNoOldStructured
	}
	if sub.OldTestSpecMd == nil {
		return ErrNoOldTestSpec
	}
	return nil
}
