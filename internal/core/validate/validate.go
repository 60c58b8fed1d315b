// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/cams/internal/core/consolidation"
)

// Required validates a value is non-empty after trimming whitespace.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// CaseID validates the CCC-NN-NNNNN shape of a case ID.
func CaseID(id string) error {
	if len(id) < 4 || consolidation.ComputeLeadCaseID(id[:3], id[4:]) != id {
		return fmt.Errorf("%q is not shaped CCC-NN-NNNNN", id)
	}
	return nil
}

// CaseIDField returns a criterio validator for case IDs.
func CaseIDField(field, id string) error {
	return criterio.Run(field, id, CaseID)
}

// RequiredField returns a criterio validator for required values.
func RequiredField(field, value string) error {
	return criterio.Run(field, value, Required)
}
