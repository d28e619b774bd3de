package kusto

import (
	"errors"
	"fmt"
)

// PolicyError is returned when a cluster is not in the known services list
// and unknown services are not allowed.
type PolicyError struct {
	URI string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("service URI '%s' is not in the list of approved services, "+
		"and unknown connections are not permitted by the administrator", e.URI)
}

// IsPolicyError reports whether err is, or wraps, a *PolicyError.
func IsPolicyError(err error) bool {
	var policyErr *PolicyError
	return errors.As(err, &policyErr)
}

// OperationError wraps a failed operation with the correlation id sent to
// the cluster, so that a caller can quote it to an operator.
type OperationError struct {
	Operation     string
	CorrelationID string
	Err           error
}

func (e *OperationError) Error() string {
	if e.CorrelationID == "" {
		return fmt.Sprintf("error executing Kusto operation '%s': %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("error executing Kusto operation '%s' (correlation ID: %s): %v",
		e.Operation, e.CorrelationID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
