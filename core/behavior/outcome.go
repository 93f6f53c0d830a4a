package behavior

import "github.com/dmitrymomot/messaging/core/result"

// failureOf returns the error of a failed pipeline run, including failures
// carried inside an outcome value.
func failureOf(out any, err error) error {
	if err != nil {
		return err
	}
	if o, ok := out.(result.Outcome); ok && !o.IsSuccess() {
		return o.Err()
	}
	return nil
}
