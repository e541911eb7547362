package value

import "time"

// CurrentValidity resolves the validity stamp for a write transaction
// that did not supply one explicitly. It is called exactly once per
// transact_write call; every triple written by that call shares the
// resulting validity.
func CurrentValidity() Validity {
	return Validity(time.Now().UnixMicro())
}
