package entity

import "errors"

// ErrPermanentDelivery marks a provider rejection that retrying cannot
// fix, such as an invalid address. Channel adapters wrap it so the
// delivery engine skips the remaining attempts.
var ErrPermanentDelivery = errors.New("permanent delivery failure")
