package escrow

import (
	"math"

	"github.com/iov-one/custody/errors"
)

// absoluteExpiry turns an expiry relative to the current slot into the
// slot the escrow expires at. Zero means the escrow never expires.
func absoluteExpiry(slot, relative, max uint64) (uint64, error) {
	if relative >= max {
		return 0, errors.Wrapf(errors.ErrExpiryOutOfBounds, "expiry %d, max %d", relative, max)
	}
	if relative == 0 {
		return 0, nil
	}
	if slot > math.MaxUint64-relative {
		return 0, errors.Wrap(errors.ErrExpiryOutOfBounds, "overflow")
	}
	return slot + relative, nil
}
