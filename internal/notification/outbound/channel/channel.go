// Package channel holds the provider adapters the delivery engine
// dispatches to, one per channel type.
package channel

import (
	"fmt"

	"github.com/sdwijaya/herald/internal/notification/entity"
)

// errNoRecipient builds the permanent failure for a notification whose
// payload carries no usable address.
func errNoRecipient(field string) error {
	return fmt.Errorf("template data has no %q: %w", field, entity.ErrPermanentDelivery)
}
