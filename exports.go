package academy

import (
	"github.com/xraph/academy/progress"
	"github.com/xraph/academy/types"
)

// Re-export common types so callers don't have to import the types and
// progress packages for everyday use.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Level is re-exported from progress package.
type Level = progress.Level

// Snapshot is re-exported from progress package.
type Snapshot = progress.Snapshot

// Re-export Money constructors
var (
	RUB  = types.RUB
	USD  = types.USD
	EUR  = types.EUR
	Zero = types.Zero
)

// Re-export Entity constructor
var NewEntity = types.NewEntity

// ComputeLevel is re-exported from progress package.
var ComputeLevel = progress.ComputeLevel
