package clients

import (
	"errors"

	"go-subxt/internal/clients/extrinsic"
	"go-subxt/internal/clients/metadata"
	"go-subxt/models"
)

// ErrStaleRuntime is wrapped in the MetadataError returned once the node upgraded its runtime.
var ErrStaleRuntime = errors.New("runtime upgraded since the client was built, reconnect")

const (
	systemModule        = "System"
	storageAccount      = "Account"
	storageAccountNonce = "AccountNonce"
	storageEvents       = "Events"
)

type (
	// Options are the chain specific encoding choices of a Client.
	Options struct {
		PrefixScheme  metadata.PrefixScheme
		AddressFormat extrinsic.AddressFormat
		// WatchUntil is StatusInBlock or StatusFinalized.
		WatchUntil models.ExtrinsicStatusKind
		Tip        uint64
		// SS58Prefix renders account ids in logs and metrics labels.
		SS58Prefix uint16
	}
)

func defaultOptions() Options {
	return Options{
		PrefixScheme:  metadata.PrefixModern,
		AddressFormat: extrinsic.AddressMultiAddress,
		WatchUntil:    models.StatusFinalized,
		SS58Prefix:    42,
	}
}
