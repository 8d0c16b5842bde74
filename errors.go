package indicore

import "errors"

var (
	// ErrDeviceNotFound is returned when a call cannot find a device.
	ErrDeviceNotFound = errors.New("indicore: device not found")

	// ErrPropertyNotFound is returned when a call cannot find a property.
	ErrPropertyNotFound = errors.New("indicore: property not found")

	// ErrItemNotFound is returned when a call cannot find a named item within a property.
	ErrItemNotFound = errors.New("indicore: item not found")

	// ErrPropertyReadOnly describes an attempt to change a read-only property. SendVector and
	// SetSendVector do not check a vector's permission and never return it.
	ErrPropertyReadOnly = errors.New("indicore: property is read only")

	// ErrPropertyWithoutDevice is returned when GetProperties specifies a property but no device.
	ErrPropertyWithoutDevice = errors.New("indicore: property specified without device")

	// ErrInvalidBlobEnable is returned when a value other than Only, Also, Never is given to EnableBlob.
	ErrInvalidBlobEnable = errors.New("indicore: invalid BlobEnable value")

	// ErrWrongKind is returned when a Vector is asked to behave as a kind it is not.
	ErrWrongKind = errors.New("indicore: vector is not of the requested kind")

	// ErrNotConnected is returned by operations that require a live connection.
	ErrNotConnected = errors.New("indicore: not connected")

	// ErrAlreadyConnected describes a connection that is already established. Connection.Connect
	// does not check for one and never returns it.
	ErrAlreadyConnected = errors.New("indicore: already connected")

	// ErrUnknownElement is reported by the framer (and logged by XMLFramer.Run, which then skips the
	// element) when it encounters a top-level element it does not recognize.
	ErrUnknownElement = errors.New("indicore: unknown element")

	// ErrDeferCanceled describes a Defer awaiter whose context was canceled before it settled. Wait
	// reports that case as an Alert DeferResult carrying the context's error message, not this value.
	ErrDeferCanceled = errors.New("indicore: defer canceled before settling")

	// ErrChainShortCircuited describes a DeferChain link that never ran because a prior link did not
	// settle Ok. ContinueIfOk reports that case as an Alert DeferResult, not this value.
	ErrChainShortCircuited = errors.New("indicore: chain short-circuited by a non-Ok result")

	// ErrInterfaceNotFound is returned when no known device advertises the requested interface bit.
	ErrInterfaceNotFound = errors.New("indicore: no device advertises the requested interface")
)
