package indicore

// PropertyState represents the current state of a property. "Idle", "Ok", "Busy", or "Alert".
type PropertyState string

const (
	// PropertyStateIdle represents a property that is "Idle". Recommended to be displayed as Gray.
	PropertyStateIdle = PropertyState("Idle")
	// PropertyStateOk represents a property that is "Ok". Recommended to be displayed as Green.
	PropertyStateOk = PropertyState("Ok")
	// PropertyStateBusy represents a property that is "Busy". Recommended to be displayed as Yellow.
	PropertyStateBusy = PropertyState("Busy")
	// PropertyStateAlert represents a property that is "Alert". Recommended to be displayed as Red.
	PropertyStateAlert = PropertyState("Alert")
)

// Settled reports whether s is anything other than Busy.
func (s PropertyState) Settled() bool {
	return s != PropertyStateBusy
}

// SwitchState represents the current state of a switch value. "On" or "Off".
type SwitchState string

const (
	// SwitchStateOff represents a switch that is "Off".
	SwitchStateOff = SwitchState("Off")
	// SwitchStateOn represents a switch that is "On".
	SwitchStateOn = SwitchState("On")
)

// SwitchRule represents how a switch's state relates to its siblings in the vector.
type SwitchRule string

const (
	// SwitchRuleOneOfMany requires exactly one switch in the vector to be On.
	SwitchRuleOneOfMany = SwitchRule("OneOfMany")
	// SwitchRuleAtMostOne allows zero or one switch in the vector to be On.
	SwitchRuleAtMostOne = SwitchRule("AtMostOne")
	// SwitchRuleAnyOfMany allows any number of switches in the vector to be On.
	SwitchRuleAnyOfMany = SwitchRule("AnyOfMany")
)

// PropertyPermission is a client-facing permission hint. "ro", "wo", or "rw".
type PropertyPermission string

const (
	// PropertyPermissionReadOnly marks a property the client may not write.
	PropertyPermissionReadOnly = PropertyPermission("ro")
	// PropertyPermissionWriteOnly marks a property the client may write but the device never reports back.
	PropertyPermissionWriteOnly = PropertyPermission("wo")
	// PropertyPermissionReadWrite marks a property the client may both read and write.
	PropertyPermissionReadWrite = PropertyPermission("rw")
)

// BlobEnable controls whether the server should send BLOB elements to this connection.
type BlobEnable string

const (
	// BlobEnableNever (default) means no BLOBs are sent for the device.
	BlobEnableNever = BlobEnable("Never")
	// BlobEnableAlso means BLOBs are sent in addition to normal INDI traffic.
	BlobEnableAlso = BlobEnable("Also")
	// BlobEnableOnly means only BLOBs are sent for the device.
	BlobEnableOnly = BlobEnable("Only")
)

// Interface is a bitmask of device categories advertised by DRIVER_INFO.DRIVER_INTERFACE.
type Interface uint32

// Device interface bit flags, per the INDI driver interface convention.
const (
	InterfaceTelescope    Interface = 1 << 0
	InterfaceCCD          Interface = 1 << 1
	InterfaceGuider       Interface = 1 << 2
	InterfaceFocuser      Interface = 1 << 3
	InterfaceFilter       Interface = 1 << 4
	InterfaceDome         Interface = 1 << 5
	InterfaceGPS          Interface = 1 << 6
	InterfaceWeather      Interface = 1 << 7
	InterfaceAO           Interface = 1 << 8
	InterfaceDustcap      Interface = 1 << 9
	InterfaceLightbox     Interface = 1 << 10
	InterfaceDetector     Interface = 1 << 11
	InterfaceRotator      Interface = 1 << 12
	InterfaceSpectrograph Interface = 1 << 13
	InterfaceCorrelator   Interface = 1 << 14
	InterfaceAux          Interface = 1 << 15
)

// Has reports whether the mask includes bit.
func (i Interface) Has(bit Interface) bool {
	return i&bit != 0
}

// Kind identifies which of the five vector payload shapes a Vector carries.
type Kind string

const (
	KindNumber Kind = "Number"
	KindSwitch Kind = "Switch"
	KindText   Kind = "Text"
	KindLight  Kind = "Light"
	KindBlob   Kind = "BLOB"
)

const indiProtocolVersion = "1.7"

// DefaultPort is the TCP port an indiserver listens on by default.
const DefaultPort = "7624"

// DefaultHost is the bind host used when a caller does not specify one.
const DefaultHost = "localhost"
