package indicore

import "encoding/xml"

// wire.go holds the XML-tag-for-XML-tag intermediate structs used only to
// marshal/unmarshal INDI elements. Callers never see these directly; vector.go
// converts between them and the Vector sum type.

type wireGetProperties struct {
	XMLName xml.Name `xml:"getProperties"`
	Version string   `xml:"version,attr"`
	Device  string   `xml:"device,attr,omitempty"`
	Name    string   `xml:"name,attr,omitempty"`
}

type wireEnableBlob struct {
	XMLName xml.Name   `xml:"enableBLOB"`
	Device  string     `xml:"device,attr"`
	Name    string     `xml:"name,attr,omitempty"`
	Value   BlobEnable `xml:",chardata"`
}

type wireMessage struct {
	XMLName   xml.Name `xml:"message"`
	Device    string   `xml:"device,attr"`
	Timestamp string   `xml:"timestamp,attr"`
	Message   string   `xml:"message,attr"`
}

type wireDelProperty struct {
	XMLName   xml.Name `xml:"delProperty"`
	Device    string   `xml:"device,attr"`
	Name      string   `xml:"name,attr,omitempty"`
	Timestamp string   `xml:"timestamp,attr"`
	Message   string   `xml:"message,attr"`
}

// --- defXxxVector (server -> client property definitions) ---

type wireDefNumber struct {
	Name   string `xml:"name,attr"`
	Label  string `xml:"label,attr"`
	Format string `xml:"format,attr"`
	Min    string `xml:"min,attr"`
	Max    string `xml:"max,attr"`
	Step   string `xml:"step,attr"`
	Value  string `xml:",chardata"`
}

type wireDefNumberVector struct {
	XMLName   xml.Name           `xml:"defNumberVector"`
	Device    string             `xml:"device,attr"`
	Name      string             `xml:"name,attr"`
	Label     string             `xml:"label,attr"`
	Group     string             `xml:"group,attr"`
	State     PropertyState      `xml:"state,attr"`
	Perm      PropertyPermission `xml:"perm,attr"`
	Timeout   int                `xml:"timeout,attr"`
	Timestamp string             `xml:"timestamp,attr"`
	Message   string             `xml:"message,attr"`
	Numbers   []wireDefNumber    `xml:"defNumber"`
}

type wireDefSwitch struct {
	Name  string      `xml:"name,attr"`
	Label string      `xml:"label,attr"`
	Value SwitchState `xml:",chardata"`
}

type wireDefSwitchVector struct {
	XMLName   xml.Name           `xml:"defSwitchVector"`
	Device    string             `xml:"device,attr"`
	Name      string             `xml:"name,attr"`
	Label     string             `xml:"label,attr"`
	Group     string             `xml:"group,attr"`
	State     PropertyState      `xml:"state,attr"`
	Perm      PropertyPermission `xml:"perm,attr"`
	Rule      SwitchRule         `xml:"rule,attr"`
	Timeout   int                `xml:"timeout,attr"`
	Timestamp string             `xml:"timestamp,attr"`
	Message   string             `xml:"message,attr"`
	Switches  []wireDefSwitch    `xml:"defSwitch"`
}

type wireDefText struct {
	Name  string `xml:"name,attr"`
	Label string `xml:"label,attr"`
	Value string `xml:",chardata"`
}

type wireDefTextVector struct {
	XMLName   xml.Name           `xml:"defTextVector"`
	Device    string             `xml:"device,attr"`
	Name      string             `xml:"name,attr"`
	Label     string             `xml:"label,attr"`
	Group     string             `xml:"group,attr"`
	State     PropertyState      `xml:"state,attr"`
	Perm      PropertyPermission `xml:"perm,attr"`
	Timeout   int                `xml:"timeout,attr"`
	Timestamp string             `xml:"timestamp,attr"`
	Message   string             `xml:"message,attr"`
	Texts     []wireDefText      `xml:"defText"`
}

type wireDefLight struct {
	Name  string        `xml:"name,attr"`
	Label string        `xml:"label,attr"`
	Value PropertyState `xml:",chardata"`
}

type wireDefLightVector struct {
	XMLName   xml.Name      `xml:"defLightVector"`
	Device    string        `xml:"device,attr"`
	Name      string        `xml:"name,attr"`
	Label     string        `xml:"label,attr"`
	Group     string        `xml:"group,attr"`
	State     PropertyState `xml:"state,attr"`
	Timestamp string        `xml:"timestamp,attr"`
	Message   string        `xml:"message,attr"`
	Lights    []wireDefLight `xml:"defLight"`
}

type wireDefBlob struct {
	Name  string `xml:"name,attr"`
	Label string `xml:"label,attr"`
}

type wireDefBlobVector struct {
	XMLName   xml.Name           `xml:"defBLOBVector"`
	Device    string             `xml:"device,attr"`
	Name      string             `xml:"name,attr"`
	Label     string             `xml:"label,attr"`
	Group     string             `xml:"group,attr"`
	State     PropertyState      `xml:"state,attr"`
	Perm      PropertyPermission `xml:"perm,attr"`
	Timeout   int                `xml:"timeout,attr"`
	Timestamp string             `xml:"timestamp,attr"`
	Message   string             `xml:"message,attr"`
	Blobs     []wireDefBlob      `xml:"defBLOB"`
}

// --- oneXxx (children of both set and new vectors) ---

type wireOneNumber struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type wireOneSwitch struct {
	Name  string      `xml:"name,attr"`
	Value SwitchState `xml:",chardata"`
}

type wireOneText struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type wireOneLight struct {
	Name  string        `xml:"name,attr"`
	Value PropertyState `xml:",chardata"`
}

type wireOneBlob struct {
	Name   string `xml:"name,attr"`
	Size   int    `xml:"size,attr"`
	Format string `xml:"format,attr"`
	Value  string `xml:",chardata"`
}

// --- setXxxVector (server -> client value updates) ---

type wireSetNumberVector struct {
	XMLName   xml.Name        `xml:"setNumberVector"`
	Device    string          `xml:"device,attr"`
	Name      string          `xml:"name,attr"`
	State     PropertyState   `xml:"state,attr"`
	Timeout   int             `xml:"timeout,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Message   string          `xml:"message,attr"`
	Numbers   []wireOneNumber `xml:"oneNumber"`
}

type wireSetSwitchVector struct {
	XMLName   xml.Name        `xml:"setSwitchVector"`
	Device    string          `xml:"device,attr"`
	Name      string          `xml:"name,attr"`
	State     PropertyState   `xml:"state,attr"`
	Timeout   int             `xml:"timeout,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Message   string          `xml:"message,attr"`
	Switches  []wireOneSwitch `xml:"oneSwitch"`
}

type wireSetTextVector struct {
	XMLName   xml.Name      `xml:"setTextVector"`
	Device    string        `xml:"device,attr"`
	Name      string        `xml:"name,attr"`
	State     PropertyState `xml:"state,attr"`
	Timeout   int           `xml:"timeout,attr"`
	Timestamp string        `xml:"timestamp,attr"`
	Message   string        `xml:"message,attr"`
	Texts     []wireOneText `xml:"oneText"`
}

type wireSetLightVector struct {
	XMLName   xml.Name       `xml:"setLightVector"`
	Device    string         `xml:"device,attr"`
	Name      string         `xml:"name,attr"`
	State     PropertyState  `xml:"state,attr"`
	Timestamp string         `xml:"timestamp,attr"`
	Message   string         `xml:"message,attr"`
	Lights    []wireOneLight `xml:"oneLight"`
}

type wireSetBlobVector struct {
	XMLName   xml.Name      `xml:"setBLOBVector"`
	Device    string        `xml:"device,attr"`
	Name      string        `xml:"name,attr"`
	State     PropertyState `xml:"state,attr"`
	Timeout   int           `xml:"timeout,attr"`
	Timestamp string        `xml:"timestamp,attr"`
	Message   string        `xml:"message,attr"`
	Blobs     []wireOneBlob `xml:"oneBLOB"`
}

// --- newXxxVector (client -> server) ---

type wireNewNumberVector struct {
	XMLName   xml.Name        `xml:"newNumberVector"`
	Device    string          `xml:"device,attr"`
	Name      string          `xml:"name,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	Numbers   []wireOneNumber `xml:"oneNumber"`
}

type wireNewSwitchVector struct {
	XMLName   xml.Name        `xml:"newSwitchVector"`
	Device    string          `xml:"device,attr"`
	Name      string          `xml:"name,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	Switches  []wireOneSwitch `xml:"oneSwitch"`
}

type wireNewTextVector struct {
	XMLName   xml.Name      `xml:"newTextVector"`
	Device    string        `xml:"device,attr"`
	Name      string        `xml:"name,attr"`
	Timestamp string        `xml:"timestamp,attr,omitempty"`
	Texts     []wireOneText `xml:"oneText"`
}

type wireNewBlobVector struct {
	XMLName   xml.Name      `xml:"newBLOBVector"`
	Device    string        `xml:"device,attr"`
	Name      string        `xml:"name,attr"`
	Timestamp string        `xml:"timestamp,attr,omitempty"`
	Blobs     []wireOneBlob `xml:"oneBLOB"`
}
