package indicore

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Header is the set of fields shared by every vector kind.
type Header struct {
	Device    string
	Name      string
	Label     string
	Group     string
	State     PropertyState
	Timestamp string
	Timeout   int
}

// Vector is the sum type over the five INDI property shapes. Exactly one of
// the concrete implementations (*NumberVector, *SwitchVector, *TextVector,
// *LightVector, *BlobVector) satisfies it for any given value.
type Vector interface {
	Head() Header
	SetHead(Header)
	Kind() Kind
	// Encode renders the client->server "new" form of this vector. LightVector
	// always returns "" since lights are never written upstream.
	Encode() (string, error)
	// Clone returns a deep copy, used by Gateway.SetSendVector before mutating items.
	Clone() Vector
	// ItemNames returns the element names in decode order.
	ItemNames() []string
}

// NumberItem is one element of a NumberVector.
type NumberItem struct {
	Name   string
	Label  string
	Value  float64
	Format string
	Min    string
	Max    string
	Step   string
}

// NumberVector holds a property whose elements are 64-bit floats.
type NumberVector struct {
	Header
	Perm  PropertyPermission
	Items []NumberItem
}

// Kind implements Vector.
func (v *NumberVector) Kind() Kind { return KindNumber }

// Head implements Vector.
func (v *NumberVector) Head() Header { return v.Header }

// SetHead implements Vector.
func (v *NumberVector) SetHead(h Header) { v.Header = h }

// ItemNames implements Vector.
func (v *NumberVector) ItemNames() []string {
	names := make([]string, len(v.Items))
	for i, it := range v.Items {
		names[i] = it.Name
	}
	return names
}

// Value returns the value of the named element and whether it was found.
func (v *NumberVector) Value(name string) (float64, bool) {
	for _, it := range v.Items {
		if it.Name == name {
			return it.Value, true
		}
	}
	return 0, false
}

// Clone implements Vector.
func (v *NumberVector) Clone() Vector {
	c := &NumberVector{Header: v.Header, Perm: v.Perm, Items: make([]NumberItem, len(v.Items))}
	copy(c.Items, v.Items)
	return c
}

// Encode implements Vector. Numbers are rendered with fixed 10-digit precision.
func (v *NumberVector) Encode() (string, error) {
	w := wireNewNumberVector{
		Device:    v.Device,
		Name:      v.Name,
		Timestamp: v.Timestamp,
		Numbers:   make([]wireOneNumber, len(v.Items)),
	}
	for i, it := range v.Items {
		w.Numbers[i] = wireOneNumber{Name: it.Name, Value: strconv.FormatFloat(it.Value, 'f', 10, 64)}
	}
	b, err := xml.Marshal(w)
	return string(b), err
}

// SwitchItem is one element of a SwitchVector.
type SwitchItem struct {
	Name  string
	Label string
	Value SwitchState
}

// SwitchVector holds a property whose elements are On/Off switches.
type SwitchVector struct {
	Header
	Perm  PropertyPermission
	Rule  SwitchRule
	Items []SwitchItem
}

// Kind implements Vector.
func (v *SwitchVector) Kind() Kind { return KindSwitch }

// Head implements Vector.
func (v *SwitchVector) Head() Header { return v.Header }

// SetHead implements Vector.
func (v *SwitchVector) SetHead(h Header) { v.Header = h }

// ItemNames implements Vector.
func (v *SwitchVector) ItemNames() []string {
	names := make([]string, len(v.Items))
	for i, it := range v.Items {
		names[i] = it.Name
	}
	return names
}

// On reports whether the named switch is currently On.
func (v *SwitchVector) On(name string) bool {
	for _, it := range v.Items {
		if it.Name == name {
			return it.Value == SwitchStateOn
		}
	}
	return false
}

// Clone implements Vector.
func (v *SwitchVector) Clone() Vector {
	c := &SwitchVector{Header: v.Header, Perm: v.Perm, Rule: v.Rule, Items: make([]SwitchItem, len(v.Items))}
	copy(c.Items, v.Items)
	return c
}

// Encode implements Vector.
func (v *SwitchVector) Encode() (string, error) {
	w := wireNewSwitchVector{
		Device:    v.Device,
		Name:      v.Name,
		Timestamp: v.Timestamp,
		Switches:  make([]wireOneSwitch, len(v.Items)),
	}
	for i, it := range v.Items {
		w.Switches[i] = wireOneSwitch{Name: it.Name, Value: it.Value}
	}
	b, err := xml.Marshal(w)
	return string(b), err
}

// TextItem is one element of a TextVector.
type TextItem struct {
	Name  string
	Label string
	Value string
}

// TextVector holds a property whose elements are free-form strings.
type TextVector struct {
	Header
	Perm  PropertyPermission
	Items []TextItem
}

// Kind implements Vector.
func (v *TextVector) Kind() Kind { return KindText }

// Head implements Vector.
func (v *TextVector) Head() Header { return v.Header }

// SetHead implements Vector.
func (v *TextVector) SetHead(h Header) { v.Header = h }

// ItemNames implements Vector.
func (v *TextVector) ItemNames() []string {
	names := make([]string, len(v.Items))
	for i, it := range v.Items {
		names[i] = it.Name
	}
	return names
}

// Value returns the value of the named element and whether it was found.
func (v *TextVector) Value(name string) (string, bool) {
	for _, it := range v.Items {
		if it.Name == name {
			return it.Value, true
		}
	}
	return "", false
}

// Clone implements Vector.
func (v *TextVector) Clone() Vector {
	c := &TextVector{Header: v.Header, Perm: v.Perm, Items: make([]TextItem, len(v.Items))}
	copy(c.Items, v.Items)
	return c
}

// Encode implements Vector.
func (v *TextVector) Encode() (string, error) {
	w := wireNewTextVector{
		Device:    v.Device,
		Name:      v.Name,
		Timestamp: v.Timestamp,
		Texts:     make([]wireOneText, len(v.Items)),
	}
	for i, it := range v.Items {
		w.Texts[i] = wireOneText{Name: it.Name, Value: it.Value}
	}
	b, err := xml.Marshal(w)
	return string(b), err
}

// LightItem is one element of a LightVector.
type LightItem struct {
	Name  string
	Label string
	Value PropertyState
}

// LightVector holds a read-only property whose elements are state indicators.
type LightVector struct {
	Header
	Items []LightItem
}

// Kind implements Vector.
func (v *LightVector) Kind() Kind { return KindLight }

// Head implements Vector.
func (v *LightVector) Head() Header { return v.Header }

// SetHead implements Vector.
func (v *LightVector) SetHead(h Header) { v.Header = h }

// ItemNames implements Vector.
func (v *LightVector) ItemNames() []string {
	names := make([]string, len(v.Items))
	for i, it := range v.Items {
		names[i] = it.Name
	}
	return names
}

// Clone implements Vector.
func (v *LightVector) Clone() Vector {
	c := &LightVector{Header: v.Header, Items: make([]LightItem, len(v.Items))}
	copy(c.Items, v.Items)
	return c
}

// Encode implements Vector. Lights are never written upstream.
func (v *LightVector) Encode() (string, error) { return "", nil }

// BlobItem is one element of a BlobVector.
type BlobItem struct {
	Name   string
	Label  string
	Size   int
	Format string
	Value  []byte
}

// BlobVector holds a property whose elements are binary payloads.
type BlobVector struct {
	Header
	Perm  PropertyPermission
	Items []BlobItem
}

// Kind implements Vector.
func (v *BlobVector) Kind() Kind { return KindBlob }

// Head implements Vector.
func (v *BlobVector) Head() Header { return v.Header }

// SetHead implements Vector.
func (v *BlobVector) SetHead(h Header) { v.Header = h }

// ItemNames implements Vector.
func (v *BlobVector) ItemNames() []string {
	names := make([]string, len(v.Items))
	for i, it := range v.Items {
		names[i] = it.Name
	}
	return names
}

// AnyEmpty reports whether any element carries size == 0, INDI's "still busy" placeholder.
func (v *BlobVector) AnyEmpty() bool {
	for _, it := range v.Items {
		if it.Size == 0 {
			return true
		}
	}
	return false
}

// Clone implements Vector.
func (v *BlobVector) Clone() Vector {
	c := &BlobVector{Header: v.Header, Perm: v.Perm, Items: make([]BlobItem, len(v.Items))}
	for i, it := range v.Items {
		c.Items[i] = it
		c.Items[i].Value = append([]byte(nil), it.Value...)
	}
	return c
}

// Encode implements Vector. BLOB bodies are base64-encoded.
func (v *BlobVector) Encode() (string, error) {
	w := wireNewBlobVector{
		Device:    v.Device,
		Name:      v.Name,
		Timestamp: v.Timestamp,
		Blobs:     make([]wireOneBlob, len(v.Items)),
	}
	for i, it := range v.Items {
		w.Blobs[i] = wireOneBlob{
			Name:   it.Name,
			Size:   it.Size,
			Format: it.Format,
			Value:  base64.StdEncoding.EncodeToString(it.Value),
		}
	}
	b, err := xml.Marshal(w)
	return string(b), err
}

// IsBusyOrEmpty reports whether v should be treated as "still busy" for the
// purpose of resolving pending awaiters: any non-settled state, or (for
// BLOBs) any element whose size is reported as 0.
func IsBusyOrEmpty(v Vector) bool {
	if b, ok := v.(*BlobVector); ok && b.AnyEmpty() {
		return true
	}
	return !v.Head().State.Settled()
}

// decodeDefVector dispatches on the element's local tag name (the last 12
// characters distinguish NumberVector/SwitchVector/TextVector/LightVector/
// BLOBVector), decodes the matching defXxxVector wire struct from dec, and
// converts it into the Vector sum type.
func decodeDefVector(tagLocal string, dec *xml.Decoder, start xml.StartElement) (Vector, error) {
	switch {
	case strings.HasSuffix(tagLocal, "NumberVector"):
		var w wireDefNumberVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		return numberVectorFromWire(w), nil
	case strings.HasSuffix(tagLocal, "SwitchVector"):
		var w wireDefSwitchVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		return switchVectorFromWire(w), nil
	case strings.HasSuffix(tagLocal, "TextVector"):
		var w wireDefTextVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		return textVectorFromWire(w), nil
	case strings.HasSuffix(tagLocal, "LightVector"):
		var w wireDefLightVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		return lightVectorFromWire(w), nil
	case strings.HasSuffix(tagLocal, "BLOBVector"):
		var w wireDefBlobVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		return blobVectorFromWire(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownElement, tagLocal)
	}
}

func numberVectorFromWire(w wireDefNumberVector) *NumberVector {
	v := &NumberVector{
		Header: Header{
			Device: w.Device, Name: w.Name, Label: w.Label, Group: w.Group,
			State: w.State, Timestamp: w.Timestamp, Timeout: w.Timeout,
		},
		Perm:  w.Perm,
		Items: make([]NumberItem, 0, len(w.Numbers)),
	}
	for _, n := range w.Numbers {
		f, _ := strconv.ParseFloat(strings.TrimSpace(n.Value), 64)
		v.Items = append(v.Items, NumberItem{
			Name: n.Name, Label: n.Label, Value: f, Format: n.Format, Min: n.Min, Max: n.Max, Step: n.Step,
		})
	}
	return v
}

func switchVectorFromWire(w wireDefSwitchVector) *SwitchVector {
	v := &SwitchVector{
		Header: Header{
			Device: w.Device, Name: w.Name, Label: w.Label, Group: w.Group,
			State: w.State, Timestamp: w.Timestamp, Timeout: w.Timeout,
		},
		Perm:  w.Perm,
		Rule:  w.Rule,
		Items: make([]SwitchItem, 0, len(w.Switches)),
	}
	for _, s := range w.Switches {
		v.Items = append(v.Items, SwitchItem{
			Name: s.Name, Label: s.Label, Value: SwitchState(strings.TrimSpace(string(s.Value))),
		})
	}
	return v
}

func textVectorFromWire(w wireDefTextVector) *TextVector {
	v := &TextVector{
		Header: Header{
			Device: w.Device, Name: w.Name, Label: w.Label, Group: w.Group,
			State: w.State, Timestamp: w.Timestamp, Timeout: w.Timeout,
		},
		Perm:  w.Perm,
		Items: make([]TextItem, 0, len(w.Texts)),
	}
	for _, t := range w.Texts {
		v.Items = append(v.Items, TextItem{Name: t.Name, Label: t.Label, Value: strings.TrimSpace(t.Value)})
	}
	return v
}

func lightVectorFromWire(w wireDefLightVector) *LightVector {
	v := &LightVector{
		Header: Header{
			Device: w.Device, Name: w.Name, Label: w.Label, Group: w.Group,
			State: w.State, Timestamp: w.Timestamp,
		},
		Items: make([]LightItem, 0, len(w.Lights)),
	}
	for _, l := range w.Lights {
		v.Items = append(v.Items, LightItem{
			Name: l.Name, Label: l.Label, Value: PropertyState(strings.TrimSpace(string(l.Value))),
		})
	}
	return v
}

func blobVectorFromWire(w wireDefBlobVector) *BlobVector {
	v := &BlobVector{
		Header: Header{
			Device: w.Device, Name: w.Name, Label: w.Label, Group: w.Group,
			State: w.State, Timestamp: w.Timestamp, Timeout: w.Timeout,
		},
		Perm:  w.Perm,
		Items: make([]BlobItem, 0, len(w.Blobs)),
	}
	for _, b := range w.Blobs {
		v.Items = append(v.Items, BlobItem{Name: b.Name, Label: b.Label})
	}
	return v
}

// decodeSetVector dispatches a setXxxVector element the same way
// decodeDefVector does, but through the lighter-weight wireSetXxxVector
// structs: a "set" never carries Label/Group/Perm/Rule, and its BLOB items
// carry a base64 body that defBLOBVector has no field for. DeviceTree.Apply
// merges the missing static metadata forward from the previously stored
// vector of the same kind.
func decodeSetVector(tagLocal string, dec *xml.Decoder, start xml.StartElement) (Vector, error) {
	switch {
	case strings.HasSuffix(tagLocal, "NumberVector"):
		var w wireSetNumberVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		v := &NumberVector{Header: Header{Device: w.Device, Name: w.Name, State: w.State, Timestamp: w.Timestamp, Timeout: w.Timeout}}
		for _, n := range w.Numbers {
			f, _ := strconv.ParseFloat(strings.TrimSpace(n.Value), 64)
			v.Items = append(v.Items, NumberItem{Name: n.Name, Value: f})
		}
		return v, nil
	case strings.HasSuffix(tagLocal, "SwitchVector"):
		var w wireSetSwitchVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		v := &SwitchVector{Header: Header{Device: w.Device, Name: w.Name, State: w.State, Timestamp: w.Timestamp, Timeout: w.Timeout}}
		for _, s := range w.Switches {
			v.Items = append(v.Items, SwitchItem{Name: s.Name, Value: SwitchState(strings.TrimSpace(string(s.Value)))})
		}
		return v, nil
	case strings.HasSuffix(tagLocal, "TextVector"):
		var w wireSetTextVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		v := &TextVector{Header: Header{Device: w.Device, Name: w.Name, State: w.State, Timestamp: w.Timestamp, Timeout: w.Timeout}}
		for _, t := range w.Texts {
			v.Items = append(v.Items, TextItem{Name: t.Name, Value: strings.TrimSpace(t.Value)})
		}
		return v, nil
	case strings.HasSuffix(tagLocal, "LightVector"):
		var w wireSetLightVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		v := &LightVector{Header: Header{Device: w.Device, Name: w.Name, State: w.State, Timestamp: w.Timestamp}}
		for _, l := range w.Lights {
			v.Items = append(v.Items, LightItem{Name: l.Name, Value: PropertyState(strings.TrimSpace(string(l.Value)))})
		}
		return v, nil
	case strings.HasSuffix(tagLocal, "BLOBVector"):
		var w wireSetBlobVector
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		v := &BlobVector{Header: Header{Device: w.Device, Name: w.Name, State: w.State, Timestamp: w.Timestamp, Timeout: w.Timeout}}
		for _, b := range w.Blobs {
			var raw []byte
			trimmed := strings.TrimSpace(b.Value)
			if len(trimmed) > 0 {
				decoded, err := base64.StdEncoding.DecodeString(trimmed)
				if err == nil {
					raw = decoded
				}
			}
			v.Items = append(v.Items, BlobItem{Name: b.Name, Size: b.Size, Format: b.Format, Value: raw})
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownElement, tagLocal)
	}
}
