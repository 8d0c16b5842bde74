package indicore

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/rickbassham/logging"
)

// Element is a fully-received top-level INDI message. Tag is the element's
// local name (e.g. "defNumberVector", "delProperty", "message"); Device and
// Name are lifted out for callers that only need to route the message.
type Element struct {
	Tag    string
	Device string
	Name   string
	Vector Vector // populated for def*/set* elements
	Del    *wireDelProperty
	Msg    *wireMessage
}

// FramerCallbacks receives the four classes of INDI element the protocol
// defines. None of them may block for long: they run synchronously on the
// framer's read loop.
type FramerCallbacks struct {
	OnDef     func(Element)
	OnSet     func(Element)
	OnDel     func(Element)
	OnMessage func(Element)
}

// XMLFramer turns a byte stream of concatenated, never-closed INDI top-level
// elements into a sequence of complete Elements. It holds no state beyond an
// in-progress xml.Decoder, so recovering from a disconnect is simply
// constructing a new XMLFramer over the new connection's reader — see
// Connection's reconnect loop.
type XMLFramer struct {
	dec *xml.Decoder
	cb  FramerCallbacks
	log logging.Logger
}

// NewXMLFramer creates a framer reading from r. cb's non-nil fields are
// invoked as complete elements arrive; nil fields are silently skipped.
func NewXMLFramer(r io.Reader, cb FramerCallbacks, log logging.Logger) *XMLFramer {
	return &XMLFramer{dec: xml.NewDecoder(r), cb: cb, log: log}
}

// Run reads tokens from the underlying stream until it hits an error (most
// commonly io.EOF when the peer hangs up), dispatching a callback for every
// complete top-level element it assembles. It returns the terminating error;
// callers should treat any return as "the connection is gone" and recreate
// the framer after reconnecting.
func (f *XMLFramer) Run() error {
	for {
		tok, err := f.dec.Token()
		if err != nil {
			return err
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		elem, err := f.decodeOne(start)
		if err != nil {
			if f.log != nil {
				f.log.WithField("element", start.Name.Local).WithError(err).Warn("error decoding indi element")
			}
			continue
		}
		if elem == nil {
			continue
		}

		switch {
		case elem.Del != nil:
			if f.cb.OnDel != nil {
				f.cb.OnDel(*elem)
			}
		case elem.Msg != nil:
			if f.cb.OnMessage != nil {
				f.cb.OnMessage(*elem)
			}
		case isDefTag(elem.Tag):
			if f.cb.OnDef != nil {
				f.cb.OnDef(*elem)
			}
		case isSetTag(elem.Tag):
			if f.cb.OnSet != nil {
				f.cb.OnSet(*elem)
			}
		}
	}
}

func (f *XMLFramer) decodeOne(start xml.StartElement) (*Element, error) {
	tag := start.Name.Local

	switch {
	case tag == "delProperty":
		var w wireDelProperty
		if err := f.dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		return &Element{Tag: tag, Device: w.Device, Name: w.Name, Del: &w}, nil
	case tag == "message":
		var w wireMessage
		if err := f.dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		return &Element{Tag: tag, Device: w.Device, Msg: &w}, nil
	case isDefTag(tag):
		v, err := decodeDefVector(tag, f.dec, start)
		if err != nil {
			return nil, err
		}
		return &Element{Tag: tag, Device: v.Head().Device, Name: v.Head().Name, Vector: v}, nil
	case isSetTag(tag):
		v, err := decodeSetVector(tag, f.dec, start)
		if err != nil {
			return nil, err
		}
		return &Element{Tag: tag, Device: v.Head().Device, Name: v.Head().Name, Vector: v}, nil
	default:
		if err := f.dec.Skip(); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownElement, tag)
	}
}

func isDefTag(tag string) bool {
	switch tag {
	case "defNumberVector", "defSwitchVector", "defTextVector", "defLightVector", "defBLOBVector":
		return true
	default:
		return false
	}
}

func isSetTag(tag string) bool {
	switch tag {
	case "setNumberVector", "setSwitchVector", "setTextVector", "setLightVector", "setBLOBVector":
		return true
	default:
		return false
	}
}
