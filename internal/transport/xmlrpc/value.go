// Package xmlrpc implements the Standard Profile's wire codec: XML-RPC
// 1.0 request/response encoding restricted to the SAMP value model,
// plus the numeric/boolean coercion spec §4.3 requires of an adapter
// sitting on top of a richer-typed RPC mechanism.
//
// There is no XML-RPC library anywhere in the retrieval pack this
// repository was grounded on, so this codec is built directly on
// encoding/xml — see DESIGN.md for why that is the one deliberately
// stdlib-only domain component here.
package xmlrpc

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/lvalerom/jsamp/internal/sampvalue"
)

// EncodeValue writes v as an XML-RPC <value> element.
func EncodeValue(enc *xml.Encoder, v sampvalue.Value) error {
	start := xml.StartElement{Name: xml.Name{Local: "value"}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeInner(enc, v); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func encodeInner(enc *xml.Encoder, v sampvalue.Value) error {
	switch t := v.(type) {
	case sampvalue.String:
		return enc.EncodeElement(string(t), xml.StartElement{Name: xml.Name{Local: "string"}})
	case sampvalue.List:
		arrayStart := xml.StartElement{Name: xml.Name{Local: "array"}}
		dataStart := xml.StartElement{Name: xml.Name{Local: "data"}}
		if err := enc.EncodeToken(arrayStart); err != nil {
			return err
		}
		if err := enc.EncodeToken(dataStart); err != nil {
			return err
		}
		for _, e := range t {
			if err := EncodeValue(enc, e); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(dataStart.End()); err != nil {
			return err
		}
		return enc.EncodeToken(arrayStart.End())
	case *sampvalue.Map:
		structStart := xml.StartElement{Name: xml.Name{Local: "struct"}}
		if err := enc.EncodeToken(structStart); err != nil {
			return err
		}
		for _, k := range t.Keys() {
			memberStart := xml.StartElement{Name: xml.Name{Local: "member"}}
			if err := enc.EncodeToken(memberStart); err != nil {
				return err
			}
			if err := enc.EncodeElement(k, xml.StartElement{Name: xml.Name{Local: "name"}}); err != nil {
				return err
			}
			val, _ := t.Get(k)
			if err := EncodeValue(enc, val); err != nil {
				return err
			}
			if err := enc.EncodeToken(memberStart.End()); err != nil {
				return err
			}
		}
		return enc.EncodeToken(structStart.End())
	default:
		return fmt.Errorf("xmlrpc: unsupported SAMP value type %T", v)
	}
}

// rawValue mirrors the subset of XML-RPC's <value> element this
// adapter accepts: bare/string/int/double/boolean scalars plus
// array/struct containers. Parsed generically (rather than via a
// fixed field set) because a <value> can legally contain any one of
// these, decided by which child element is present.
type rawValue struct {
	XMLName  xml.Name   `xml:"value"`
	Str      *string    `xml:"string"`
	Int      *string    `xml:"int"`
	I4       *string    `xml:"i4"`
	Double   *string    `xml:"double"`
	Bool     *string    `xml:"boolean"`
	Array    *rawArray  `xml:"array"`
	Struct   *rawStruct `xml:"struct"`
	Chardata string     `xml:",chardata"`
}

type rawArray struct {
	Data struct {
		Values []rawValue `xml:"value"`
	} `xml:"data"`
}

type rawStruct struct {
	Members []rawMember `xml:"member"`
}

type rawMember struct {
	Name  string   `xml:"name"`
	Value rawValue `xml:"value"`
}

// DecodeValue converts a parsed XML-RPC <value> into a SAMP value,
// coercing <int>/<i4>/<double>/<boolean> scalars to their SAMP string
// form (decimal, decimal, "0"/"1" respectively) per spec §4.3: "SAMP
// scalars are carried as strings by convention... Numeric and boolean
// inbound values are coerced to strings."
func DecodeValue(rv rawValue) (sampvalue.Value, error) {
	switch {
	case rv.Array != nil:
		out := make(sampvalue.List, 0, len(rv.Array.Data.Values))
		for _, child := range rv.Array.Data.Values {
			v, err := DecodeValue(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case rv.Struct != nil:
		out := sampvalue.NewMap()
		for _, m := range rv.Struct.Members {
			v, err := DecodeValue(m.Value)
			if err != nil {
				return nil, err
			}
			out.Set(m.Name, v)
		}
		return out, nil
	case rv.Str != nil:
		return sampvalue.String(*rv.Str), nil
	case rv.Int != nil:
		return coerceInt(*rv.Int)
	case rv.I4 != nil:
		return coerceInt(*rv.I4)
	case rv.Double != nil:
		return coerceDouble(*rv.Double)
	case rv.Bool != nil:
		return coerceBool(*rv.Bool)
	default:
		// XML-RPC treats a bare <value>text</value> (no child type
		// element) as an implicit string.
		return sampvalue.String(rv.Chardata), nil
	}
}

func coerceInt(s string) (sampvalue.Value, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("xmlrpc: invalid int %q: %w", s, err)
	}
	return sampvalue.String(strconv.FormatInt(n, 10)), nil
}

func coerceDouble(s string) (sampvalue.Value, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("xmlrpc: invalid double %q: %w", s, err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("xmlrpc: %v is not a valid SAMP float", f)
	}
	return sampvalue.String(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

func coerceBool(s string) (sampvalue.Value, error) {
	switch s {
	case "1", "true":
		return sampvalue.String("1"), nil
	case "0", "false":
		return sampvalue.String("0"), nil
	default:
		return nil, fmt.Errorf("xmlrpc: invalid boolean %q", s)
	}
}
