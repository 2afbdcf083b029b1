package xmlrpc

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
)

type rawMethodCall struct {
	XMLName    xml.Name `xml:"methodCall"`
	MethodName string   `xml:"methodName"`
	Params     struct {
		Param []struct {
			Value rawValue `xml:"value"`
		} `xml:"param"`
	} `xml:"params"`
}

type rawMethodResponse struct {
	XMLName xml.Name `xml:"methodResponse"`
	Params  *struct {
		Param []struct {
			Value rawValue `xml:"value"`
		} `xml:"param"`
	} `xml:"params"`
	Fault *struct {
		Value rawValue `xml:"value"`
	} `xml:"fault"`
}

// EncodeCall serializes a method call with the given SAMP-value
// arguments to XML-RPC request bytes.
func EncodeCall(method string, args sampvalue.List) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	start := xml.StartElement{Name: xml.Name{Local: "methodCall"}}
	if err := enc.EncodeToken(start); err != nil {
		return nil, err
	}
	if err := enc.EncodeElement(method, xml.StartElement{Name: xml.Name{Local: "methodName"}}); err != nil {
		return nil, err
	}

	paramsStart := xml.StartElement{Name: xml.Name{Local: "params"}}
	if err := enc.EncodeToken(paramsStart); err != nil {
		return nil, err
	}
	for _, a := range args {
		paramStart := xml.StartElement{Name: xml.Name{Local: "param"}}
		if err := enc.EncodeToken(paramStart); err != nil {
			return nil, err
		}
		if err := EncodeValue(enc, a); err != nil {
			return nil, err
		}
		if err := enc.EncodeToken(paramStart.End()); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeToken(paramsStart.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCall parses an XML-RPC request body into a method name and its
// SAMP-value arguments.
func DecodeCall(data []byte) (method string, args sampvalue.List, err error) {
	var raw rawMethodCall
	if err := xml.Unmarshal(data, &raw); err != nil {
		return "", nil, fmt.Errorf("xmlrpc: invalid methodCall: %w", err)
	}
	out := make(sampvalue.List, 0, len(raw.Params.Param))
	for _, p := range raw.Params.Param {
		v, err := DecodeValue(p.Value)
		if err != nil {
			return "", nil, err
		}
		out = append(out, v)
	}
	return raw.MethodName, out, nil
}

// EncodeResponse serializes a successful result to XML-RPC response
// bytes.
func EncodeResponse(result sampvalue.Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	start := xml.StartElement{Name: xml.Name{Local: "methodResponse"}}
	if err := enc.EncodeToken(start); err != nil {
		return nil, err
	}
	paramsStart := xml.StartElement{Name: xml.Name{Local: "params"}}
	if err := enc.EncodeToken(paramsStart); err != nil {
		return nil, err
	}
	paramStart := xml.StartElement{Name: xml.Name{Local: "param"}}
	if err := enc.EncodeToken(paramStart); err != nil {
		return nil, err
	}
	if err := EncodeValue(enc, result); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(paramStart.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(paramsStart.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeFault serializes code/message as an XML-RPC <fault> response.
func EncodeFault(code int, message string) ([]byte, error) {
	faultStruct := sampvalue.NewMap()
	faultStruct.Set("faultCode", sampvalue.String(fmt.Sprintf("%d", code)))
	faultStruct.Set("faultString", sampvalue.String(message))

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	start := xml.StartElement{Name: xml.Name{Local: "methodResponse"}}
	if err := enc.EncodeToken(start); err != nil {
		return nil, err
	}
	faultStart := xml.StartElement{Name: xml.Name{Local: "fault"}}
	if err := enc.EncodeToken(faultStart); err != nil {
		return nil, err
	}
	if err := EncodeValue(enc, faultStruct); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(faultStart.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeResponse parses an XML-RPC response body into either a SAMP
// result value or a *transport.RemoteFailure for a <fault>.
func DecodeResponse(data []byte) (sampvalue.Value, error) {
	var raw rawMethodResponse
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("xmlrpc: invalid methodResponse: %w", err)
	}
	if raw.Fault != nil {
		v, err := DecodeValue(raw.Fault.Value)
		if err != nil {
			return nil, err
		}
		m, _ := v.(*sampvalue.Map)
		code := transport.CodeGenericFault
		message := "fault"
		if m != nil {
			if s, ok := m.GetString("faultString"); ok {
				message = s
			}
			if s, ok := m.GetString("faultCode"); ok {
				fmt.Sscanf(s, "%d", &code)
			}
		}
		return nil, &transport.RemoteFailure{Code: code, Message: message}
	}
	if raw.Params == nil || len(raw.Params.Param) == 0 {
		return sampvalue.String(""), nil
	}
	return DecodeValue(raw.Params.Param[0].Value)
}
