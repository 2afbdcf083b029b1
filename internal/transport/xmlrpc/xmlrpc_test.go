package xmlrpc

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
)

func TestEncodeDecodeCallRoundTrip(t *testing.T) {
	m := sampvalue.NewMap()
	m.Set("samp.name", sampvalue.String("ds9"))
	args := sampvalue.List{sampvalue.String("secret-123"), m}

	data, err := EncodeCall("samp.hub.register", args)
	if err != nil {
		t.Fatalf("EncodeCall: %v", err)
	}
	method, got, err := DecodeCall(data)
	if err != nil {
		t.Fatalf("DecodeCall: %v", err)
	}
	if method != "samp.hub.register" {
		t.Fatalf("got method %q", method)
	}
	if len(got) != 2 {
		t.Fatalf("got %d args, want 2", len(got))
	}
	if got[0].(sampvalue.String) != "secret-123" {
		t.Fatalf("got first arg %v", got[0])
	}
	gotMap := got[1].(*sampvalue.Map)
	if v, _ := gotMap.GetString("samp.name"); v != "ds9" {
		t.Fatalf("got name %q", v)
	}
}

func TestEncodeDecodeResponseRoundTrip(t *testing.T) {
	result := sampvalue.NewMap()
	result.Set("samp.hubid", sampvalue.String("hub-1"))

	data, err := EncodeResponse(result)
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	decoded, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	m := decoded.(*sampvalue.Map)
	if v, _ := m.GetString("samp.hubid"); v != "hub-1" {
		t.Fatalf("got %q", v)
	}
}

func TestDecodeResponseFault(t *testing.T) {
	data, err := EncodeFault(transport.CodeUnknownMethod, "no such method")
	if err != nil {
		t.Fatalf("EncodeFault: %v", err)
	}
	_, err = DecodeResponse(data)
	if err == nil {
		t.Fatal("expected error")
	}
	rf, ok := err.(*transport.RemoteFailure)
	if !ok {
		t.Fatalf("got %T, want *transport.RemoteFailure", err)
	}
	if rf.Code != transport.CodeUnknownMethod || rf.Message != "no such method" {
		t.Fatalf("got %+v", rf)
	}
}

func TestCoerceIntDoubleBool(t *testing.T) {
	v, err := coerceInt("42")
	if err != nil || v.(sampvalue.String) != "42" {
		t.Fatalf("coerceInt: %v %v", v, err)
	}
	v, err = coerceDouble("3.5")
	if err != nil || v.(sampvalue.String) != "3.5" {
		t.Fatalf("coerceDouble: %v %v", v, err)
	}
	if _, err := coerceDouble("inf"); err == nil {
		t.Fatal("expected error for non-finite double")
	}
	v, err = coerceBool("true")
	if err != nil || v.(sampvalue.String) != "1" {
		t.Fatalf("coerceBool true: %v %v", v, err)
	}
	v, err = coerceBool("0")
	if err != nil || v.(sampvalue.String) != "0" {
		t.Fatalf("coerceBool 0: %v %v", v, err)
	}
	if _, err := coerceBool("maybe"); err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}

func TestHandlerDispatchesToRegisteredMethod(t *testing.T) {
	d := transport.NewDispatcher()
	d.Register("samp.hub.ping", func(args sampvalue.List) (sampvalue.Value, error) {
		return sampvalue.String("pong"), nil
	})
	srv := httptest.NewServer(Handler(d))
	defer srv.Close()

	body, _ := EncodeCall("samp.hub.ping", nil)
	resp, err := http.Post(srv.URL, "text/xml", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	result, err := DecodeResponse(respBody)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if result.(sampvalue.String) != "pong" {
		t.Fatalf("got %v", result)
	}
}

func TestHandlerUnknownMethodReturnsFault(t *testing.T) {
	d := transport.NewDispatcher()
	srv := httptest.NewServer(Handler(d))
	defer srv.Close()

	body, _ := EncodeCall("samp.hub.nope", nil)
	resp, err := http.Post(srv.URL, "text/xml", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	_, err = DecodeResponse(respBody)
	rf, ok := err.(*transport.RemoteFailure)
	if !ok {
		t.Fatalf("got %T, want *transport.RemoteFailure", err)
	}
	if rf.Code != transport.CodeUnknownMethod {
		t.Fatalf("got code %d", rf.Code)
	}
}

func TestHTTPCallerRoundTrip(t *testing.T) {
	d := transport.NewDispatcher()
	d.Register("samp.client.receiveNotification", func(args sampvalue.List) (sampvalue.Value, error) {
		return sampvalue.String(""), nil
	})
	srv := httptest.NewServer(Handler(d))
	defer srv.Close()

	caller := NewHTTPCaller(nil)
	_, err := caller.Call(srv.URL, "samp.client.receiveNotification", sampvalue.List{sampvalue.String("sender-1")})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
}
