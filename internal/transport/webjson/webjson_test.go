package webjson

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
)

func httpPost(url string, body []byte) ([]byte, error) {
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestEncodeDecodeCallRoundTrip(t *testing.T) {
	m := sampvalue.NewMap()
	m.Set("samp.name", sampvalue.String("ds9"))
	args := sampvalue.List{sampvalue.String("wk:abc"), m}

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
	if got[0].(sampvalue.String) != "wk:abc" {
		t.Fatalf("got first arg %v", got[0])
	}
	if v, _ := got[1].(*sampvalue.Map).GetString("samp.name"); v != "ds9" {
		t.Fatalf("got name %q", v)
	}
}

func TestDecodeResponseFault(t *testing.T) {
	data, err := EncodeFault(transport.CodeUnknownMethod, "no such method")
	if err != nil {
		t.Fatal(err)
	}
	_, err = DecodeResponse(data)
	rf, ok := err.(*transport.RemoteFailure)
	if !ok {
		t.Fatalf("got %T, want *transport.RemoteFailure", err)
	}
	if rf.Code != transport.CodeUnknownMethod {
		t.Fatalf("got code %d", rf.Code)
	}
}

func TestHandlerDispatchesToRegisteredMethod(t *testing.T) {
	d := transport.NewDispatcher()
	d.Register("samp.hub.ping", func(args sampvalue.List) (sampvalue.Value, error) {
		return sampvalue.String("pong"), nil
	})

	router := gin.New()
	router.POST("/", Handler(d))
	srv := httptest.NewServer(router)
	defer srv.Close()

	body, _ := EncodeCall("samp.hub.ping", nil)
	resp, err := httpPost(srv.URL, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	result, err := DecodeResponse(resp)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if result.(sampvalue.String) != "pong" {
		t.Fatalf("got %v", result)
	}
}
