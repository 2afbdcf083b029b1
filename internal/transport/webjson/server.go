package webjson

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lvalerom/jsamp/internal/transport"
)

// Handler adapts a *transport.Dispatcher to a gin.HandlerFunc,
// decoding a webjson request body and encoding the dispatcher's
// result or error as a webjson response.
func Handler(d *transport.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "cannot read request body")
			return
		}
		method, args, err := DecodeCall(body)
		if err != nil {
			writeFault(c, transport.CodeGenericFault, err.Error())
			return
		}
		result, err := d.Dispatch(method, args)
		if err != nil {
			code, message := faultFrom(err)
			writeFault(c, code, message)
			return
		}
		out, err := EncodeResponse(result)
		if err != nil {
			writeFault(c, transport.CodeGenericFault, err.Error())
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", out)
	}
}

func faultFrom(err error) (int, string) {
	if rf, ok := err.(*transport.RemoteFailure); ok {
		return rf.Code, rf.Message
	}
	return transport.CodeGenericFault, err.Error()
}

func writeFault(c *gin.Context, code int, message string) {
	out, err := EncodeFault(code, message)
	if err != nil {
		c.String(http.StatusInternalServerError, message)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}
