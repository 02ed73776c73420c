package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/dekarrin/voxgraph/server/middle"
)

// jsonOK returns an EndpointResult containing an HTTP-200 along with a more
// detailed message (if desired; if none is provided it defaults to a generic
// one) that is not displayed to the caller.
func jsonOK(respObj interface{}, internalMsg ...interface{}) EndpointResult {
	return jsonResponse(http.StatusOK, respObj, fmtMsg("OK", internalMsg))
}

func jsonBadRequest(userMsg string, internalMsg ...interface{}) EndpointResult {
	return jsonErr(http.StatusBadRequest, userMsg, fmtMsg("bad request", internalMsg))
}

func jsonMethodNotAllowed(req *http.Request, internalMsg ...interface{}) EndpointResult {
	userMsg := fmt.Sprintf("Method %s is not allowed for %s", req.Method, req.URL.Path)
	return jsonErr(http.StatusMethodNotAllowed, userMsg, fmtMsg("method not allowed", internalMsg))
}

func jsonNotFound(internalMsg ...interface{}) EndpointResult {
	return jsonErr(http.StatusNotFound, "The requested resource was not found", fmtMsg("not found", internalMsg))
}

func jsonUnauthorized(userMsg string, internalMsg ...interface{}) EndpointResult {
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}
	return jsonErr(http.StatusUnauthorized, userMsg, fmtMsg("unauthorized", internalMsg)).
		withHeader("WWW-Authenticate", `Bearer realm="voxgraph admin"`)
}

func jsonInternalServerError(internalMsg ...interface{}) EndpointResult {
	return jsonErr(http.StatusInternalServerError, "An internal server error occurred", fmtMsg("internal server error", internalMsg))
}

func fmtMsg(def string, internalMsg []interface{}) string {
	if len(internalMsg) == 0 {
		return def
	}
	format := internalMsg[0].(string)
	return fmt.Sprintf(format, internalMsg[1:]...)
}

func jsonResponse(status int, respObj interface{}, internalMsg string) EndpointResult {
	return EndpointResult{isJSON: true, status: status, internalMsg: internalMsg, resp: respObj}
}

func jsonErr(status int, userMsg, internalMsg string) EndpointResult {
	return EndpointResult{
		isJSON:      true,
		isErr:       true,
		status:      status,
		internalMsg: internalMsg,
		resp:        ErrorResponse{Error: userMsg, Status: status},
	}
}

// EndpointResult is the result of handling one request: a status, a response
// body, and the internal message that gets logged alongside it. Logging
// goes through a request-scoped logger that prefixes the request's
// google/uuid trace ID.
type EndpointResult struct {
	isErr       bool
	isJSON      bool
	status      int
	internalMsg string
	resp        interface{}
	hdrs        [][2]string
}

func (r EndpointResult) withHeader(name, val string) EndpointResult {
	cp := r
	cp.hdrs = append([][2]string{}, r.hdrs...)
	cp.hdrs = append(cp.hdrs, [2]string{name, val})
	return cp
}

func (r EndpointResult) writeResponse(w http.ResponseWriter, req *http.Request) {
	reqID := middle.RequestID(req.Context())

	if r.status == 0 {
		logResponse(reqID, "ERROR", req, http.StatusInternalServerError, "endpoint result was never populated")
		http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
		return
	}

	var respJSON []byte
	if r.isJSON && r.status != http.StatusNoContent {
		var err error
		respJSON, err = json.Marshal(r.resp)
		if err != nil {
			res := jsonErr(http.StatusInternalServerError, "An internal server error occurred", "could not marshal JSON response: "+err.Error())
			res.writeResponse(w, req)
			return
		}
	}

	if r.isErr {
		logResponse(reqID, "ERROR", req, r.status, r.internalMsg)
	} else {
		logResponse(reqID, "INFO", req, r.status, r.internalMsg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	for i := range r.hdrs {
		w.Header().Set(r.hdrs[i][0], r.hdrs[i][1])
	}

	w.WriteHeader(r.status)
	if r.status != http.StatusNoContent {
		w.Write(respJSON)
	}
}

func logResponse(reqID string, level string, req *http.Request, respStatus int, msg string) {
	for len(level) < 5 {
		level += " "
	}

	remoteIP := strings.SplitN(req.RemoteAddr, ":", 2)[0]
	log.Printf("%s [%s] %s %s %s: HTTP-%d %s", level, reqID, remoteIP, req.Method, req.URL.Path, respStatus, msg)
}
