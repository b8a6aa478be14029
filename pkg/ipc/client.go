package ipc

import (
	"encoding/gob"
	"net"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
)

// Send dials socketPath, writes req, and returns the decoded Response.
// One connection carries exactly one request/response pair.
func Send(socketPath string, req Request) (Response, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return Response{}, rerrors.Wrap(rerrors.InputMalformed, err, "dialing socket %s", socketPath)
	}
	defer conn.Close()

	if err := gob.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, rerrors.Wrap(rerrors.InputMalformed, err, "sending request to %s", socketPath)
	}

	var resp Response
	if err := gob.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, rerrors.Wrap(rerrors.InputMalformed, err, "reading response from %s", socketPath)
	}
	if resp.ErrorKind != "" {
		kind, ok := rerrors.ParseKind(resp.ErrorKind)
		if !ok {
			kind = rerrors.InputMalformed
		}
		return resp, rerrors.New(kind, "server returned %s: %s", resp.ErrorKind, resp.ErrorMsg)
	}
	return resp, nil
}
