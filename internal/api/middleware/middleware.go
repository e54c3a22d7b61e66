package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Logger logs method, path, status and latency of every request.
func Logger(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)

	log.Info().
		Str("method", req.Request.Method).
		Str("path", req.Request.URL.Path).
		Int("status", resp.StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("request")
}

// RecoverPanic turns a panicking handler into a 500.
func RecoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("path", req.Request.URL.Path).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			HandleError(resp, nil, http.StatusInternalServerError)
		}
	}()
	chain.ProcessFilter(req, resp)
}

func HandleError(resp *restful.Response, err error, status int) {
	body := ErrorResponse{Error: http.StatusText(status)}
	if err != nil {
		body.Message = err.Error()
	}
	_ = resp.WriteHeaderAndEntity(status, body)
}
