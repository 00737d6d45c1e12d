// HTTP server exposing metric discovery and queries to programs on the local system
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"gspnp/internal/global"
	"gspnp/internal/logctx"
	"log"
	"net/http"
	"strconv"
	"strings"
)

// Sets up HTTP listener configuration for metric querying
func SetupListener(ctx context.Context, port int, search DataSearcher, discover Discoverer) (server *http.Server) {
	requestMultiplexer := http.NewServeMux()

	index := Jindex{
		Program: global.ProgBaseName,
		Version: global.ProgVersion,
		Endpoints: map[string]string{
			global.DiscoveryPath + "/<namespace>": "list metrics (filters: name, description, unit, type)",
			global.DataPath + "<namespace>":       "metric values (filters: name, starttime, endtime)",
		},
	}

	requestMultiplexer.HandleFunc("/", getOnly(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		if clientRequest.URL.Path != "/" {
			serverResponder.WriteHeader(http.StatusNotFound)
			return
		}
		jResp(ctx, serverResponder, index)
	}))
	requestMultiplexer.HandleFunc(global.DiscoveryPath, getOnly(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleDiscovery(ctx, discover, serverResponder, clientRequest)
	}))
	requestMultiplexer.HandleFunc(global.DiscoveryPath+"/", getOnly(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleDiscovery(ctx, discover, serverResponder, clientRequest)
	}))
	requestMultiplexer.HandleFunc(global.DataPath, getOnly(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleData(ctx, search, serverResponder, clientRequest)
	}))

	server = &http.Server{
		Addr:         global.HTTPListenAddr + ":" + strconv.Itoa(port),
		Handler:      requestMultiplexer,
		ReadTimeout:  global.HTTPReadTimeout,
		WriteTimeout: global.HTTPWriteTimeout,
		IdleTimeout:  global.HTTPIdleTimeout,
		ErrorLog:     log.New(httpLogWriter{ctx: ctx}, "", 0),
	}
	return
}

// Starts the metric HTTP server and waits for requests
func Start(ctx context.Context, server *http.Server) {
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Metric query server starting on http://%s/\n", server.Addr)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"Metric query server failed to start: %v\n", err)
	}
}

func getOnly(handler http.HandlerFunc) (wrapped http.HandlerFunc) {
	wrapped = func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		if clientRequest.Method != http.MethodGet {
			serverResponder.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(serverResponder, clientRequest)
	}
	return
}

// Splits `A/B/C` into namespace components, nil for empty
func namespaceFromPath(path, prefix string) (namespace []string) {
	raw := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if raw == "" {
		return
	}
	namespace = strings.Split(raw, "/")
	return
}

// Encodes JSON and sends as response body
func jResp(ctx context.Context, serverResponder http.ResponseWriter, content any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(content); err != nil {
		serverResponder.WriteHeader(http.StatusInternalServerError)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed marshaling metric results: %v\n", err)
		return
	}
	serverResponder.Header().Set("Content-Type", "application/json")
	serverResponder.WriteHeader(http.StatusOK)
	serverResponder.Write(buf.Bytes())
}

// Logs HTTP server errors to internal program buffer (via context logger)
func (logWriter httpLogWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	if n == 0 {
		return
	}
	logctx.LogEvent(logWriter.ctx, global.VerbosityStandard, global.ErrorLog,
		"%s\n", strings.TrimSpace(string(p)))
	return
}
