package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/pixelmend/inpaint/internal/config"
)

// Server handles the JSON-lines stdio protocol.
type Server struct {
	cfg *config.Config
	sem chan struct{}

	in  io.Reader
	out io.Writer
}

// Request represents an incoming JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents an outgoing JSON-RPC response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes. Client errors cover malformed requests and
// rejected inputs; the server error code covers pipeline failures.
const (
	codeParse          = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeClientError    = -32001
)

// New creates a server reading stdin and writing stdout.
func New(cfg *config.Config) *Server {
	return newWithIO(cfg, os.Stdin, os.Stdout)
}

func newWithIO(cfg *config.Config, in io.Reader, out io.Writer) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		cfg: cfg,
		sem: make(chan struct{}, cfg.Server.MaxConcurrent),
		in:  in,
		out: out,
	}
}

// Run reads newline-delimited requests until EOF. Requests are admitted
// concurrently up to the configured limit; responses are serialized onto
// the output stream and may arrive out of request order, matched by ID.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	// Large encoded images arrive inline, so allow long lines.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	encoder := json.NewEncoder(s.out)
	var mu sync.Mutex
	var wg sync.WaitGroup

	send := func(resp *Response) {
		if resp == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if err := encoder.Encode(resp); err != nil {
			log.Printf("server: encode response: %v", err)
		}
	}

	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		// The scanner reuses its buffer across lines; the request may
		// outlive this iteration, so it parses from a copy.
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("server: failed to parse request: %v", err)
			send(&Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: codeParse, Message: "Parse error", Data: err.Error()},
			})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.sem <- struct{}{}
			defer func() { <-s.sem }()
			send(s.handleRequest(&req))
		}()
	}
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// handleRequest routes requests to appropriate handlers.
func (s *Server) handleRequest(req *Request) *Response {
	switch req.Method {
	case "inpaint":
		return s.handleInpaint(req)
	case "analyze":
		return s.handleAnalyze(req)
	case "ping":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &RPCError{
				Code:    codeMethodNotFound,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
