// Package server implements the line-oriented TCP protocol for the training
// store.
//
//	PING                     -> PONG
//	LIST                     -> OK [records]
//	LIST_KIND <kind>         -> OK [records]
//	GET <id>                 -> OK {record}
//	ADD <form-json>          -> OK {record}
//	UPDATE <id> <form-json>  -> OK {record}
//	DEL <id>                 -> OK
//	QUIT                     closes the connection
//
// Failures are answered with "ERR <code> <message>".
package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/certify-one/internal/logger"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxConnections = 100

var tracer = otel.Tracer("github.com/celerix-dev/certify-one/internal/server")

type Router struct {
	store pkgengine.TrainingStore
	cert  *tls.Certificate
	log   *logger.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

func NewRouter(s pkgengine.TrainingStore, log *logger.Logger) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{store: s, log: log.With("component", "TCPRouter")}
}

// SetCertificate sets the TLS certificate for the router
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// Listen starts the TCP server and blocks until Stop is called.
func (r *Router) Listen(port string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}, MinVersion: tls.VersionTLS12}
		listener, err = tls.Listen("tcp", ":"+port, config)
	} else {
		listener, err = net.Listen("tcp", ":"+port)
	}
	if err != nil {
		return errors.Wrapf(err, "listen on %s", port)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		listener.Close()
		return nil
	}
	r.listener = listener
	r.mu.Unlock()
	r.log.Info("TCP router listening", "addr", listener.Addr().String(), "tls", r.cert != nil)

	semaphore := make(chan struct{}, maxConnections)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if r.isClosed() {
				return nil
			}
			r.log.Warn("Accept failed", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		// Set aggressive timeouts for light traffic to prevent resource exhaustion
		conn.SetDeadline(time.Now().Add(5 * time.Minute))

		go func(c net.Conn) {
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.HandleConnection(c)
		}(conn)
	}
}

// Stop closes the listener. Open connections finish their current command.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.listener == nil {
		return nil
	}
	return r.listener.Close()
}

// Addr returns the bound address, or nil before Listen has bound.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

func (r *Router) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// HandleConnection serves commands from conn until QUIT, EOF or an idle timeout.
func (r *Router) HandleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)

	for {
		// Set a deadline for the next command
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		line, err := reader.ReadString('\n')
		if err != nil {
			return // Connection closed or timeout
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		command, args, _ := strings.Cut(line, " ")
		args = strings.TrimSpace(args)

		command = strings.ToUpper(command)
		if command == "QUIT" {
			return
		}

		ctx, span := tracer.Start(context.Background(), "tcp "+command,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("certify.command", command)),
		)
		if err := r.dispatch(ctx, conn, command, args); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// dispatch answers one command and returns the error it reported, if any.
func (r *Router) dispatch(ctx context.Context, w io.Writer, command, args string) error {
	switch command {
	case "PING":
		fmt.Fprintln(w, "PONG")
		return nil

	case "LIST":
		list, err := r.store.List()
		return respond(w, list, err)

	case "LIST_KIND":
		if args == "" {
			return usage(w, "LIST_KIND <kind>")
		}
		list, err := r.store.ListKind(schema.Kind(args))
		return respond(w, list, err)

	case "GET":
		if args == "" {
			return usage(w, "GET <id>")
		}
		rec, err := r.store.Get(args)
		return respond(w, rec, err)

	case "ADD":
		var form schema.FormData
		if err := json.Unmarshal([]byte(args), &form); err != nil {
			return badJSON(w, err)
		}
		rec, err := r.store.Add(ctx, form)
		return respond(w, rec, err)

	case "UPDATE":
		id, payload, ok := strings.Cut(args, " ")
		if !ok || id == "" {
			return usage(w, "UPDATE <id> <form-json>")
		}
		var form schema.FormData
		if err := json.Unmarshal([]byte(payload), &form); err != nil {
			return badJSON(w, err)
		}
		rec, err := r.store.Update(ctx, id, form)
		return respond(w, rec, err)

	case "DEL":
		if args == "" {
			return usage(w, "DEL <id>")
		}
		if err := r.store.Delete(ctx, args); err != nil {
			return respondErr(w, err)
		}
		fmt.Fprintln(w, "OK")
		return nil

	default:
		fmt.Fprintln(w, "ERR", pkgengine.CodeInvalid, "unknown command", command)
		return errors.Errorf("unknown command %s", command)
	}
}

func respond(w io.Writer, v any, err error) error {
	if err != nil {
		return respondErr(w, err)
	}
	res, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(w, "ERR", pkgengine.CodeInternal, "internal error")
		return errors.Wrap(err, "encode response")
	}
	fmt.Fprintln(w, "OK", string(res))
	return nil
}

func respondErr(w io.Writer, err error) error {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	fmt.Fprintln(w, "ERR", pkgengine.ErrorCode(err), msg)
	return err
}

func usage(w io.Writer, form string) error {
	fmt.Fprintln(w, "ERR", pkgengine.CodeInvalid, "usage:", form)
	return errors.Errorf("usage: %s", form)
}

func badJSON(w io.Writer, err error) error {
	fmt.Fprintln(w, "ERR", pkgengine.CodeInvalid, "invalid json value")
	return errors.Wrap(err, "invalid json value")
}
