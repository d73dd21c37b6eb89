// Package sdk provides the client-side library for the certify-one store.
// It supports both remote connections via TCP/TLS and local embedded mode.
package sdk

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxAttempts = 3

// Option configures Connect and New.
type Option func(*options)

type options struct {
	log *zap.SugaredLogger
}

// WithLogger routes retry and fallback warnings to l.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client is a remote client for the certify-one store daemon.
// It implements the engine.TrainingStore interface.
type Client struct {
	addr   string
	log    *zap.SugaredLogger
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex // Protects concurrent access to the connection
}

// Connect establishes a TLS-encrypted connection to a remote store daemon.
// If CERTIFY_DISABLE_TLS is set to "true", it falls back to plain TCP.
func Connect(addr string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	c := &Client{addr: addr, log: o.log}
	if err := c.reconnect(); err != nil {
		return nil, errors.Wrapf(err, "connect %s", addr)
	}
	return c, nil
}

func (c *Client) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	var conn net.Conn
	var err error

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	if os.Getenv("CERTIFY_DISABLE_TLS") == "true" {
		conn, err = dialer.Dial("tcp", c.addr)
	} else {
		config := &tls.Config{
			InsecureSkipVerify: true, // The daemon uses a self-signed cert for internal traffic
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, config)
	}

	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// roundTrip sends one command line and returns the payload after "OK".
// ERR responses are decoded into the engine sentinels and never retried.
// Once a mutation has been written it is not resent, since the daemon may
// already have applied it; only a dial or write failure is retried.
func (c *Client) roundTrip(ctx context.Context, cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	retryAfterWrite := idempotent(cmd)
	var err error

	for i := 0; i < maxAttempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		// Ensure we have a connection
		if c.conn == nil {
			if reconnectErr := c.reconnect(); reconnectErr != nil {
				err = errors.Wrap(reconnectErr, "reconnect failed")
				time.Sleep(time.Duration(i*100) * time.Millisecond)
				continue
			}
		}

		deadline := time.Now().Add(30 * time.Second)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		c.conn.SetDeadline(deadline)

		var resp string
		_, err = fmt.Fprint(c.conn, cmd+"\n")
		if err == nil {
			resp, err = c.reader.ReadString('\n')
			if err == nil {
				return parseResponse(strings.TrimSpace(resp))
			}
			if !retryAfterWrite {
				c.drop()
				return "", errors.Wrap(err, "no reply after write, not retried")
			}
		}

		c.log.Warnw("Store request failed, reconnecting", "attempt", i+1, "error", err)

		// Force a reconnect on the next iteration
		if closeErr := c.reconnect(); closeErr != nil {
			c.log.Warnw("Reconnect attempt failed", "error", closeErr)
		}

		// Wait before retrying
		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}

	return "", errors.Wrapf(err, "failed after %d attempts", maxAttempts)
}

// drop discards a connection whose stream state is unknown.
func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// idempotent reports whether cmd may be resent after it reached the daemon.
func idempotent(cmd string) bool {
	verb, _, _ := strings.Cut(cmd, " ")
	switch verb {
	case "PING", "LIST", "LIST_KIND", "GET":
		return true
	default:
		return false
	}
}

func parseResponse(resp string) (string, error) {
	switch {
	case resp == "OK" || resp == "PONG":
		return "", nil
	case strings.HasPrefix(resp, "OK "):
		return strings.TrimPrefix(resp, "OK "), nil
	case strings.HasPrefix(resp, "ERR "):
		code, msg, _ := strings.Cut(strings.TrimPrefix(resp, "ERR "), " ")
		return "", pkgengine.ErrorFromCode(code, msg)
	default:
		return "", errors.Errorf("unexpected response %q", resp)
	}
}

// Ping checks that the daemon answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.roundTrip(ctx, "PING")
	return err
}

func (c *Client) Add(ctx context.Context, form schema.FormData) (schema.Record, error) {
	payload, err := json.Marshal(form)
	if err != nil {
		return nil, errors.Wrap(err, "encode form")
	}
	resp, err := c.roundTrip(ctx, "ADD "+string(payload))
	if err != nil {
		return nil, err
	}
	return schema.DecodeRecord([]byte(resp))
}

func (c *Client) Update(ctx context.Context, id string, form schema.FormData) (schema.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(form)
	if err != nil {
		return nil, errors.Wrap(err, "encode form")
	}
	resp, err := c.roundTrip(ctx, fmt.Sprintf("UPDATE %s %s", id, payload))
	if err != nil {
		return nil, err
	}
	return schema.DecodeRecord([]byte(resp))
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := c.roundTrip(ctx, "DEL "+id)
	return err
}

func (c *Client) Get(id string) (schema.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	resp, err := c.roundTrip(context.Background(), "GET "+id)
	if err != nil {
		return nil, err
	}
	return schema.DecodeRecord([]byte(resp))
}

func (c *Client) List() ([]schema.Record, error) {
	return c.list("LIST")
}

func (c *Client) ListKind(kind schema.Kind) ([]schema.Record, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return c.list("LIST_KIND " + string(kind))
}

func (c *Client) list(cmd string) ([]schema.Record, error) {
	resp, err := c.roundTrip(context.Background(), cmd)
	if err != nil {
		return nil, err
	}
	var list schema.Collection
	if err := json.Unmarshal([]byte(resp), &list); err != nil {
		return nil, errors.Wrap(err, "decode list")
	}
	if list == nil {
		list = schema.Collection{}
	}
	return list, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	fmt.Fprintln(c.conn, "QUIT")
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Ids travel as a single protocol token.
func checkID(id string) error {
	if id == "" || strings.ContainsAny(id, " \t\r\n") {
		return errors.Wrapf(pkgengine.ErrNotFound, "id %q", id)
	}
	return nil
}

// --- Generics Support ---

// GetAs retrieves a record and narrows it to the variant T, e.g.
// GetAs[*schema.Course](store, id). A record of another variant is reported
// as ErrUnsupportedKind.
func GetAs[T schema.Record](s Reader, id string) (T, error) {
	var zero T
	rec, err := s.Get(id)
	if err != nil {
		return zero, err
	}
	v, ok := rec.(T)
	if !ok {
		return zero, errors.Wrapf(pkgengine.ErrUnsupportedKind, "record %s is a %s", id, rec.Kind())
	}
	return v, nil
}

// ListAs returns every record of variant T in collection order.
func ListAs[T schema.Record](s Reader) ([]T, error) {
	var zero T
	list, err := s.ListKind(zero.Kind())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(list))
	for _, rec := range list {
		if v, ok := rec.(T); ok {
			out = append(out, v)
		}
	}
	return out, nil
}
