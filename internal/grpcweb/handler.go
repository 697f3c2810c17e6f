// Package grpcweb bridges browser gRPC-Web requests (HTTP/1.1) onto the
// native gRPC server.
package grpcweb

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	maxBody     = 4 << 20
	frameData   = 0x00
	frameHeader = 0x80
)

// Bridge translates gRPC-Web → native gRPC. Message bytes are passed
// through untouched; the content subtype picks the server-side codec.
type Bridge struct {
	conn    *grpc.ClientConn
	logger  *log.Logger
	origins map[string]bool
}

// New dials the gRPC server at addr (e.g. "localhost:50051"). An empty
// origins list allows any origin.
func New(addr string, logger *log.Logger, origins []string) (*Bridge, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}
	return NewWithConn(conn, logger, origins), nil
}

// NewWithConn bridges onto an existing connection. Close closes conn.
func NewWithConn(conn *grpc.ClientConn, logger *log.Logger, origins []string) *Bridge {
	b := &Bridge{conn: conn, logger: logger, origins: make(map[string]bool, len(origins))}
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			b.origins[o] = true
		}
	}
	return b
}

func (b *Bridge) Close() error { return b.conn.Close() }

func (b *Bridge) allowOrigin(origin string) string {
	if len(b.origins) == 0 {
		if origin == "" {
			return "*"
		}
		return origin
	}
	if b.origins[origin] {
		return origin
	}
	return ""
}

// Handler returns an http.Handler that translates gRPC-Web → gRPC.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := b.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, X-Grpc-Web, X-User-Agent, Authorization, x-grpc-web")
		w.Header().Set("Access-Control-Expose-Headers",
			"Grpc-Status, Grpc-Message, Grpc-Status-Details-Bin, grpc-status, grpc-message")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ct, ok := parseContentType(r.Header.Get("Content-Type"))
		if !ok {
			http.Error(w, "not grpc-web", http.StatusUnsupportedMediaType)
			return
		}

		b.logger.Debug("grpc-web", "method", r.URL.Path, "subtype", ct.subtype)
		b.forward(w, r, ct)
	})
}

type contentType struct {
	raw     string
	subtype string
	text    bool
}

// parseContentType accepts application/grpc-web[-text][+subtype]. A bare
// type means proto.
func parseContentType(v string) (contentType, bool) {
	v = strings.TrimSpace(strings.SplitN(v, ";", 2)[0])
	rest, ok := strings.CutPrefix(v, "application/grpc-web")
	if !ok {
		return contentType{}, false
	}
	ct := contentType{raw: v, subtype: "proto"}
	if after, found := strings.CutPrefix(rest, "-text"); found {
		ct.text = true
		rest = after
	}
	switch {
	case rest == "":
	case strings.HasPrefix(rest, "+") && len(rest) > 1:
		ct.subtype = strings.ToLower(rest[1:])
	default:
		return contentType{}, false
	}
	return ct, true
}

func (b *Bridge) forward(w http.ResponseWriter, r *http.Request, ct contentType) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, ct, codes.ResourceExhausted, "read body failed")
		return
	}
	if ct.text {
		if body, err = base64.StdEncoding.DecodeString(string(body)); err != nil {
			writeError(w, ct, codes.InvalidArgument, "bad base64 body")
			return
		}
	}
	if len(body) < 5 {
		writeError(w, ct, codes.InvalidArgument, "body too short")
		return
	}

	// grpc-web frame: 1-byte flag + 4-byte big-endian length + message
	msgLen := binary.BigEndian.Uint32(body[1:5])
	if uint64(msgLen)+5 > uint64(len(body)) {
		writeError(w, ct, codes.InvalidArgument, "incomplete frame")
		return
	}
	payload := body[5 : 5+msgLen]

	// forward metadata
	md := metadata.MD{}
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		md.Set("x-forwarded-for", host)
	}
	ctx := metadata.NewOutgoingContext(r.Context(), md)

	resp := &rawMsg{}
	err = b.conn.Invoke(ctx, r.URL.Path, &rawMsg{data: payload}, resp, grpc.ForceCodec(rawCodec{name: ct.subtype}))
	if err != nil {
		st := status.Convert(err)
		b.logger.Debug("grpc-web error", "method", r.URL.Path, "code", st.Code(), "msg", st.Message())
		writeError(w, ct, st.Code(), st.Message())
		return
	}
	writeSuccess(w, ct, resp.data)
}

type rawMsg struct{ data []byte }

// rawCodec passes bytes through without marshal/unmarshal. It is named
// after the browser's subtype so the server decodes with the right codec.
type rawCodec struct{ name string }

func (rawCodec) Marshal(v any) ([]byte, error) {
	return v.(*rawMsg).data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m := v.(*rawMsg)
	m.data = append([]byte(nil), data...)
	return nil
}

func (c rawCodec) Name() string { return c.name }

func frame(flag byte, data []byte) []byte {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

func trailer(code codes.Code, msg string) []byte {
	t := fmt.Sprintf("grpc-status:%d\r\n", code)
	if msg != "" {
		msg = strings.NewReplacer("\r", " ", "\n", " ").Replace(msg)
		t += "grpc-message:" + msg + "\r\n"
	}
	return frame(frameHeader, []byte(t))
}

func write(w http.ResponseWriter, ct contentType, frames ...[]byte) {
	var out []byte
	for _, f := range frames {
		out = append(out, f...)
	}
	if ct.text {
		out = []byte(base64.StdEncoding.EncodeToString(out))
	}
	w.Header().Set("Content-Type", ct.raw)
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func writeError(w http.ResponseWriter, ct contentType, code codes.Code, msg string) {
	write(w, ct, trailer(code, msg))
}

func writeSuccess(w http.ResponseWriter, ct contentType, data []byte) {
	write(w, ct, frame(frameData, data), trailer(codes.OK, ""))
}
