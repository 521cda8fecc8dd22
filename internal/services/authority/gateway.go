package authority

//go:generate mockgen -destination=mock/mock_gateway.go -package=mockauthority -source=gateway.go

import (
	"context"
	"encoding/json"
	"log"

	"github.com/vttforge/areatrigger/internal/errors"
	"github.com/vttforge/areatrigger/internal/services/resolution"
)

// RemoteChannel carries one serialized operation to the authoritative
// session and returns its serialized response
type RemoteChannel interface {
	Call(ctx context.Context, payload []byte) ([]byte, error)
}

// Gateway is the single enforcement point for the authority check. Every
// state-mutating resolution goes through Execute; nothing else in the engine
// inspects the authoritative flag.
type Gateway interface {
	// Execute runs the operation locally when this session is
	// authoritative, otherwise forwards it over the remote channel. A
	// forwarding timeout is a failure; there is no automatic retry.
	Execute(ctx context.Context, req *resolution.Request) (*resolution.Result, error)

	// Authoritative reports whether this session executes locally
	Authoritative() bool
}

type gateway struct {
	authoritative bool
	local         resolution.Service
	remote        RemoteChannel
}

// GatewayConfig holds configuration for the gateway
type GatewayConfig struct {
	Authoritative     bool
	ResolutionService resolution.Service
	Remote            RemoteChannel
}

// NewGateway creates a new authority gateway
func NewGateway(cfg *GatewayConfig) Gateway {
	if cfg.Authoritative && cfg.ResolutionService == nil {
		panic("resolution service is required on the authoritative session")
	}
	if !cfg.Authoritative && cfg.Remote == nil {
		panic("remote channel is required on non-authoritative sessions")
	}
	return &gateway{
		authoritative: cfg.Authoritative,
		local:         cfg.ResolutionService,
		remote:        cfg.Remote,
	}
}

func (g *gateway) Authoritative() bool {
	return g.authoritative
}

func (g *gateway) Execute(ctx context.Context, req *resolution.Request) (*resolution.Result, error) {
	if g.authoritative {
		return g.local.Resolve(ctx, req)
	}
	return g.forward(ctx, req)
}

// callEnvelope is the wire frame for a forwarded operation
type callEnvelope struct {
	Operation *resolution.Request `json:"operation"`
}

// replyEnvelope is the wire frame for the authoritative session's answer
type replyEnvelope struct {
	Result *resolution.Result `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

func (g *gateway) forward(ctx context.Context, req *resolution.Request) (*resolution.Result, error) {
	payload, err := json.Marshal(&callEnvelope{Operation: req})
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize operation")
	}

	reply, err := g.remote.Call(ctx, payload)
	if err != nil {
		log.Printf("Authority: forward to authoritative session failed: %v", err)
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "authoritative session unreachable")
	}

	var envelope replyEnvelope
	if err := json.Unmarshal(reply, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to decode remote response")
	}
	if envelope.Error != "" {
		return nil, errors.Internalf("remote execution failed: %s", envelope.Error)
	}
	if envelope.Result == nil {
		return nil, errors.Internal("remote response carried no result")
	}
	return envelope.Result, nil
}
