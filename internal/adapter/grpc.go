package adapter

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// GRPCHealthProber implements [Prober] with the standard gRPC health service
// exposed by the document server.
type GRPCHealthProber struct {
	conn   *grpc.ClientConn
	client grpc_health_v1.HealthClient
}

// NewGRPCHealthProber prepares a client for address. The connection is
// established lazily on the first Ping.
func NewGRPCHealthProber(address string) (*GRPCHealthProber, error) {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("error creating grpc health client: %w", err)
	}

	return &GRPCHealthProber{
		conn:   conn,
		client: grpc_health_v1.NewHealthClient(conn),
	}, nil
}

// Ping implements [Prober]. A NOT_SERVING answer counts as unreachable.
func (p *GRPCHealthProber) Ping(ctx context.Context) error {
	resp, err := p.client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		if status.Code(err) == codes.DeadlineExceeded {
			return fmt.Errorf("health check: %w: %w", ErrDeadlineExceeded, err)
		}
		return fmt.Errorf("health check: %w: %w", ErrUnavailable, err)
	}

	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("health check: %w: %s", ErrUnavailable, resp.GetStatus())
	}
	return nil
}

// Close releases the underlying connection.
func (p *GRPCHealthProber) Close() error {
	return p.conn.Close()
}
