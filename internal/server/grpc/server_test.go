package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/bistro/pkg/errorbank"
)

func invoke(err error) error {
	_, out := StatusInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/bistro.Test/Call"},
		func(context.Context, interface{}) (interface{}, error) { return nil, err })
	return out
}

func TestStatusInterceptorMapsAppErrors(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{errorbank.NotFound("order not found"), codes.NotFound, "order not found"},
		{errorbank.Conflict("table is not available"), codes.AlreadyExists, "table is not available"},
		{errorbank.BadRequest("validation failed"), codes.InvalidArgument, "validation failed"},
		{errorbank.Internal("boom", errorbank.WithCause(errors.New("db down"))), codes.Internal, "internal error"},
		{errors.New("raw"), codes.Internal, "internal error"},
	}
	for _, tc := range cases {
		st, ok := status.FromError(invoke(tc.err))
		require.True(t, ok)
		assert.Equal(t, tc.code, st.Code())
		assert.Equal(t, tc.msg, st.Message())
	}

	assert.NoError(t, invoke(nil))
}

func TestStatusInterceptorKeepsExistingStatus(t *testing.T) {
	st, ok := status.FromError(invoke(status.Error(codes.Unavailable, "later")))
	require.True(t, ok)
	assert.Equal(t, codes.Unavailable, st.Code())
}

func TestHealthStartsNotServing(t *testing.T) {
	h := NewHealth()
	resp, err := h.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
