// Package smsrelay defines the two ways an SMS reaches the relay process:
// the smsrelay.v1.Relay gRPC service and the Kafka queue topic.
//
// The service carries google.protobuf.Struct messages, so it needs no
// generated code:
//
//	service Relay {
//	  rpc Send(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
//
// Request fields: phone_number, message. Response fields: accepted,
// message_id.
package smsrelay

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "smsrelay.v1.Relay"
	SendMethod  = "/smsrelay.v1.Relay/Send"
)

// RelayServer is the server API for the Relay service.
type RelayServer interface {
	Send(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Send", Handler: sendHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "smsrelay/v1/relay.proto",
}

func RegisterRelayServer(s grpc.ServiceRegistrar, srv RelayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func sendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RelayServer).Send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SendMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RelayServer).Send(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RelayClient is the client API for the Relay service.
type RelayClient struct {
	cc grpc.ClientConnInterface
}

func NewRelayClient(cc grpc.ClientConnInterface) *RelayClient {
	return &RelayClient{cc: cc}
}

func (c *RelayClient) Send(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SendMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func NewSendRequest(phoneNumber, message string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"phone_number": phoneNumber,
		"message":      message,
	})
}

func ParseSendRequest(req *structpb.Struct) (phoneNumber, message string, err error) {
	fields := req.GetFields()
	phoneNumber = fields["phone_number"].GetStringValue()
	message = fields["message"].GetStringValue()
	if phoneNumber == "" || message == "" {
		return "", "", fmt.Errorf("smsrelay: phone_number and message are required")
	}
	return phoneNumber, message, nil
}

func NewSendResponse(accepted bool, messageID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"accepted":   structpb.NewBoolValue(accepted),
		"message_id": structpb.NewStringValue(messageID),
	}}
}

func ParseSendResponse(resp *structpb.Struct) (accepted bool, messageID string) {
	fields := resp.GetFields()
	return fields["accepted"].GetBoolValue(), fields["message_id"].GetStringValue()
}
