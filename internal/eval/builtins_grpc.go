package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"github.com/jhump/protoreflect/dynamic/grpcdynamic"
	"google.golang.org/grpc"
)

// GrpcDescriptors is the set of service descriptors the Grpc effect can
// dispatch against, populated by whatever loads the workspace's configured
// proto sources. It backs the `grpcCall` builtin below, an ordinary function
// value; a `perform Grpc.call ...` is not routed to it.
//
// Grounded on the teacher's internal/evaluator/builtins_grpc.go: a manual
// grpc.ServiceDesc/MethodDesc built at call time from a *desc.MethodDescriptor
// rather than generated protoc-gen-go stubs, here wrapped in protoreflect's
// own grpcdynamic.Stub for the same effect without hand-rolling codec
// plumbing.
type GrpcDescriptors struct {
	Services map[string]*desc.ServiceDescriptor
}

// RegisterGrpcEffect installs the three-argument `grpcCall target method
// payload` builtin, which performs a unary RPC identified by
// "Service/Method" against target, with payload supplied as a Record whose
// fields populate the request message. Streaming RPCs are not supported.
// The CLI does not call RegisterGrpcEffect.
func RegisterGrpcEffect(it *Interpreter, descriptors *GrpcDescriptors, dial func(target string) (*grpc.ClientConn, error)) {
	it.Builtins["grpcCall"] = &Native{
		Name:  "grpcCall",
		Arity: 3,
		Fn: func(args []Object) (Object, error) {
			target, ok := args[0].(String)
			if !ok {
				return nil, fmt.Errorf("grpcCall: target must be a String")
			}
			method, ok := args[1].(String)
			if !ok {
				return nil, fmt.Errorf("grpcCall: method must be a String")
			}
			payload, ok := args[2].(*Record)
			if !ok {
				return nil, fmt.Errorf("grpcCall: payload must be a Record")
			}
			return invokeUnary(descriptors, dial, target.Value, method.Value, payload)
		},
	}
}

func invokeUnary(descriptors *GrpcDescriptors, dial func(string) (*grpc.ClientConn, error), target, qualifiedMethod string, payload *Record) (Object, error) {
	svcName, methodName, err := splitQualified(qualifiedMethod)
	if err != nil {
		return nil, err
	}
	svc, ok := descriptors.Services[svcName]
	if !ok {
		return nil, fmt.Errorf("grpcCall: unknown service %q", svcName)
	}
	methodDesc := svc.FindMethodByName(methodName)
	if methodDesc == nil {
		return nil, fmt.Errorf("grpcCall: service %q has no method %q", svcName, methodName)
	}

	conn, err := dial(target)
	if err != nil {
		return nil, fmt.Errorf("grpcCall: dial %s: %w", target, err)
	}
	defer conn.Close()

	req := dynamic.NewMessage(methodDesc.GetInputType())
	if err := populateMessage(req, payload); err != nil {
		return nil, err
	}

	stub := grpcdynamic.NewStub(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := stub.InvokeRpc(ctx, methodDesc, req)
	if err != nil {
		return nil, fmt.Errorf("grpcCall: %w", err)
	}
	dynResp, ok := resp.(*dynamic.Message)
	if !ok {
		return nil, fmt.Errorf("grpcCall: unexpected response type %T", resp)
	}
	return messageToRecord(dynResp), nil
}

func splitQualified(s string) (string, string, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("grpcCall: method must be \"Service/Method\", got %q", s)
}

func populateMessage(msg *dynamic.Message, rec *Record) error {
	for name, val := range rec.Fields {
		fd := msg.GetMessageDescriptor().FindFieldByName(name)
		if fd == nil {
			continue // extra fields are ignored, same laxity as a JSON codec would apply
		}
		goVal, err := toProtoScalar(val)
		if err != nil {
			return err
		}
		if err := msg.TrySetField(fd, goVal); err != nil {
			return fmt.Errorf("grpcCall: field %q: %w", name, err)
		}
	}
	return nil
}

func toProtoScalar(v Object) (interface{}, error) {
	switch x := v.(type) {
	case Int:
		return x.Value, nil
	case Float:
		return x.Value, nil
	case Bool:
		return x.Value, nil
	case String:
		return x.Value, nil
	default:
		return nil, fmt.Errorf("grpcCall: unsupported field value kind %s", v.Kind())
	}
}

func messageToRecord(msg *dynamic.Message) *Record {
	fields := map[string]Object{}
	for _, fd := range msg.GetMessageDescriptor().GetFields() {
		fields[fd.GetName()] = fromProtoScalar(msg.GetField(fd))
	}
	return &Record{Fields: fields}
}

func fromProtoScalar(v interface{}) Object {
	switch x := v.(type) {
	case int32:
		return Int{int64(x)}
	case int64:
		return Int{x}
	case float32:
		return Float{float64(x)}
	case float64:
		return Float{x}
	case bool:
		return Bool{x}
	case string:
		return String{x}
	default:
		return String{fmt.Sprintf("%v", x)}
	}
}
