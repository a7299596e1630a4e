package generate

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/loopforge/engine/pkg/models"
)

// generateMethod is the fully qualified RPC name invoked on the sidecar.
const generateMethod = "/loopforge.codegen.v1.Generator/Generate"

// GRPCClient adapts a local gRPC sidecar to the Generator interface.
// Grounded on pkg/agent/llm_grpc.go's insecure local-connection shape; since
// the sidecar's generated .proto types were never retrieved into the pack,
// this invokes the method generically over structpb.Struct rather than
// fabricating hand-authored .pb.go message types.
type GRPCClient struct {
	conn *grpc.ClientConn
}

// NewGRPCClient dials addr with an insecure local transport, matching
// llm_grpc.go's NewGRPCLLMClient.
func NewGRPCClient(addr string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dialing generator at %s: %w", addr, err)
	}
	return &GRPCClient{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Generate marshals req to a structpb.Struct, invokes the RPC, and unmarshals
// the structpb.Struct response back into a Result.
func (c *GRPCClient) Generate(ctx context.Context, req *Request) (*Result, error) {
	reqStruct, err := structpb.NewStruct(toPayload(req))
	if err != nil {
		return nil, fmt.Errorf("encoding generate request: %w", err)
	}

	respStruct := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, generateMethod, reqStruct, respStruct); err != nil {
		return nil, fmt.Errorf("generate rpc failed: %w", err)
	}

	return fromPayload(respStruct), nil
}

func toPayload(req *Request) map[string]any {
	files := make([]any, 0, len(req.ExistingFiles))
	for _, f := range req.ExistingFiles {
		files = append(files, map[string]any{"path": f.Path, "content": f.Content})
	}
	context := make(map[string]any, len(req.Context))
	for k, v := range req.Context {
		context[k] = v
	}
	return map[string]any{
		"project_id":     req.ProjectID,
		"language":       string(req.Language),
		"prompt":         req.Prompt,
		"existing_files": files,
		"context":        context,
	}
}

func fromPayload(s *structpb.Struct) *Result {
	fields := s.GetFields()
	result := &Result{
		Success:     getBool(fields, "success"),
		Explanation: getString(fields, "explanation"),
		Error:       getString(fields, "error"),
		TokensUsed:  int(getNumber(fields, "tokens_used")),
	}

	filesVal, ok := fields["files"]
	if !ok || filesVal.GetListValue() == nil {
		return result
	}
	for _, v := range filesVal.GetListValue().GetValues() {
		obj := v.GetStructValue().GetFields()
		if obj == nil {
			continue
		}
		result.Files = append(result.Files, models.ProjectFile{
			Path:    getString(obj, "path"),
			Content: getString(obj, "content"),
		})
	}
	return result
}

func getString(fields map[string]*structpb.Value, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func getBool(fields map[string]*structpb.Value, key string) bool {
	v, ok := fields[key]
	if !ok {
		return false
	}
	return v.GetBoolValue()
}

func getNumber(fields map[string]*structpb.Value, key string) float64 {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	return v.GetNumberValue()
}
