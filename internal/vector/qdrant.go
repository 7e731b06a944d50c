package vector

import (
	"context"
	"crypto/tls"
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/josinaldojr/workersai-rag/internal/rag"
)

// Collection settings. The dimensionality matches the bge-base embedding
// model; everything stored here must use it.
const (
	vectorSize        = 768
	segmentNumber     = 2
	replicationFactor = 2
	searchLimit       = 2
)

// Client talks to Qdrant over gRPC.
type Client struct {
	collections qdrant.CollectionsClient
	points      qdrant.PointsClient
	conn        *grpc.ClientConn
}

func NewClient(addr, apiKey string) (*Client, error) {
	var opts []grpc.DialOption
	if apiKey != "" {
		opts = append(opts,
			grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})),
			grpc.WithUnaryInterceptor(apiKeyInterceptor(apiKey)),
		)
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s: %w", addr, err)
	}

	return &Client{
		collections: qdrant.NewCollectionsClient(conn),
		points:      qdrant.NewPointsClient(conn),
		conn:        conn,
	}, nil
}

// Qdrant cloud authenticates with an api-key metadata entry on every call.
func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// EnsureCollection creates the collection if it does not exist yet. An
// existing collection is left untouched, whatever its configuration.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	existing, err := c.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return &rag.VectorStoreError{Op: "list collections", Err: err}
	}

	for _, col := range existing.GetCollections() {
		if col.GetName() == name {
			return nil
		}
	}

	segments := uint64(segmentNumber)
	replication := uint32(replicationFactor)
	_, err = c.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     vectorSize,
					Distance: qdrant.Distance_Dot,
				},
			},
		},
		OptimizersConfig: &qdrant.OptimizersConfigDiff{
			DefaultSegmentNumber: &segments,
		},
		ReplicationFactor: &replication,
	})
	if err != nil {
		return &rag.VectorStoreError{Op: "create collection", Err: err}
	}

	return nil
}

// Upsert writes points and blocks until Qdrant acknowledges durability.
func (c *Client) Upsert(ctx context.Context, collection string, points []rag.Point) error {
	wait := true
	req := &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         make([]*qdrant.PointStruct, 0, len(points)),
	}
	for _, p := range points {
		req.Points = append(req.Points, toPointStruct(p))
	}

	if _, err := c.points.Upsert(ctx, req); err != nil {
		return &rag.VectorStoreError{Op: "upsert", Err: err}
	}
	return nil
}

// Search returns up to two nearest points by dot product, most similar
// first, optionally restricted to one aid.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, filter *rag.SearchFilter) ([]rag.Point, error) {
	req := &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          searchLimit,
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if filter != nil {
		req.Filter = aidFilter(filter.AID)
	}

	resp, err := c.points.Search(ctx, req)
	if err != nil {
		return nil, &rag.VectorStoreError{Op: "search", Err: err}
	}

	matches := make([]rag.Point, 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		payload := hit.GetPayload()
		matches = append(matches, rag.Point{
			ID: hit.GetId().GetUuid(),
			Payload: rag.Payload{
				Text: payload["text"].GetStringValue(),
				AID:  payload["aid"].GetStringValue(),
			},
		})
	}
	return matches, nil
}

func toPointStruct(p rag.Point) *qdrant.PointStruct {
	payload := map[string]*qdrant.Value{
		"text": {Kind: &qdrant.Value_StringValue{StringValue: p.Payload.Text}},
	}
	if p.Payload.AID != "" {
		payload["aid"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: p.Payload.AID}}
	}

	return &qdrant.PointStruct{
		Id: &qdrant.PointId{
			PointIdOptions: &qdrant.PointId_Uuid{Uuid: p.ID},
		},
		Vectors: &qdrant.Vectors{
			VectorsOptions: &qdrant.Vectors_Vector{
				Vector: &qdrant.Vector{Data: p.Vector},
			},
		},
		Payload: payload,
	}
}

// Exact keyword equality on the payload aid field.
func aidFilter(aid string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: "aid",
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: aid},
					},
				},
			},
		}},
	}
}

var _ rag.VectorStore = (*Client)(nil)
