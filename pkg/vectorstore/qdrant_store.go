package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const qdrantMetaPrefix = "meta."

type qdrantPoints interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Count(ctx context.Context, in *pb.CountPoints, opts ...grpc.CallOption) (*pb.CountResponse, error)
}

type qdrantCollections interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Get(ctx context.Context, in *pb.GetCollectionInfoRequest, opts ...grpc.CallOption) (*pb.GetCollectionInfoResponse, error)
}

// QdrantStore keeps chunks as points of one Qdrant collection using Euclid
// distance, so point scores are already L2 distances.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      qdrantPoints
	collections qdrantCollections
	collection  string
	dims        int
	seq         atomic.Int64
}

var _ Backend = (*QdrantStore)(nil)

// OpenQdrant dials addr over gRPC and makes sure the collection exists.
func OpenQdrant(ctx context.Context, addr, collection string, dims int) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dial qdrant %s: %w", addr, err)
	}
	s := newQdrantStore(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), collection, dims)
	s.conn = conn
	if err := s.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func newQdrantStore(points qdrantPoints, collections qdrantCollections, collection string, dims int) *QdrantStore {
	s := &QdrantStore{points: points, collections: collections, collection: collection, dims: dims}
	s.seq.Store(time.Now().UnixNano())
	return s
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorstore: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return s.checkDimensions(ctx)
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(s.dims),
					Distance: pb.Distance_Euclid,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *QdrantStore) checkDimensions(ctx context.Context) error {
	info, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: s.collection})
	if err != nil {
		return fmt.Errorf("vectorstore: describe collection %s: %w", s.collection, err)
	}
	size := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size != uint64(s.dims) {
		return fmt.Errorf("%w: qdrant collection %s holds %d-d vectors, embedder produces %d",
			ErrDimensionMismatch, s.collection, size, s.dims)
	}
	return nil
}

func (s *QdrantStore) Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("vectorstore: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if err := checkVectors(vectors, s.dims); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(chunks))
	for i, ch := range chunks {
		payload := map[string]*pb.Value{
			"text":   {Kind: &pb.Value_StringValue{StringValue: ch.Text}},
			"source": {Kind: &pb.Value_StringValue{StringValue: ch.Source}},
			"seq":    {Kind: &pb.Value_IntegerValue{IntegerValue: s.seq.Add(1)}},
		}
		if ch.Page != nil {
			payload["page"] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(*ch.Page)}}
		}
		for k, v := range ch.Metadata {
			payload[qdrantMetaPrefix+k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}

		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: ch.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vectors[i]},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: upsert %d points: %w", len(points), err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return []ScoredChunk{}, nil
	}
	if len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query has %d, store has %d", ErrDimensionMismatch, len(vector), s.dims)
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}

	type ranked struct {
		chunk ScoredChunk
		seq   int64
	}
	hits := make([]ranked, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		ch := Chunk{ID: r.GetId().GetUuid()}
		var seq int64
		for key, val := range r.GetPayload() {
			switch {
			case key == "text":
				ch.Text = val.GetStringValue()
			case key == "source":
				ch.Source = val.GetStringValue()
			case key == "page":
				p := int(val.GetIntegerValue())
				ch.Page = &p
			case key == "seq":
				seq = val.GetIntegerValue()
			case strings.HasPrefix(key, qdrantMetaPrefix):
				if ch.Metadata == nil {
					ch.Metadata = make(map[string]string)
				}
				ch.Metadata[strings.TrimPrefix(key, qdrantMetaPrefix)] = val.GetStringValue()
			}
		}
		hits = append(hits, ranked{chunk: ScoredChunk{Chunk: ch, Score: float64(r.GetScore())}, seq: seq})
	}

	// Qdrant does not order ties; fall back to insertion order.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].chunk.Score != hits[j].chunk.Score {
			return hits[i].chunk.Score < hits[j].chunk.Score
		}
		return hits[i].seq < hits[j].seq
	})

	out := make([]ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = h.chunk
	}
	return out, nil
}

func (s *QdrantStore) Count(ctx context.Context) (int64, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{CollectionName: s.collection, Exact: &exact})
	if err != nil {
		return 0, fmt.Errorf("vectorstore: count: %w", err)
	}
	return int64(resp.GetResult().GetCount()), nil
}

// Persist is a no-op: upserts are sent with wait=true.
func (s *QdrantStore) Persist(ctx context.Context) error { return nil }

func (s *QdrantStore) Dimensions() int { return s.dims }

func (s *QdrantStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
