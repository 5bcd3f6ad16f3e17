package vectorindex

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/valueobjects"
)

// payloadIDField carries the concept slug inside a point's payload, since
// Qdrant point ids must be UUIDs or positive integers but concept_id is a
// kebab-cased slug (domain/entities.ConceptIDFromLabel).
const payloadIDField = "concept_slug"

// payloadDegreeField carries the degree passed to Upsert, so the
// degree-aware strategies read it from the search hit without a round trip
// to the graph store. No GraphStore write calls Upsert; the stored degree
// is the value given at the last Upsert.
const payloadDegreeField = "degree"

// oversampleFactor controls how many raw hits QdrantIndex pulls back before
// Go-side strategy filtering trims to topK: degree_only/degree_biased can
// discard most of a plain top-K cosine result, so the raw fetch casts wider.
const oversampleFactor = 8

// QdrantIndex implements ports.VectorIndex against a live Qdrant collection.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
	rng        *rand.Rand
}

// NewQdrantIndex dials Qdrant's gRPC API (default port 6334) and creates the
// concept collection if it does not already exist. dsn accepts an optional
// "api_key" query parameter, e.g. "http://localhost:6334?api_key=...".
func NewQdrantIndex(ctx context.Context, dsn, collection string, dimension int) (*QdrantIndex, error) {
	if collection == "" {
		return nil, fmt.Errorf("vectorindex: collection name is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("vectorindex: dimension must be > 0")
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: parse qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: invalid port in qdrant dsn: %w", err)
	}

	cfg := &qdrant.Config{Host: host, Port: portNum}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: create qdrant client: %w", err)
	}

	idx := &QdrantIndex{
		client:     client,
		collection: collection,
		dimension:  dimension,
		rng:        rand.New(rand.NewSource(1)),
	}
	if err := idx.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("vectorindex: ensure collection: %w", err)
	}
	return idx, nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// pointID derives the deterministic UUID Qdrant requires from a concept
// slug; the slug itself is preserved in the payload so results can be
// mapped back without a reverse lookup.
func pointID(slug string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(slug)).String())
}

func (q *QdrantIndex) Upsert(ctx context.Context, slug string, embedding valueobjects.Embedding, degree int) error {
	if slug == "" {
		return fmt.Errorf("vectorindex: slug must not be empty")
	}
	vec := make([]float32, len(embedding.Values()))
	copy(vec, embedding.Values())

	payload := qdrant.NewValueMap(map[string]any{
		payloadIDField:     slug,
		payloadDegreeField: int64(degree),
	})

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points: []*qdrant.PointStruct{
			{Id: pointID(slug), Vectors: qdrant.NewVectorsDense(vec), Payload: payload},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: upsert %s: %w", slug, err)
	}
	return nil
}

func (q *QdrantIndex) Delete(ctx context.Context, slug string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(pointID(slug)),
	})
	if err != nil {
		return fmt.Errorf("vectorindex: delete %s: %w", slug, err)
	}
	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, embedding valueobjects.Embedding, topK int, threshold float64, strategy ports.VectorSearchStrategy, degreePercentile float64) ([]ports.VectorSearchHit, error) {
	vec := make([]float32, len(embedding.Values()))
	copy(vec, embedding.Values())

	rawLimit := uint64(topK * oversampleFactor)
	if rawLimit < 100 {
		rawLimit = 100
	}

	result, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &rawLimit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}

	all := make([]candidate, 0, len(result))
	for _, hit := range result {
		slug, degree := decodePayload(hit.Payload)
		if slug == "" {
			continue
		}
		all = append(all, candidate{Slug: slug, Similarity: float64(hit.Score), Degree: degree})
	}

	ranked := applyStrategy(all, strategy, degreePercentile, topK, threshold, q.rng)

	hits := make([]ports.VectorSearchHit, len(ranked))
	for i, c := range ranked {
		hits[i] = ports.VectorSearchHit{ConceptSlug: c.Slug, Similarity: c.Similarity, Degree: c.Degree}
	}
	return hits, nil
}

func decodePayload(payload map[string]*qdrant.Value) (slug string, degree int) {
	if payload == nil {
		return "", 0
	}
	if v, ok := payload[payloadIDField]; ok {
		slug = strings.TrimSpace(v.GetStringValue())
	}
	if v, ok := payload[payloadDegreeField]; ok {
		degree = int(v.GetIntegerValue())
	}
	return slug, degree
}

func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

var _ ports.VectorIndex = (*QdrantIndex)(nil)
