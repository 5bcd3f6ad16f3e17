package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/domain/valueobjects"
)

// maxTransactItems mirrors DynamoDB's own TransactWriteItems cap: a
// single DynamoDB transaction accepts at most 100 items, but chunk commits
// are kept well under that so one retry never straddles the limit.
const maxTransactItems = 90

// GraphStore implements application/ports.GraphStore against a single
// DynamoDB table, using the adjacency-list single-table shape
// transactional-write style.
type GraphStore struct {
	client    *dynamodb.Client
	tableName string
	gsi1Name  string
	logger    *zap.Logger
}

func NewGraphStore(client *dynamodb.Client, tableName, gsi1IndexName string, logger *zap.Logger) *GraphStore {
	return &GraphStore{client: client, tableName: tableName, gsi1Name: gsi1IndexName, logger: logger}
}

// CommitChunk writes a chunk's Source, new Concepts (with their own
// APPEARS_IN link), matched-concept APPEARS_IN links and search-term
// accretion, Instances, EVIDENCED_BY links, semantic edges (merged against
// any existing edge to preserve the maximum confidence), and the chunk's
// DocumentMeta row when first registering a content_hash, all in one
// transaction.
func (s *GraphStore) CommitChunk(ctx context.Context, commit ports.ChunkCommit) error {
	var items []types.TransactWriteItem

	sourceItem, err := attributevalue.MarshalMap(toDDBSource(commit.Source))
	if err != nil {
		return fmt.Errorf("graphstore: marshal source: %w", err)
	}
	items = append(items, putItem(s.tableName, sourceItem))

	for _, c := range commit.NewConcepts {
		conceptItem, err := attributevalue.MarshalMap(toDDBConcept(c, commit.Source.Document()))
		if err != nil {
			return fmt.Errorf("graphstore: marshal concept %s: %w", c.ConceptSlug(), err)
		}
		items = append(items, putItem(s.tableName, conceptItem))

		appearsIn, err := attributevalue.MarshalMap(appearsInItem(c.ConceptSlug(), commit.Source.ID().String()))
		if err != nil {
			return fmt.Errorf("graphstore: marshal appears_in for new concept %s: %w", c.ConceptSlug(), err)
		}
		items = append(items, putItem(s.tableName, appearsIn))
	}

	for _, link := range commit.MatchedLinks {
		appearsIn, err := attributevalue.MarshalMap(appearsInItem(link.ConceptSlug, commit.Source.ID().String()))
		if err != nil {
			return fmt.Errorf("graphstore: marshal appears_in link: %w", err)
		}
		items = append(items, putItem(s.tableName, appearsIn))

		if len(link.Terms) == 0 {
			continue
		}
		concept, err := s.GetConceptBySlug(ctx, link.ConceptSlug)
		if err != nil {
			return fmt.Errorf("graphstore: load matched concept %s: %w", link.ConceptSlug, err)
		}
		if concept == nil {
			continue
		}
		accreted := false
		for _, term := range link.Terms {
			if concept.AddSearchTerm(term) {
				accreted = true
			}
		}
		if !accreted {
			continue
		}
		conceptItem, err := attributevalue.MarshalMap(toDDBConcept(concept, commit.Source.Document()))
		if err != nil {
			return fmt.Errorf("graphstore: marshal accreted concept %s: %w", link.ConceptSlug, err)
		}
		items = append(items, putItem(s.tableName, conceptItem))
	}

	if commit.Document != nil {
		documentItem, err := attributevalue.MarshalMap(toDDBDocument(commit.Document))
		if err != nil {
			return fmt.Errorf("graphstore: marshal document %s: %w", commit.Document.ID().String(), err)
		}
		items = append(items, putItem(s.tableName, documentItem))
	}

	for _, inst := range commit.Instances {
		var conceptSlug string
		for _, link := range commit.InstanceLinks {
			if link.InstanceID.Equals(inst.ID()) {
				conceptSlug = link.ConceptSlug
				break
			}
		}
		instanceItem, err := attributevalue.MarshalMap(toDDBInstance(inst, conceptSlug))
		if err != nil {
			return fmt.Errorf("graphstore: marshal instance %s: %w", inst.ID().String(), err)
		}
		items = append(items, putItem(s.tableName, instanceItem))
	}

	for _, edge := range commit.SemanticEdges {
		merged, err := s.mergeEdgeConfidence(ctx, edge)
		if err != nil {
			return fmt.Errorf("graphstore: load existing edge %s-%s->%s: %w", edge.SourceConceptID, edge.RelationType, edge.TargetConceptID, err)
		}
		out, in := toDDBEdgePair(merged)
		outItem, err := attributevalue.MarshalMap(out)
		if err != nil {
			return fmt.Errorf("graphstore: marshal edge out: %w", err)
		}
		inItem, err := attributevalue.MarshalMap(in)
		if err != nil {
			return fmt.Errorf("graphstore: marshal edge in: %w", err)
		}
		items = append(items, putItem(s.tableName, outItem), putItem(s.tableName, inItem))
	}

	if len(items) == 0 {
		return nil
	}
	if len(items) > maxTransactItems {
		return kgerrors.Internal("CHUNK_TOO_LARGE", "chunk commit exceeds the transactional write item cap").
			WithDetails(fmt.Sprintf("%d items, cap %d", len(items), maxTransactItems)).Build()
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return kgerrors.Internal("CHUNK_COMMIT_FAILED", "transactional chunk commit failed").WithCause(err).Build()
	}
	return nil
}

func putItem(table string, item map[string]types.AttributeValue) types.TransactWriteItem {
	return types.TransactWriteItem{Put: &types.Put{TableName: aws.String(table), Item: item}}
}

// appearsInItem builds the APPEARS_IN row linking a Concept to the Source
// it was extracted from or re-matched against, written for both
// newly-created and matched concepts so every concept has at least one
// structural edge from the moment it is committed.
func appearsInItem(conceptSlug, sourceID string) struct{ PK, SK, EntityType, SourceID string } {
	return struct{ PK, SK, EntityType, SourceID string }{
		PK:         prefixConcept + conceptSlug,
		SK:         "APPEARS_IN#" + sourceID,
		EntityType: "APPEARS_IN",
		SourceID:   sourceID,
	}
}

// mergeEdgeConfidence implements §4.7 step 5.d: a semantic edge already
// present between the same (source, relation, target) is never downgraded
// by a later, lower-confidence re-extraction. Returns edge unchanged if no
// prior edge exists or the prior confidence was not higher.
func (s *GraphStore) mergeEdgeConfidence(ctx context.Context, edge entities.SemanticEdge) (entities.SemanticEdge, error) {
	pk, sk := outEdgeKey(edge.SourceConceptID, edge.RelationType, edge.TargetConceptID)
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(s.tableName), Key: keyAV(pk, sk)})
	if err != nil {
		return edge, fmt.Errorf("graphstore: get existing edge: %w", err)
	}
	if out.Item == nil {
		return edge, nil
	}
	var item ddbEdge
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return edge, fmt.Errorf("graphstore: unmarshal existing edge: %w", err)
	}
	existing, err := fromDDBEdge(item)
	if err != nil {
		return edge, fmt.Errorf("graphstore: reconstruct existing edge: %w", err)
	}
	if existing.Confidence.Value() > edge.Confidence.Value() {
		edge.Confidence = existing.Confidence
	}
	return edge, nil
}

func (s *GraphStore) GetConceptBySlug(ctx context.Context, slug string) (*entities.Concept, error) {
	pk, sk := conceptKey(slug)
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       keyAV(pk, sk),
	})
	if err != nil {
		return nil, fmt.Errorf("graphstore: get concept %s: %w", slug, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item ddbConcept
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("graphstore: unmarshal concept %s: %w", slug, err)
	}
	return fromDDBConcept(item)
}

// RecentConcepts queries the GSI1 ontology projection written alongside
// every concept touch in CommitChunk, descending by GSI1SK so the most
// recently updated concepts come first.
func (s *GraphStore) RecentConcepts(ctx context.Context, ontology string, limit int) ([]*entities.Concept, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: prefixOntology + ontology},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("graphstore: query recent concepts for %s: %w", ontology, err)
	}
	concepts := make([]*entities.Concept, 0, len(out.Items))
	for _, raw := range out.Items {
		var item ddbConcept
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		concept, err := fromDDBConcept(item)
		if err != nil {
			continue
		}
		concepts = append(concepts, concept)
	}
	return concepts, nil
}

func (s *GraphStore) ConceptDegree(ctx context.Context, slug string) (int, error) {
	pk := prefixConcept + slug
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :edge)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: pk},
			":edge": &types.AttributeValueMemberS{Value: "EDGE#"},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, fmt.Errorf("graphstore: degree of %s: %w", slug, err)
	}
	return int(out.Count), nil
}

// SemanticEdgesOf returns every outgoing and incoming semantic edge for a
// concept. Both directions are stored under its own PK, so this is a
// single-partition query.
func (s *GraphStore) SemanticEdgesOf(ctx context.Context, slug string) ([]entities.SemanticEdge, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :edge)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: prefixConcept + slug},
			":edge": &types.AttributeValueMemberS{Value: "EDGE#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("graphstore: semantic edges of %s: %w", slug, err)
	}
	edges := make([]entities.SemanticEdge, 0, len(out.Items))
	seen := map[string]bool{}
	for _, raw := range out.Items {
		var item ddbEdge
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		edge, err := fromDDBEdge(item)
		if err != nil {
			continue
		}
		key := edge.SourceConceptID + "|" + edge.RelationType + "|" + edge.TargetConceptID
		if seen[key] {
			continue
		}
		seen[key] = true
		edges = append(edges, edge)
	}
	return edges, nil
}

func (s *GraphStore) InstancesOf(ctx context.Context, slug string) ([]*entities.Instance, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: prefixConcept + slug},
			":prefix": &types.AttributeValueMemberS{Value: instanceOf},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("graphstore: instances of %s: %w", slug, err)
	}
	instances := make([]*entities.Instance, 0, len(out.Items))
	for _, raw := range out.Items {
		var item ddbInstance
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		instances = append(instances, fromDDBInstance(item))
	}
	return instances, nil
}

func (s *GraphStore) SourceByID(ctx context.Context, id valueobjects.SourceID) (*entities.Source, error) {
	pk, sk := sourceKey(id.String())
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(s.tableName), Key: keyAV(pk, sk)})
	if err != nil {
		return nil, fmt.Errorf("graphstore: get source %s: %w", id.String(), err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item ddbSource
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("graphstore: unmarshal source %s: %w", id.String(), err)
	}
	return fromDDBSource(item)
}

// Neighbors returns every concept reachable in one semantic-edge hop,
// merging the OUT and IN rows stored under slug's partition.
func (s *GraphStore) Neighbors(ctx context.Context, slug string) ([]ports.Neighbor, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :edge)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: prefixConcept + slug},
			":edge": &types.AttributeValueMemberS{Value: "EDGE#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("graphstore: neighbors of %s: %w", slug, err)
	}
	neighbors := make([]ports.Neighbor, 0, len(out.Items))
	for _, raw := range out.Items {
		var item ddbEdge
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		target := item.TargetSlug
		if item.TargetSlug == slug {
			target = item.SourceSlug
		}
		neighbors = append(neighbors, ports.Neighbor{ConceptSlug: target, RelationType: item.RelationType, Confidence: item.Confidence})
	}
	return neighbors, nil
}

// SubstringMatch scans for concepts whose label contains pattern.
// DynamoDB has no native substring index, so this falls back to a filtered
// Scan is the fallback for ad hoc queries
// its key schema cannot serve; callers are expected to use this sparingly.
func (s *GraphStore) SubstringMatch(ctx context.Context, pattern string, caseInsensitive bool, limit int) ([]*entities.Concept, error) {
	needle := pattern
	if caseInsensitive {
		needle = strings.ToLower(needle)
	}

	var concepts []*entities.Concept
	var exclusiveStart map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:              aws.String(s.tableName),
			FilterExpression:       aws.String("EntityType = :t"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t": &types.AttributeValueMemberS{Value: "CONCEPT"},
			},
			ExclusiveStartKey: exclusiveStart,
		})
		if err != nil {
			return nil, fmt.Errorf("graphstore: substring match scan: %w", err)
		}
		for _, raw := range out.Items {
			var item ddbConcept
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				continue
			}
			label := item.Label
			if caseInsensitive {
				label = strings.ToLower(label)
			}
			if !strings.Contains(label, needle) {
				continue
			}
			concept, err := fromDDBConcept(item)
			if err != nil {
				continue
			}
			concepts = append(concepts, concept)
			if len(concepts) >= limit {
				return concepts, nil
			}
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		exclusiveStart = out.LastEvaluatedKey
	}

	sort.Slice(concepts, func(i, j int) bool { return concepts[i].ConceptSlug() < concepts[j].ConceptSlug() })
	return concepts, nil
}

func (s *GraphStore) DocumentByHash(ctx context.Context, contentHash, ontology string) (*entities.DocumentMeta, error) {
	pk, sk := documentKey(contentHash, ontology)
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(s.tableName), Key: keyAV(pk, sk)})
	if err != nil {
		return nil, fmt.Errorf("graphstore: get document %s/%s: %w", contentHash, ontology, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item ddbDocument
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("graphstore: unmarshal document %s/%s: %w", contentHash, ontology, err)
	}
	return fromDDBDocumentMeta(item)
}

func (s *GraphStore) SaveDocument(ctx context.Context, doc *entities.DocumentMeta) error {
	item, err := attributevalue.MarshalMap(toDDBDocument(doc))
	if err != nil {
		return fmt.Errorf("graphstore: marshal document: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: item})
	if err != nil {
		return fmt.Errorf("graphstore: save document: %w", err)
	}
	return nil
}

func (s *GraphStore) VocabTypeByName(ctx context.Context, name string) (*entities.VocabType, error) {
	pk, sk := vocabTypeKey(entities.NormalizeVocabName(name))
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(s.tableName), Key: keyAV(pk, sk)})
	if err != nil {
		return nil, fmt.Errorf("graphstore: get vocab type %s: %w", name, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item ddbVocabType
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("graphstore: unmarshal vocab type %s: %w", name, err)
	}
	return fromDDBVocabType(item)
}

func (s *GraphStore) AllVocabTypes(ctx context.Context) ([]*entities.VocabType, error) {
	var types_ []*entities.VocabType
	var exclusiveStart map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(s.tableName),
			FilterExpression:         aws.String("EntityType = :t"),
			ExpressionAttributeValues: map[string]types.AttributeValue{":t": &types.AttributeValueMemberS{Value: "VOCABTYPE"}},
			ExclusiveStartKey:        exclusiveStart,
		})
		if err != nil {
			return nil, fmt.Errorf("graphstore: scan vocab types: %w", err)
		}
		for _, raw := range out.Items {
			var item ddbVocabType
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				continue
			}
			vt, err := fromDDBVocabType(item)
			if err != nil {
				continue
			}
			types_ = append(types_, vt)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		exclusiveStart = out.LastEvaluatedKey
	}
	return types_, nil
}

func (s *GraphStore) SaveVocabType(ctx context.Context, vt *entities.VocabType) error {
	item, err := attributevalue.MarshalMap(toDDBVocabType(vt))
	if err != nil {
		return fmt.Errorf("graphstore: marshal vocab type: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: item})
	if err != nil {
		return fmt.Errorf("graphstore: save vocab type: %w", err)
	}
	return nil
}

func keyAV(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}
