package dynamodb

import (
	"fmt"
	"strings"
	"time"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/domain/valueobjects"
)

// Single-table key prefixes using a PK/SK composition style
// common to single-table DynamoDB designs.
const (
	prefixConcept     = "CONCEPT#"
	prefixSource      = "SOURCE#"
	prefixInstance    = "INSTANCE#"
	prefixDocument    = "DOCUMENT#"
	prefixVocabType   = "VOCABTYPE#"
	prefixJob         = "JOB#"
	prefixOntology    = "ONTOLOGY#"
	prefixStatus      = "STATUS#"
	prefixContentHash = "CONTENTHASH#"
	edgeOut           = "EDGE#OUT#"
	edgeIn            = "EDGE#IN#"
	instanceOf        = "INSTANCEOF#"
)

// ddbConcept is the item shape for a Concept aggregate.
type ddbConcept struct {
	PK                string    `dynamodbav:"PK"`
	SK                string    `dynamodbav:"SK"`
	EntityType        string    `dynamodbav:"EntityType"`
	Slug              string    `dynamodbav:"Slug"`
	Label             string    `dynamodbav:"Label"`
	SearchTerms       []string  `dynamodbav:"SearchTerms"`
	Embedding         []float64 `dynamodbav:"Embedding"`
	GroundingStrength *float64  `dynamodbav:"GroundingStrength,omitempty"`
	Version           int       `dynamodbav:"Version"`
	CreatedAt         string    `dynamodbav:"CreatedAt"`
	UpdatedAt         string    `dynamodbav:"UpdatedAt"`
	GSI1PK            string    `dynamodbav:"GSI1PK,omitempty"` // ONTOLOGY#<ontology>
	GSI1SK            string    `dynamodbav:"GSI1SK,omitempty"` // CONCEPT#<updatedAt>#<slug>
}

func conceptKey(slug string) (string, string) {
	return prefixConcept + slug, prefixConcept + slug
}

func toDDBConcept(c *entities.Concept, ontology string) ddbConcept {
	pk, sk := conceptKey(c.ConceptSlug())
	grounding, _ := c.GroundingStrength()
	var groundingPtr *float64
	if _, ok := c.GroundingStrength(); ok {
		groundingPtr = &grounding
	}
	embedding := make([]float64, 0, len(c.Embedding().Values()))
	for _, v := range c.Embedding().Values() {
		embedding = append(embedding, float64(v))
	}
	item := ddbConcept{
		PK:                pk,
		SK:                sk,
		EntityType:        "CONCEPT",
		Slug:              c.ConceptSlug(),
		Label:             c.Label(),
		SearchTerms:       c.SearchTerms(),
		Embedding:         embedding,
		GroundingStrength: groundingPtr,
		Version:           c.Version(),
		CreatedAt:         c.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:         c.UpdatedAt().Format(time.RFC3339Nano),
	}
	if ontology != "" {
		item.GSI1PK = prefixOntology + ontology
		item.GSI1SK = fmt.Sprintf("%s%s#%s", prefixConcept, item.UpdatedAt, c.ConceptSlug())
	}
	return item
}

func fromDDBConcept(item ddbConcept) (*entities.Concept, error) {
	values := make([]float32, len(item.Embedding))
	for i, v := range item.Embedding {
		values[i] = float32(v)
	}
	embedding, err := valueobjects.NewEmbedding(values, len(values))
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructConcept(item.Slug, item.Label, item.SearchTerms, embedding, item.GroundingStrength, createdAt, updatedAt, item.Version)
}

// ddbSource is the item shape for a Source (one chunk of an ingested document).
type ddbSource struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	EntityType      string `dynamodbav:"EntityType"`
	SourceID        string `dynamodbav:"SourceID"`
	Document        string `dynamodbav:"Document"`
	FilePath        string `dynamodbav:"FilePath"`
	FullText        string `dynamodbav:"FullText"`
	CharOffsetStart int    `dynamodbav:"CharOffsetStart"`
	CharOffsetEnd   int    `dynamodbav:"CharOffsetEnd"`
	LineStart       int    `dynamodbav:"LineStart"`
	LineEnd         int    `dynamodbav:"LineEnd"`
	ChunkIndex      int    `dynamodbav:"ChunkIndex"`
	ChunkMethod     string `dynamodbav:"ChunkMethod"`
	OverlapChars    int    `dynamodbav:"OverlapChars"`
	ContentHash     string `dynamodbav:"ContentHash"`
	DocumentID      string `dynamodbav:"DocumentID"`
	CreatedAt       string `dynamodbav:"CreatedAt"`
}

func sourceKey(id string) (string, string) {
	return prefixSource + id, prefixSource + id
}

func toDDBSource(s *entities.Source) ddbSource {
	pk, sk := sourceKey(s.ID().String())
	return ddbSource{
		PK: pk, SK: sk, EntityType: "SOURCE",
		SourceID:        s.ID().String(),
		Document:        s.Document(),
		FilePath:        s.FilePath(),
		FullText:        s.FullText(),
		CharOffsetStart: s.CharOffsetStart(),
		CharOffsetEnd:   s.CharOffsetEnd(),
		LineStart:       s.LineStart(),
		LineEnd:         s.LineEnd(),
		ChunkIndex:      s.ChunkIndex(),
		ChunkMethod:     string(s.ChunkMethod()),
		OverlapChars:    s.OverlapChars(),
		ContentHash:     s.ContentHash(),
		DocumentID:      s.DocumentID().String(),
		CreatedAt:       s.CreatedAt().Format(time.RFC3339Nano),
	}
}

func fromDDBSource(item ddbSource) (*entities.Source, error) {
	docID, err := valueobjects.ParseDocumentID(item.DocumentID)
	if err != nil {
		docID = valueobjects.DocumentID{}
	}
	return entities.NewSource(entities.NewSourceParams{
		// NewSource re-derives the id via SourceIDFor(filename, chunk), so
		// strip the stored id's chunk suffix to rebuild the same id.
		Filename:        strings.TrimSuffix(item.SourceID, fmt.Sprintf("_chunk%d", item.ChunkIndex)),
		Document:        item.Document,
		FilePath:        item.FilePath,
		FullText:        item.FullText,
		CharOffsetStart: item.CharOffsetStart,
		CharOffsetEnd:   item.CharOffsetEnd,
		LineStart:       item.LineStart,
		LineEnd:         item.LineEnd,
		ChunkIndex:      item.ChunkIndex,
		ChunkMethod:     entities.ChunkMethod(item.ChunkMethod),
		OverlapChars:    item.OverlapChars,
		ContentHash:     item.ContentHash,
		DocumentID:      docID,
	})
}

// ddbInstance is the item shape for an Instance (evidence quote).
type ddbInstance struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	InstanceID  string `dynamodbav:"InstanceID"`
	SourceID    string `dynamodbav:"SourceID"`
	Quote       string `dynamodbav:"Quote"`
	ConceptSlug string `dynamodbav:"ConceptSlug"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

func instanceOfKey(conceptSlug, instanceID string) (string, string) {
	return prefixConcept + conceptSlug, instanceOf + instanceID
}

func toDDBInstance(i *entities.Instance, conceptSlug string) ddbInstance {
	pk, sk := instanceOfKey(conceptSlug, i.ID().String())
	return ddbInstance{
		PK: pk, SK: sk, EntityType: "INSTANCE",
		InstanceID:  i.ID().String(),
		SourceID:    i.SourceID().String(),
		Quote:       i.Quote(),
		ConceptSlug: conceptSlug,
		CreatedAt:   i.CreatedAt().Format(time.RFC3339Nano),
	}
}

func fromDDBInstance(item ddbInstance) *entities.Instance {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	instanceID, _ := valueobjects.ParseInstanceID(item.InstanceID)
	sourceID, _ := valueobjects.ParseSourceID(item.SourceID)
	return entities.ReconstructInstance(instanceID, sourceID, item.Quote, createdAt)
}

// ddbEdge is the item shape for one direction of a semantic edge. Each
// SemanticEdge is stored twice (outgoing under the source concept,
// incoming under the target concept) so SemanticEdgesOf and Neighbors are
// both single-partition queries, a common trade-off for bidirectional
// edge lookups in single-table DynamoDB designs.
type ddbEdge struct {
	PK           string  `dynamodbav:"PK"`
	SK           string  `dynamodbav:"SK"`
	EntityType   string  `dynamodbav:"EntityType"`
	SourceSlug   string  `dynamodbav:"SourceSlug"`
	TargetSlug   string  `dynamodbav:"TargetSlug"`
	RelationType string  `dynamodbav:"RelationType"`
	Confidence   float64 `dynamodbav:"Confidence"`
	InstanceID   string  `dynamodbav:"InstanceID"`
}

func outEdgeKey(sourceSlug, relationType, targetSlug string) (string, string) {
	return prefixConcept + sourceSlug, fmt.Sprintf("%s%s#%s", edgeOut, relationType, targetSlug)
}

func inEdgeKey(targetSlug, relationType, sourceSlug string) (string, string) {
	return prefixConcept + targetSlug, fmt.Sprintf("%s%s#%s", edgeIn, relationType, sourceSlug)
}

func toDDBEdgePair(e entities.SemanticEdge) (ddbEdge, ddbEdge) {
	outPK, outSK := outEdgeKey(e.SourceConceptID, e.RelationType, e.TargetConceptID)
	inPK, inSK := inEdgeKey(e.TargetConceptID, e.RelationType, e.SourceConceptID)
	base := ddbEdge{
		EntityType:   "EDGE",
		SourceSlug:   e.SourceConceptID,
		TargetSlug:   e.TargetConceptID,
		RelationType: e.RelationType,
		Confidence:   e.Confidence.Value(),
		InstanceID:   e.InstanceID.String(),
	}
	out := base
	out.PK, out.SK = outPK, outSK
	in := base
	in.PK, in.SK = inPK, inSK
	return out, in
}

func fromDDBEdge(item ddbEdge) (entities.SemanticEdge, error) {
	instanceID, _ := valueobjects.ParseInstanceID(item.InstanceID)
	confidence, err := valueobjects.NewConfidence(item.Confidence)
	if err != nil {
		return entities.SemanticEdge{}, err
	}
	return entities.NewSemanticEdge(item.SourceSlug, item.TargetSlug, item.RelationType, confidence, instanceID)
}

// ddbDocument is the item shape for a DocumentMeta row.
type ddbDocument struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	ContentHash  string `dynamodbav:"ContentHash"`
	Ontology     string `dynamodbav:"Ontology"`
	Filename     string `dynamodbav:"Filename"`
	SourceType   string `dynamodbav:"SourceType"`
	SourcePath   string `dynamodbav:"SourcePath"`
	Hostname     string `dynamodbav:"Hostname"`
	IngestedAt   string `dynamodbav:"IngestedAt"`
	IngestedBy   string `dynamodbav:"IngestedBy"`
	JobID        string `dynamodbav:"JobID"`
	SourceCount  int    `dynamodbav:"SourceCount"`
	Version      int    `dynamodbav:"Version"`
	Supersedes   string `dynamodbav:"Supersedes,omitempty"`
	SupersededBy string `dynamodbav:"SupersededBy,omitempty"`
}

func documentKey(contentHash, ontology string) (string, string) {
	k := prefixDocument + contentHash + "#" + ontology
	return k, k
}

func toDDBDocument(d *entities.DocumentMeta) ddbDocument {
	pk, sk := documentKey(d.ID().String(), d.Ontology())
	item := ddbDocument{
		PK: pk, SK: sk, EntityType: "DOCUMENT",
		ContentHash: d.ID().String(),
		Ontology:    d.Ontology(),
		Filename:    d.Filename(),
		SourceType:  string(d.SourceType()),
		SourcePath:  d.SourcePath(),
		Hostname:    d.Hostname(),
		IngestedAt:  d.IngestedAt().Format(time.RFC3339Nano),
		IngestedBy:  d.IngestedBy(),
		JobID:       d.JobID().String(),
		SourceCount: d.SourceCount(),
		Version:     d.Version(),
	}
	if s, ok := d.Supersedes(); ok {
		item.Supersedes = s
	}
	if s, ok := d.SupersededBy(); ok {
		item.SupersededBy = s
	}
	return item
}

func fromDDBDocumentMeta(item ddbDocument) (*entities.DocumentMeta, error) {
	ingestedAt, err := time.Parse(time.RFC3339Nano, item.IngestedAt)
	if err != nil {
		return nil, err
	}
	jobID, err := valueobjects.ParseJobID(item.JobID)
	if err != nil {
		jobID = valueobjects.JobID{}
	}
	var supersedes, supersededBy *string
	if item.Supersedes != "" {
		supersedes = &item.Supersedes
	}
	if item.SupersededBy != "" {
		supersededBy = &item.SupersededBy
	}
	return entities.ReconstructDocumentMeta(
		item.ContentHash, item.Ontology, item.Filename,
		entities.SourceType(item.SourceType),
		item.SourcePath, item.Hostname,
		ingestedAt, item.IngestedBy, jobID,
		item.SourceCount, item.Version,
		supersedes, supersededBy,
	)
}

// ddbVocabType is the item shape for a registered relationship type.
type ddbVocabType struct {
	PK            string    `dynamodbav:"PK"`
	SK            string    `dynamodbav:"SK"`
	EntityType    string    `dynamodbav:"EntityType"`
	Name          string    `dynamodbav:"Name"`
	Embedding     []float64 `dynamodbav:"Embedding"`
	Synonyms      []string  `dynamodbav:"Synonyms"`
	UsageCount    int       `dynamodbav:"UsageCount,omitempty"`
	AvgConfidence float64   `dynamodbav:"AvgConfidence,omitempty"`
	HasStats      bool      `dynamodbav:"HasStats"`
}

func vocabTypeKey(name string) (string, string) {
	return prefixVocabType + name, prefixVocabType + name
}

func toDDBVocabType(v *entities.VocabType) ddbVocabType {
	pk, sk := vocabTypeKey(v.Name())
	embedding := make([]float64, 0, len(v.Embedding().Values()))
	for _, f := range v.Embedding().Values() {
		embedding = append(embedding, float64(f))
	}
	item := ddbVocabType{
		PK: pk, SK: sk, EntityType: "VOCABTYPE",
		Name:      v.Name(),
		Embedding: embedding,
		Synonyms:  v.Synonyms(),
	}
	if usage, avg, ok := v.CachedStats(); ok {
		item.UsageCount, item.AvgConfidence, item.HasStats = usage, avg, true
	}
	return item
}

func fromDDBVocabType(item ddbVocabType) (*entities.VocabType, error) {
	values := make([]float32, len(item.Embedding))
	for i, f := range item.Embedding {
		values[i] = float32(f)
	}
	embedding, err := valueobjects.NewEmbedding(values, len(values))
	if err != nil {
		return nil, err
	}
	vt, err := entities.NewVocabType(item.Name, embedding, item.Synonyms)
	if err != nil {
		return nil, err
	}
	if item.HasStats {
		vt.RefreshCachedStats(item.UsageCount, item.AvgConfidence)
	}
	return vt, nil
}

// ddbProgressSnapshot mirrors ports.ProgressSnapshot for item storage.
type ddbProgressSnapshot struct {
	ChunkIndex int    `dynamodbav:"ChunkIndex"`
	At         string `dynamodbav:"At"`
}

// ddbJob is the item shape for a JobRecord.
type ddbJob struct {
	PK               string                `dynamodbav:"PK"`
	SK               string                `dynamodbav:"SK"`
	EntityType       string                `dynamodbav:"EntityType"`
	JobID            string                `dynamodbav:"JobID"`
	Status           string                `dynamodbav:"Status"`
	Type             string                `dynamodbav:"Type"`
	ContentHash      string                `dynamodbav:"ContentHash"`
	Ontology         string                `dynamodbav:"Ontology"`
	Filename         string                `dynamodbav:"Filename,omitempty"`
	SourceType       string                `dynamodbav:"SourceType,omitempty"`
	SourcePath       string                `dynamodbav:"SourcePath,omitempty"`
	SourceHostname   string                `dynamodbav:"SourceHostname,omitempty"`
	ResumeFromChunk  int                   `dynamodbav:"ResumeFromChunk"`
	ChunksTotal      int                   `dynamodbav:"ChunksTotal"`
	AccumulatedStats map[string]int        `dynamodbav:"AccumulatedStats"`
	RecentConceptIDs []string              `dynamodbav:"RecentConceptIDs"`
	Analysis         map[string]string     `dynamodbav:"Analysis"`
	Progress         []ddbProgressSnapshot `dynamodbav:"Progress"`
	AutoApprove      bool                  `dynamodbav:"AutoApprove"`
	TargetWords        int                 `dynamodbav:"TargetWords,omitempty"`
	MinWords           int                 `dynamodbav:"MinWords,omitempty"`
	MaxWords           int                 `dynamodbav:"MaxWords,omitempty"`
	OverlapWords       int                 `dynamodbav:"OverlapWords,omitempty"`
	CheckpointInterval int                 `dynamodbav:"CheckpointInterval,omitempty"`
	ProcessingMode     string              `dynamodbav:"ProcessingMode,omitempty"`
	CreatedAt        string                `dynamodbav:"CreatedAt"`
	ApprovedAt       string                `dynamodbav:"ApprovedAt,omitempty"`
	ExpiresAt        string                `dynamodbav:"ExpiresAt,omitempty"`
	CompletedAt      string                `dynamodbav:"CompletedAt,omitempty"`
	Error            string                `dynamodbav:"Error,omitempty"`
	Version          int                   `dynamodbav:"Version"`
	GSI1PK           string                `dynamodbav:"GSI1PK"` // STATUS#<status>
	GSI1SK           string                `dynamodbav:"GSI1SK"` // <createdAt>#<jobID>
	GSI2PK           string                `dynamodbav:"GSI2PK"` // CONTENTHASH#<contentHash>#<ontology>
	GSI2SK           string                `dynamodbav:"GSI2SK"` // JOB#<jobID>
}

func jobKey(jobID string) (string, string) {
	return prefixJob + jobID, prefixJob + jobID
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseOptionalTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

func toDDBJob(j *ports.JobRecord) ddbJob {
	pk, sk := jobKey(j.JobID)
	analysis := make(map[string]string, len(j.Analysis))
	for k, v := range j.Analysis {
		analysis[k] = fmt.Sprintf("%v", v)
	}
	progress := make([]ddbProgressSnapshot, 0, len(j.Progress))
	for _, p := range j.Progress {
		progress = append(progress, ddbProgressSnapshot{ChunkIndex: p.ChunkIndex, At: p.At.Format(time.RFC3339Nano)})
	}
	return ddbJob{
		PK: pk, SK: sk, EntityType: "JOB",
		JobID:              j.JobID,
		Status:             j.Status,
		Type:               j.Type,
		ContentHash:        j.ContentHash,
		Ontology:           j.Ontology,
		Filename:           j.Filename,
		SourceType:         j.SourceType,
		SourcePath:         j.SourcePath,
		SourceHostname:     j.SourceHostname,
		ResumeFromChunk:    j.ResumeFromChunk,
		ChunksTotal:        j.ChunksTotal,
		AccumulatedStats:   j.AccumulatedStats,
		RecentConceptIDs:   j.RecentConceptIDs,
		Analysis:           analysis,
		Progress:           progress,
		AutoApprove:        j.AutoApprove,
		TargetWords:        j.TargetWords,
		MinWords:           j.MinWords,
		MaxWords:           j.MaxWords,
		OverlapWords:       j.OverlapWords,
		CheckpointInterval: j.CheckpointInterval,
		ProcessingMode:     j.ProcessingMode,
		CreatedAt:        j.CreatedAt.Format(time.RFC3339Nano),
		ApprovedAt:       optionalTime(j.ApprovedAt),
		ExpiresAt:        optionalTime(j.ExpiresAt),
		CompletedAt:      optionalTime(j.CompletedAt),
		Error:            j.Error,
		Version:          j.Version,
		GSI1PK:           prefixStatus + j.Status,
		GSI1SK:           j.CreatedAt.Format(time.RFC3339Nano) + "#" + j.JobID,
		GSI2PK:           prefixContentHash + j.ContentHash + "#" + j.Ontology,
		GSI2SK:           prefixJob + j.JobID,
	}
}

func fromDDBJob(item ddbJob) *ports.JobRecord {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	analysis := make(map[string]interface{}, len(item.Analysis))
	for k, v := range item.Analysis {
		analysis[k] = v
	}
	progress := make([]ports.ProgressSnapshot, 0, len(item.Progress))
	for _, p := range item.Progress {
		at, _ := time.Parse(time.RFC3339Nano, p.At)
		progress = append(progress, ports.ProgressSnapshot{ChunkIndex: p.ChunkIndex, At: at})
	}
	return &ports.JobRecord{
		JobID:              item.JobID,
		Status:             item.Status,
		Type:               item.Type,
		ContentHash:        item.ContentHash,
		Ontology:           item.Ontology,
		Filename:           item.Filename,
		SourceType:         item.SourceType,
		SourcePath:         item.SourcePath,
		SourceHostname:     item.SourceHostname,
		ResumeFromChunk:    item.ResumeFromChunk,
		ChunksTotal:        item.ChunksTotal,
		AccumulatedStats:   item.AccumulatedStats,
		RecentConceptIDs:   item.RecentConceptIDs,
		Analysis:           analysis,
		AutoApprove:        item.AutoApprove,
		TargetWords:        item.TargetWords,
		MinWords:           item.MinWords,
		MaxWords:           item.MaxWords,
		OverlapWords:       item.OverlapWords,
		CheckpointInterval: item.CheckpointInterval,
		ProcessingMode:     item.ProcessingMode,
		CreatedAt:        createdAt,
		ApprovedAt:       parseOptionalTime(item.ApprovedAt),
		ExpiresAt:        parseOptionalTime(item.ExpiresAt),
		CompletedAt:      parseOptionalTime(item.CompletedAt),
		Error:            item.Error,
		Progress:         progress,
		Version:          item.Version,
	}
}
