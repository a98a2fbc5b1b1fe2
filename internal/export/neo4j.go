package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
)

// Neo4jConfig holds connection parameters for a Neo4jSink.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// Neo4jSink writes property-graph tables directly into a Neo4j database, as
// an alternative to the flat CSV tables WriteCSVSet produces.
// It is optional: nothing in the core depends on it, and a pipeline run that
// never constructs one never touches the driver.
type Neo4jSink struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jSink opens a driver and verifies connectivity.
func NewNeo4jSink(ctx context.Context, cfg Neo4jConfig) (*Neo4jSink, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *config.Config) {
			c.MaxConnectionPoolSize = 50
			c.ConnectionAcquisitionTimeout = timeout
			c.SocketConnectTimeout = timeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("export: creating neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("export: verifying neo4j connectivity: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jSink{driver: driver, database: database}, nil
}

// Close releases the underlying driver.
func (s *Neo4jSink) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// Write loads every table of t into the database via batched UNWIND/MERGE
// statements, one ExecuteWrite transaction per table.
func (s *Neo4jSink) Write(ctx context.Context, t Tables) error {
	writers := []struct {
		name  string
		query string
		rows  [][]string
		toRow func([]string) map[string]any
	}{
		{"concepts", cypherMergeConcept, t.Concepts, conceptParams},
		{"mappings", cypherMergeMapping, t.Mappings, mappingParams},
		{"evidences", cypherMergeEvidence, t.Evidences, evidenceParams},
		{"mapping_sets", cypherMergeMappingSet, t.MappingSets, mappingSetParams},
		{"mapping_edges", cypherMergeMappingEdge, t.MappingEdges, mappingEdgeParams},
		{"evidence_edges", cypherMergeEvidenceEdge, t.EvidenceEdges, evidenceEdgeParams},
	}

	for _, w := range writers {
		if len(w.rows) == 0 {
			continue
		}
		rows := make([]any, len(w.rows))
		for i, r := range w.rows {
			rows[i] = w.toRow(r)
		}
		if err := s.execute(ctx, w.query, rows); err != nil {
			return fmt.Errorf("export: loading %s into neo4j: %w", w.name, err)
		}
	}
	return nil
}

func (s *Neo4jSink) execute(ctx context.Context, query string, rows []any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: neo4j.AccessModeWrite})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		return nil, err
	})
	return err
}

const (
	cypherMergeConcept = `
UNWIND $rows AS row
MERGE (c:Concept {id: row.id})
SET c.prefix = row.prefix, c.identifier = row.identifier, c.name = row.name`

	cypherMergeMapping = `
UNWIND $rows AS row
MERGE (m:Mapping {id: row.id})
SET m.subject_id = row.subject_id, m.predicate_id = row.predicate_id, m.object_id = row.object_id
WITH m, row
MATCH (s:Concept {id: row.subject_id}), (p:Concept {id: row.predicate_id}), (o:Concept {id: row.object_id})
MERGE (m)-[:SUBJECT]->(s)
MERGE (m)-[:PREDICATE]->(p)
MERGE (m)-[:OBJECT]->(o)`

	cypherMergeEvidence = `
UNWIND $rows AS row
MERGE (e:Evidence {id: row.id})
SET e.kind = row.kind, e.justification_id = row.justification_id, e.confidence = row.confidence`

	cypherMergeMappingSet = `
UNWIND $rows AS row
MERGE (ms:MappingSet {id: row.id})
SET ms.name = row.name, ms.version = row.version, ms.license = row.license`

	cypherMergeMappingEdge = `
UNWIND $rows AS row
MATCH (m:Mapping {id: row.mapping_id}), (c:Concept {id: row.reference_id})
MERGE (m)-[:HAS_ROLE {role: row.role}]->(c)`

	cypherMergeEvidenceEdge = `
UNWIND $rows AS row
MATCH (e:Evidence {id: row.evidence_id})
OPTIONAL MATCH (m:Mapping {id: row.target_id})
OPTIONAL MATCH (ms:MappingSet {id: row.target_id})
OPTIONAL MATCH (c:Concept {id: row.target_id})
FOREACH (_ IN CASE WHEN m IS NOT NULL THEN [1] ELSE [] END | MERGE (e)-[:FOR_MAPPING]->(m))
FOREACH (_ IN CASE WHEN row.role = 'mapping_set' AND ms IS NOT NULL THEN [1] ELSE [] END | MERGE (e)-[:FROM_SET]->(ms))
FOREACH (_ IN CASE WHEN row.role = 'author' AND c IS NOT NULL THEN [1] ELSE [] END | MERGE (e)-[:AUTHORED_BY]->(c))`
)

func conceptParams(r []string) map[string]any {
	return map[string]any{"id": r[0], "prefix": r[1], "identifier": r[2], "name": r[3]}
}

func mappingParams(r []string) map[string]any {
	return map[string]any{"id": r[0], "subject_id": r[1], "predicate_id": r[2], "object_id": r[3]}
}

func evidenceParams(r []string) map[string]any {
	confidence, _ := strconv.ParseFloat(r[3], 64)
	return map[string]any{"id": r[0], "kind": r[1], "justification_id": r[2], "confidence": confidence}
}

func mappingSetParams(r []string) map[string]any {
	return map[string]any{"id": r[0], "name": r[1], "version": r[2], "license": r[3]}
}

func mappingEdgeParams(r []string) map[string]any {
	return map[string]any{"mapping_id": r[0], "role": r[1], "reference_id": r[2]}
}

func evidenceEdgeParams(r []string) map[string]any {
	return map[string]any{"evidence_id": r[0], "role": r[1], "target_id": r[2]}
}
