package repositories

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/latticeforge/kernel/internal/domain/network"
	infraNeo4j "github.com/latticeforge/kernel/internal/infrastructure/database/neo4j"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/pkg/errors"
)

// NetworkGraphRepository mirrors live node networks into Neo4j as a property
// graph (spec.md §6-EXP "node-network DAG mirror"), so that wire topology can
// be queried with graph algorithms the evaluator itself never needs: shortest
// path between two nodes, everything upstream/downstream of a node, and
// full-text lookup over node names.
type NetworkGraphRepository interface {
	MirrorNetwork(ctx context.Context, net *network.NodeNetwork) error
	DeleteNetwork(ctx context.Context, name string) error
	GetUpstreamNodes(ctx context.Context, networkName string, nodeID uint64, depth int) (*Subgraph, error)
	GetDownstreamNodes(ctx context.Context, networkName string, nodeID uint64, depth int) (*Subgraph, error)
	FindNodePath(ctx context.Context, networkName string, fromID, toID uint64) (*GraphPath, error)
	GetNetworkStats(ctx context.Context, networkName string) (*GraphStats, error)
	FullTextSearchNodes(ctx context.Context, query string, limit int) ([]*GraphNode, error)
	EnsureIndexes(ctx context.Context) error
	EnsureConstraints(ctx context.Context) error
}

type neo4jNetworkGraphRepo struct {
	driver *infraNeo4j.Driver
	log    logging.Logger
}

func NewNeo4jNetworkGraphRepo(driver *infraNeo4j.Driver, log logging.Logger) NetworkGraphRepository {
	return &neo4jNetworkGraphRepo{driver: driver, log: log}
}

// GraphNode is a :Node vertex: one evaluator node within one network.
type GraphNode struct {
	ID         string                 `json:"id"`
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"properties"`
	Score      float64                `json:"score,omitempty"`
}

// Relation is a :WIRE edge: argName/pin identify which parameter of the
// destination node the source node's output feeds.
type Relation struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	FromNodeID string                 `json:"from_node_id"`
	ToNodeID   string                 `json:"to_node_id"`
	Properties map[string]interface{} `json:"properties"`
}

type Subgraph struct {
	Nodes        []*GraphNode `json:"nodes"`
	Relations    []*Relation  `json:"relations"`
	CenterNodeID string       `json:"center_node_id"`
	Depth        int          `json:"depth"`
}

type GraphPath struct {
	Nodes     []*GraphNode `json:"nodes"`
	Relations []*Relation  `json:"relations"`
	Length    int          `json:"length"`
}

type GraphStats struct {
	TotalNodes     int64    `json:"total_nodes"`
	TotalRelations int64    `json:"total_relations"`
	Labels         []string `json:"labels"`
	RelationTypes  []string `json:"relation_types"`
}

func nodeKey(networkName string, id uint64) string {
	return fmt.Sprintf("%s:%d", networkName, id)
}

// MirrorNetwork replaces the graph's view of networkName with net's current
// node/wire topology. It is called after every mutating evaluator operation
// that the project service commits.
func (r *neo4jNetworkGraphRepo) MirrorNetwork(ctx context.Context, net *network.NodeNetwork) error {
	nodes := make([]map[string]any, 0, len(net.Nodes))
	for id, node := range net.Nodes {
		name := node.NodeTypeName
		if node.CustomName != nil {
			name = *node.CustomName
		}
		nodes = append(nodes, map[string]any{
			"key":       nodeKey(net.Name, id),
			"id":        int64(id),
			"network":   net.Name,
			"type_name": node.NodeTypeName,
			"name":      name,
			"x":         node.Position.X,
			"y":         node.Position.Y,
		})
	}

	var wires []map[string]any
	for id, node := range net.Nodes {
		for argIdx, arg := range node.Arguments {
			for _, entry := range arg.Entries {
				wires = append(wires, map[string]any{
					"from": nodeKey(net.Name, entry.SourceNodeID),
					"to":   nodeKey(net.Name, id),
					"pin":  int64(entry.OutputPin),
					"arg":  argIdx,
				})
			}
		}
	}

	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		if _, err := tx.Run(ctx,
			`MATCH (n:Node {network: $network}) DETACH DELETE n`,
			map[string]any{"network": net.Name}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx,
			`UNWIND $nodes AS props CREATE (n:Node) SET n = props`,
			map[string]any{"nodes": nodes}); err != nil {
			return nil, err
		}
		if len(wires) > 0 {
			if _, err := tx.Run(ctx, `
				UNWIND $wires AS w
				MATCH (s:Node {key: w.from}), (d:Node {key: w.to})
				CREATE (s)-[:WIRE {pin: w.pin, arg: w.arg}]->(d)
			`, map[string]any{"wires": wires}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (r *neo4jNetworkGraphRepo) DeleteNetwork(ctx context.Context, name string) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		return tx.Run(ctx, `MATCH (n:Node {network: $network}) DETACH DELETE n`, map[string]any{"network": name})
	})
	return err
}

func (r *neo4jNetworkGraphRepo) GetUpstreamNodes(ctx context.Context, networkName string, nodeID uint64, depth int) (*Subgraph, error) {
	return r.traverse(ctx, networkName, nodeID, depth, "<-[:WIRE*1..%d]-")
}

func (r *neo4jNetworkGraphRepo) GetDownstreamNodes(ctx context.Context, networkName string, nodeID uint64, depth int) (*Subgraph, error) {
	return r.traverse(ctx, networkName, nodeID, depth, "-[:WIRE*1..%d]->")
}

func (r *neo4jNetworkGraphRepo) traverse(ctx context.Context, networkName string, nodeID uint64, depth int, dirPattern string) (*Subgraph, error) {
	if depth <= 0 || depth > 20 {
		return nil, errors.New(errors.CodeInvalidParam, "depth must be between 1 and 20")
	}
	query := fmt.Sprintf(`
		MATCH (center:Node {key: $key})
		OPTIONAL MATCH path = (center)%s(n)
		WITH center, collect(DISTINCT n) AS neighbors, collect(DISTINCT relationships(path)) AS relLists
		RETURN center, neighbors, relLists
	`, fmt.Sprintf(dirPattern, depth))

	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"key": nodeKey(networkName, nodeID)})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.ExtractSingleRecord(ctx, result, func(rec *neo4j.Record) (*Subgraph, error) {
			sg := &Subgraph{CenterNodeID: fmt.Sprintf("%d", nodeID), Depth: depth}
			if centerVal, ok := rec.Get("center"); ok {
				sg.Nodes = append(sg.Nodes, mapNeo4jNode(centerVal.(neo4j.Node)))
			}
			if neighborsVal, _ := rec.Get("neighbors"); neighborsVal != nil {
				for _, n := range neighborsVal.([]any) {
					if node, ok := n.(neo4j.Node); ok {
						sg.Nodes = append(sg.Nodes, mapNeo4jNode(node))
					}
				}
			}
			if relListsVal, _ := rec.Get("relLists"); relListsVal != nil {
				for _, relList := range relListsVal.([]any) {
					for _, rel := range relList.([]any) {
						sg.Relations = append(sg.Relations, mapNeo4jRel(rel.(neo4j.Relationship)))
					}
				}
			}
			return sg, nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "graph traversal failed")
	}
	return res.(*Subgraph), nil
}

func (r *neo4jNetworkGraphRepo) FindNodePath(ctx context.Context, networkName string, fromID, toID uint64) (*GraphPath, error) {
	query := `
		MATCH (a:Node {key: $from}), (b:Node {key: $to})
		MATCH path = shortestPath((a)-[:WIRE*]-(b))
		RETURN path
	`
	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{
			"from": nodeKey(networkName, fromID),
			"to":   nodeKey(networkName, toID),
		})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.ExtractSingleRecord(ctx, result, func(rec *neo4j.Record) (*GraphPath, error) {
			pathVal, _ := rec.Get("path")
			return mapNeo4jPathToGraphPath(pathVal.(neo4j.Path)), nil
		})
	})
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "path query failed")
	}
	return res.(*GraphPath), nil
}

func (r *neo4jNetworkGraphRepo) GetNetworkStats(ctx context.Context, networkName string) (*GraphStats, error) {
	query := `
		MATCH (n:Node {network: $network})
		OPTIONAL MATCH (n)-[w:WIRE]->()
		RETURN count(DISTINCT n) AS nodeCount, count(w) AS wireCount
	`
	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"network": networkName})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.ExtractSingleRecord(ctx, result, func(rec *neo4j.Record) (*GraphStats, error) {
			nodeCount, _ := rec.Get("nodeCount")
			wireCount, _ := rec.Get("wireCount")
			return &GraphStats{
				TotalNodes:     nodeCount.(int64),
				TotalRelations: wireCount.(int64),
				Labels:         []string{"Node"},
				RelationTypes:  []string{"WIRE"},
			}, nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "stats query failed")
	}
	return res.(*GraphStats), nil
}

// FullTextSearchNodes queries the node_name_fts full-text index created by
// EnsureIndexes, complementing the OpenSearch node-name index with a
// graph-local lookup usable inside Cypher traversals.
func (r *neo4jNetworkGraphRepo) FullTextSearchNodes(ctx context.Context, query string, limit int) ([]*GraphNode, error) {
	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, `
			CALL db.index.fulltext.queryNodes("node_name_fts", $query) YIELD node, score
			RETURN node, score LIMIT $limit
		`, map[string]any{"query": query, "limit": limit})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.CollectRecords(ctx, result, func(rec *neo4j.Record) (*GraphNode, error) {
			nodeVal, _ := rec.Get("node")
			scoreVal, _ := rec.Get("score")
			gn := mapNeo4jNode(nodeVal.(neo4j.Node))
			gn.Score, _ = scoreVal.(float64)
			return gn, nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "full-text search failed")
	}
	return res.([]*GraphNode), nil
}

func (r *neo4jNetworkGraphRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		if _, err := tx.Run(ctx,
			`CREATE FULLTEXT INDEX node_name_fts IF NOT EXISTS FOR (n:Node) ON EACH [n.name, n.type_name]`,
			nil); err != nil {
			return nil, err
		}
		return tx.Run(ctx, `CREATE INDEX node_network_idx IF NOT EXISTS FOR (n:Node) ON (n.network)`, nil)
	})
	return err
}

func (r *neo4jNetworkGraphRepo) EnsureConstraints(ctx context.Context) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		return tx.Run(ctx,
			`CREATE CONSTRAINT node_key_unique IF NOT EXISTS FOR (n:Node) REQUIRE n.key IS UNIQUE`, nil)
	})
	return err
}

func mapNeo4jNode(n neo4j.Node) *GraphNode {
	id := fmt.Sprintf("%d", n.GetId())
	if v, ok := n.Props["id"]; ok {
		id = fmt.Sprintf("%v", v)
	}
	return &GraphNode{
		ID:         id,
		Labels:     n.Labels,
		Properties: n.Props,
	}
}

func mapNeo4jRel(rel neo4j.Relationship) *Relation {
	return &Relation{
		ID:         fmt.Sprintf("%d", rel.GetId()),
		Type:       rel.Type,
		Properties: rel.Props,
		FromNodeID: fmt.Sprintf("%d", rel.StartId),
		ToNodeID:   fmt.Sprintf("%d", rel.EndId),
	}
}

func mapNeo4jPathToGraphPath(p neo4j.Path) *GraphPath {
	gp := &GraphPath{Length: len(p.Relationships)}
	for _, n := range p.Nodes {
		gp.Nodes = append(gp.Nodes, mapNeo4jNode(n))
	}
	for _, rel := range p.Relationships {
		gp.Relations = append(gp.Relations, mapNeo4jRel(rel))
	}
	return gp
}
