package kusto

import (
	"fmt"
	"strings"
)

// EntityType is the canonical name of a database entity kind.
type EntityType string

const (
	EntityTable            EntityType = "table"
	EntityMaterializedView EntityType = "materialized-view"
	EntityFunction         EntityType = "function"
	EntityGraph            EntityType = "graph"
	EntityDatabase         EntityType = "database"
)

var entityAliases = map[string]EntityType{
	"table":              EntityTable,
	"tables":             EntityTable,
	"materialized view":  EntityMaterializedView,
	"materialized-view":  EntityMaterializedView,
	"materialized-views": EntityMaterializedView,
	"mv":                 EntityMaterializedView,
	"function":           EntityFunction,
	"functions":          EntityFunction,
	"graph":              EntityGraph,
	"graphs":             EntityGraph,
	"graph model":        EntityGraph,
	"graph-model":        EntityGraph,
	"database":           EntityDatabase,
	"databases":          EntityDatabase,
}

// ParseEntityType maps the spellings agents use to a canonical entity type.
func ParseEntityType(s string) (EntityType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if t, ok := entityAliases[normalized]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown entity type '%s'. Supported types: table, materialized-view, function, graph, database", normalized)
}
