package semquery

import (
	"strings"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

// resolution is the outcome of walking one dot-path: the entity the
// final segment lives on, plus either a property or a relationship,
// and the joins collected along the way.
type resolution struct {
	entity       *models.EntityMetadata
	property     *models.PropertyMetadata
	relationship *models.RelationshipMetadata
	joins        []Join
}

// resolve walks a dot-path from the root entity. Every intermediate
// segment must be a relationship; the final segment may be a property
// or a relationship. Ties between a property and a relationship of the
// same name break toward the property.
func (c *Compiler) resolve(root *models.EntityMetadata, path string) (*resolution, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperrors.Newf(apperrors.KindUnresolvedPath,
			"empty path on entity %q", root.Name)
	}

	segments := strings.Split(path, ".")
	current := root
	var joins []Join

	for i, seg := range segments {
		last := i == len(segments)-1

		if last {
			if prop := current.Property(seg); prop != nil {
				return &resolution{entity: current, property: prop, joins: joins}, nil
			}
			if rel := current.Relationship(seg); rel != nil {
				return &resolution{entity: current, relationship: rel, joins: joins}, nil
			}
			return nil, unresolved(path, seg, current)
		}

		rel := current.Relationship(seg)
		if rel == nil {
			if current.Property(seg) != nil {
				return nil, apperrors.Newf(apperrors.KindUnresolvedPath,
					"segment %q of path %q is a property of %q; only the final segment may be a property",
					seg, path, current.Name)
			}
			return nil, unresolved(path, seg, current)
		}

		target := c.registry.GetEntity(rel.TargetEntity)
		if target == nil {
			return nil, apperrors.Newf(apperrors.KindUnresolvedPath,
				"relationship %q of %q points at unregistered entity %q",
				seg, current.Name, rel.TargetEntity)
		}
		joins = append(joins, joinFor(current, rel))
		current = target
	}

	// unreachable: the loop always returns on the last segment
	return nil, unresolved(path, segments[len(segments)-1], current)
}

func unresolved(path, segment string, entity *models.EntityMetadata) error {
	return apperrors.Newf(apperrors.KindUnresolvedPath,
		"segment %q of path %q is neither a property nor a relationship of %q",
		segment, path, entity.Name)
}

func joinFor(source *models.EntityMetadata, rel *models.RelationshipMetadata) Join {
	return Join{
		SourceEntity:     source.Name,
		TargetEntity:     rel.TargetEntity,
		Relationship:     rel.Name,
		ForeignKey:       rel.ForeignKey,
		ForeignKeyEntity: rel.ForeignKeyEntity,
		Cardinality:      rel.Cardinality,
	}
}
