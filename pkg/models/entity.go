package models

// ============================================================================
// Property Types
// ============================================================================

// PropertyType is the semantic type of an entity property.
type PropertyType string

const (
	PropertyTypeString   PropertyType = "string"
	PropertyTypeInteger  PropertyType = "integer"
	PropertyTypeNumber   PropertyType = "number"
	PropertyTypeBoolean  PropertyType = "boolean"
	PropertyTypeDatetime PropertyType = "datetime"
	PropertyTypeDate     PropertyType = "date"
	PropertyTypeJSON     PropertyType = "json"
)

// ValidPropertyTypes contains all valid property type values.
var ValidPropertyTypes = []PropertyType{
	PropertyTypeString,
	PropertyTypeInteger,
	PropertyTypeNumber,
	PropertyTypeBoolean,
	PropertyTypeDatetime,
	PropertyTypeDate,
	PropertyTypeJSON,
}

// IsValidPropertyType checks if the given type is valid.
func IsValidPropertyType(t PropertyType) bool {
	for _, v := range ValidPropertyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// SecurityLevel classifies how sensitive a property value is. Values at
// Confidential and above are masked before logging.
type SecurityLevel string

const (
	SecurityPublic       SecurityLevel = "PUBLIC"
	SecurityInternal     SecurityLevel = "INTERNAL"
	SecurityConfidential SecurityLevel = "CONFIDENTIAL"
	SecurityRestricted   SecurityLevel = "RESTRICTED"
)

// IsSensitive returns true if values of this level must not appear in logs.
func (l SecurityLevel) IsSensitive() bool {
	return l == SecurityConfidential || l == SecurityRestricted
}

// ============================================================================
// Property Metadata
// ============================================================================

// PropertyMetadata describes a single property of an entity.
type PropertyMetadata struct {
	Name             string        `json:"name"`
	Type             PropertyType  `json:"type"`
	IsPrimaryKey     bool          `json:"is_primary_key,omitempty"`
	IsForeignKey     bool          `json:"is_foreign_key,omitempty"`
	ForeignKeyTarget string        `json:"foreign_key_target,omitempty"`
	IsRequired       bool          `json:"is_required,omitempty"`
	IsUnique         bool          `json:"is_unique,omitempty"`
	IsNullable       bool          `json:"is_nullable,omitempty"`
	DisplayName      string        `json:"display_name,omitempty"`
	Description      string        `json:"description,omitempty"`
	SecurityLevel    SecurityLevel `json:"security_level,omitempty"`
}

// ============================================================================
// Relationship Metadata
// ============================================================================

// Cardinality describes the multiplicity of a relationship.
type Cardinality string

const (
	CardinalityOneToOne   Cardinality = "one_to_one"
	CardinalityOneToMany  Cardinality = "one_to_many"
	CardinalityManyToOne  Cardinality = "many_to_one"
	CardinalityManyToMany Cardinality = "many_to_many"
)

// RelationshipMetadata describes a directed edge between two entities.
// Relationships are indexed edges owned by the registry; entities
// reference them by name.
type RelationshipMetadata struct {
	Name             string      `json:"name"`
	TargetEntity     string      `json:"target_entity"`
	Cardinality      Cardinality `json:"cardinality"`
	ForeignKey       string      `json:"foreign_key,omitempty"`
	ForeignKeyEntity string      `json:"foreign_key_entity,omitempty"`
	InverseName      string      `json:"inverse_name,omitempty"`
	Description      string      `json:"description,omitempty"`
}

// ============================================================================
// Entity Metadata
// ============================================================================

// EntityMetadata is the registry's canonical description of an entity.
type EntityMetadata struct {
	Name            string                      `json:"name"`
	Description     string                      `json:"description,omitempty"`
	TableName       string                      `json:"table_name,omitempty"`
	Category        string                      `json:"category,omitempty"`
	IsAggregateRoot bool                        `json:"is_aggregate_root,omitempty"`
	Extensions      map[string]any              `json:"extensions,omitempty"`
	Properties      map[string]PropertyMetadata `json:"properties,omitempty"`
	Relationships   []RelationshipMetadata      `json:"relationships,omitempty"`
	RelatedEntities []string                    `json:"related_entities,omitempty"`
}

// Property returns the named property, or nil if not declared.
func (e *EntityMetadata) Property(name string) *PropertyMetadata {
	if e == nil {
		return nil
	}
	if p, ok := e.Properties[name]; ok {
		return &p
	}
	return nil
}

// Relationship returns the named relationship, or nil if not declared.
func (e *EntityMetadata) Relationship(name string) *RelationshipMetadata {
	if e == nil {
		return nil
	}
	for i := range e.Relationships {
		if e.Relationships[i].Name == name {
			return &e.Relationships[i]
		}
	}
	return nil
}

// PrimaryKey returns the primary key property, or nil if none is declared.
func (e *EntityMetadata) PrimaryKey() *PropertyMetadata {
	for _, p := range e.Properties {
		if p.IsPrimaryKey {
			prop := p
			return &prop
		}
	}
	return nil
}

// ============================================================================
// Interface Definitions
// ============================================================================

// InterfaceDefinition declares a named set of properties and actions an
// entity must provide to claim the interface. Informational; checked
// structurally at boot.
type InterfaceDefinition struct {
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	RequiredProperties []string `json:"required_properties,omitempty"`
	RequiredActions    []string `json:"required_actions,omitempty"`
}
