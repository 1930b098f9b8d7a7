// Package ontology holds the in-memory schema of record: entities,
// properties, relationships, actions, constraints, state machines and
// interface claims. Domain adapters populate the registry at boot; after
// initialization it is read-dominated.
package ontology

import (
	"strings"
	"sync"
	"unicode"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/ontoflow-ai/ontoflow/pkg/apperrors"
	"github.com/ontoflow-ai/ontoflow/pkg/models"
)

// relationshipKey indexes the global relationship map.
type relationshipKey struct {
	Entity string
	Target string
}

// Registry is the single source of truth for the schema. Reads are safe
// under concurrent traffic; writes (boot-time adapter registration,
// runtime plugin load) take the writer lock.
type Registry struct {
	mu sync.RWMutex

	entities    map[string]*models.EntityMetadata
	entityOrder []string

	actionsByName map[string]*models.ActionMetadata
	actionOrder   []string

	// constraints holds per-entity ordered constraint lists; wildcard and
	// action-specific constraints share one list to preserve registration
	// order across both.
	constraints map[string][]models.ConstraintMetadata

	stateMachines map[string]*models.StateMachine

	relationshipMap map[relationshipKey][]models.RelationshipMetadata

	interfaces       map[string]models.InterfaceDefinition
	implementations  map[string][]string // interface name -> entity names
	categoryMeanings map[string]string

	// persistence model bindings, opaque to the registry
	persistModels map[string]any

	logger *zap.Logger
}

// NewRegistry creates an empty registry. Registries are singletons by
// intent, but tests may instantiate as many as they need.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		entities:         make(map[string]*models.EntityMetadata),
		actionsByName:    make(map[string]*models.ActionMetadata),
		constraints:      make(map[string][]models.ConstraintMetadata),
		stateMachines:    make(map[string]*models.StateMachine),
		relationshipMap:  make(map[relationshipKey][]models.RelationshipMetadata),
		interfaces:       make(map[string]models.InterfaceDefinition),
		implementations:  make(map[string][]string),
		categoryMeanings: make(map[string]string),
		persistModels:    make(map[string]any),
		logger:           logger.Named("ontology"),
	}
}

// ============================================================================
// Registration
// ============================================================================

// RegisterEntity inserts or replaces an entity by name. Relationships
// previously registered against the entity are preserved and re-attached,
// so replacing an entity never drops its edges. Idempotent for identical
// input.
func (r *Registry) RegisterEntity(entity models.EntityMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entity.TableName == "" {
		entity.TableName = DefaultTableName(entity.Name)
	}
	if entity.Properties == nil {
		entity.Properties = make(map[string]models.PropertyMetadata)
	}

	if prior, ok := r.entities[entity.Name]; ok {
		for _, rel := range prior.Relationships {
			if entity.Relationship(rel.Name) == nil {
				entity.Relationships = append(entity.Relationships, rel)
			}
		}
	} else {
		r.entityOrder = append(r.entityOrder, entity.Name)
	}

	stored := entity
	r.entities[entity.Name] = &stored

	r.logger.Debug("Registered entity",
		zap.String("entity", entity.Name),
		zap.Int("properties", len(entity.Properties)))
}

// RegisterAction registers an action for an existing entity. Action names
// are unique across the whole registry.
func (r *Registry) RegisterAction(entityName string, action models.ActionMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[entityName]; !ok {
		return apperrors.Newf(apperrors.KindUnknownEntity, "entity %q is not registered", entityName)
	}
	if _, ok := r.actionsByName[action.Name]; ok {
		return apperrors.Newf(apperrors.KindAlreadyRegistered, "action %q is already registered", action.Name)
	}

	action.Entity = entityName
	stored := action
	r.actionsByName[action.Name] = &stored
	r.actionOrder = append(r.actionOrder, action.Name)

	r.logger.Debug("Registered action",
		zap.String("entity", entityName),
		zap.String("action", action.Name),
		zap.String("category", string(action.Category)))
	return nil
}

// RegisterRelationship records a relationship edge. If the entity is
// already registered the edge is appended to its relationship list; in
// all cases the edge is recorded in the global relationship map. A
// duplicate relationship name on the same entity is rejected.
func (r *Registry) RegisterRelationship(entityName string, rel models.RelationshipMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := relationshipKey{Entity: entityName, Target: rel.TargetEntity}
	for _, existing := range r.relationshipMap[key] {
		if existing.Name == rel.Name {
			return apperrors.Newf(apperrors.KindAlreadyRegistered,
				"relationship %q is already registered on entity %q", rel.Name, entityName)
		}
	}

	if entity, ok := r.entities[entityName]; ok {
		if entity.Relationship(rel.Name) != nil {
			return apperrors.Newf(apperrors.KindAlreadyRegistered,
				"relationship %q is already registered on entity %q", rel.Name, entityName)
		}
		entity.Relationships = append(entity.Relationships, rel)
	}

	r.relationshipMap[key] = append(r.relationshipMap[key], rel)
	return nil
}

// RegisterConstraint indexes a constraint by (entity, action). A
// constraint with action "*" applies to every action of the entity.
func (r *Registry) RegisterConstraint(constraint models.ConstraintMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.constraints[constraint.Entity] = append(r.constraints[constraint.Entity], constraint)

	r.logger.Debug("Registered constraint",
		zap.String("entity", constraint.Entity),
		zap.String("action", constraint.Action),
		zap.String("constraint", constraint.ID))
}

// RegisterStateMachine registers the lifecycle of an entity. At most one
// machine per entity; re-registering an identical topology is a no-op,
// a different topology fails with ConflictingStateMachine.
func (r *Registry) RegisterStateMachine(machine models.StateMachine) error {
	if problem := machine.Validate(); problem != "" {
		return apperrors.Newf(apperrors.KindValidation, "invalid state machine for %q: %s", machine.Entity, problem)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.stateMachines[machine.Entity]; ok {
		if existing.SameTopology(&machine) {
			return nil
		}
		return apperrors.Newf(apperrors.KindConflictingStateMachine,
			"entity %q already has a state machine with a different topology", machine.Entity)
	}

	stored := machine
	r.stateMachines[machine.Entity] = &stored
	return nil
}

// RegisterInterface declares an interface definition for schema export
// and the structural boot check.
func (r *Registry) RegisterInterface(def models.InterfaceDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interfaces[def.Name] = def
}

// RegisterInterfaceImplementation records that an entity claims to
// implement an interface. The claim is verified by CheckInterfaces.
func (r *Registry) RegisterInterfaceImplementation(interfaceName, entityName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[entityName]; !ok {
		return apperrors.Newf(apperrors.KindUnknownEntity, "entity %q is not registered", entityName)
	}
	for _, existing := range r.implementations[interfaceName] {
		if existing == entityName {
			return nil
		}
	}
	r.implementations[interfaceName] = append(r.implementations[interfaceName], entityName)
	return nil
}

// RegisterModel binds a registered entity name to the external
// persistence model used by query execution. The value is opaque here;
// only the query executor inspects it.
func (r *Registry) RegisterModel(entityName string, model any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[entityName]; !ok {
		return apperrors.Newf(apperrors.KindUnknownEntity, "entity %q is not registered", entityName)
	}
	r.persistModels[entityName] = model
	return nil
}

// SetCategoryMeaning attaches a human-readable meaning to a semantic
// category for glossary export. Meanings come from adapters, never from
// the framework.
func (r *Registry) SetCategoryMeaning(category, meaning string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categoryMeanings[category] = meaning
}

// ============================================================================
// Lookups
// ============================================================================

// GetEntity returns the named entity, or nil.
func (r *Registry) GetEntity(name string) *models.EntityMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// GetAction returns the named action if it belongs to the entity, or nil.
func (r *Registry) GetAction(entityName, actionName string) *models.ActionMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actionsByName[actionName]
	if !ok || action.Entity != entityName {
		return nil
	}
	return action
}

// GetActionByName returns the action with the given registry-wide unique
// name, or nil.
func (r *Registry) GetActionByName(name string) *models.ActionMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actionsByName[name]
}

// GetRelationships returns the relationships of an entity in registration
// order.
func (r *Registry) GetRelationships(entityName string) []models.RelationshipMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.entities[entityName]
	if !ok {
		return nil
	}
	out := make([]models.RelationshipMetadata, len(entity.Relationships))
	copy(out, entity.Relationships)
	return out
}

// GetConstraints returns the constraints applying to (entity, action):
// those registered for the action plus wildcard constraints, in
// registration order.
func (r *Registry) GetConstraints(entityName, actionName string) []models.ConstraintMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.ConstraintMetadata
	for _, c := range r.constraints[entityName] {
		if c.Action == actionName || c.AppliesToAllActions() {
			out = append(out, c)
		}
	}
	return out
}

// GetStateMachine returns the state machine of an entity, or nil.
func (r *Registry) GetStateMachine(entityName string) *models.StateMachine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stateMachines[entityName]
}

// GetModel returns the persistence model bound to an entity, or nil.
func (r *Registry) GetModel(entityName string) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.persistModels[entityName]
}

// GetEntities returns all entities in registration order.
func (r *Registry) GetEntities() []*models.EntityMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.EntityMetadata, 0, len(r.entityOrder))
	for _, name := range r.entityOrder {
		out = append(out, r.entities[name])
	}
	return out
}

// GetActions returns all actions in registration order.
func (r *Registry) GetActions() []*models.ActionMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.ActionMetadata, 0, len(r.actionOrder))
	for _, name := range r.actionOrder {
		out = append(out, r.actionsByName[name])
	}
	return out
}

// RelatedEntities returns the names of entities directly related to the
// given entity, with the relationship that connects them.
func (r *Registry) RelatedEntities(entityName string) []models.RelationshipMetadata {
	return r.GetRelationships(entityName)
}

// Clear resets all in-memory state. For tests only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entities = make(map[string]*models.EntityMetadata)
	r.entityOrder = nil
	r.actionsByName = make(map[string]*models.ActionMetadata)
	r.actionOrder = nil
	r.constraints = make(map[string][]models.ConstraintMetadata)
	r.stateMachines = make(map[string]*models.StateMachine)
	r.relationshipMap = make(map[relationshipKey][]models.RelationshipMetadata)
	r.interfaces = make(map[string]models.InterfaceDefinition)
	r.implementations = make(map[string][]string)
	r.categoryMeanings = make(map[string]string)
	r.persistModels = make(map[string]any)
}

// ============================================================================
// Helpers
// ============================================================================

// DefaultTableName derives a table name from an entity name:
// "StayRecord" becomes "stay_records".
func DefaultTableName(entityName string) string {
	return inflection.Plural(toSnakeCase(entityName))
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
