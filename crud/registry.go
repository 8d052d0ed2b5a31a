package crud

// Relationship defines a parent-child link between two collections for
// cascade operations.
type Relationship struct {
	// ParentCollection is the collection holding the parent records.
	ParentCollection string

	// ChildCollection is the collection holding the child records.
	ChildCollection string

	// ParentField is the child field referencing the parent id
	// (e.g. "organization_id").
	ParentField string
}

// Registry holds all known collection relationships for cascade operations.
type Registry struct {
	relationships []Relationship
	byParent      map[string][]Relationship
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byParent: make(map[string][]Relationship),
	}
}

// Register adds a relationship. Call once per parent-child link during
// setup.
func (r *Registry) Register(rel Relationship) {
	r.relationships = append(r.relationships, rel)
	r.byParent[rel.ParentCollection] = append(r.byParent[rel.ParentCollection], rel)
}

// ChildrenOf returns the child relationships of a parent collection.
func (r *Registry) ChildrenOf(parentCollection string) []Relationship {
	return r.byParent[parentCollection]
}

// HasChildren reports whether a parent collection has registered children.
func (r *Registry) HasChildren(parentCollection string) bool {
	return len(r.byParent[parentCollection]) > 0
}

// AllRelationships returns every registered relationship.
func (r *Registry) AllRelationships() []Relationship {
	return r.relationships
}
