// Package ner defines the entity and result types shared by every extraction
// engine. Both the dictionary-based fast extractor and the LLM-backed
// extractor produce the same Result shape, so downstream consumers (export,
// persistence, CLI output) work identically with either engine.
package ner

// Entity categories produced by extraction. Categories are an open
// enumeration: gazetteer files can introduce new ones, which surface in the
// Unclassified bucket.
const (
	CategoryCompoundName       = "compound_name"
	CategorySMILES             = "smiles"
	CategoryCASNumber          = "cas_number"
	CategoryMolecularFormula   = "molecular_formula"
	CategoryTarget             = "target"
	CategoryGeneName           = "gene_name"
	CategoryProteinName        = "protein_name"
	CategoryDisease            = "disease"
	CategoryBioactivity        = "bioactivity"
	CategoryAssay              = "assay"
	CategoryMechanism          = "mechanism_of_action"
	CategoryAccession          = "accession_number"
	CategoryProduct            = "product"
	CategoryFunctionalCategory = "functional_category"
	CategoryScreeningMethod    = "screening_method"
)

// Attribute keys attached to extracted entities.
const (
	AttrCanonical   = "canonical"
	AttrMatchMethod = "match_method"
)

// Entity is a single extracted entity. Start and End are byte offsets into
// the source text, half-open [Start, End). A negative Start marks an entity
// whose span could not be aligned (possible for LLM extractions).
type Entity struct {
	Text       string            `json:"text"`
	Category   string            `json:"category"`
	Start      int               `json:"char_start"`
	End        int               `json:"char_end"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Alignment  string            `json:"alignment,omitempty"`
}

// bucketNames in Result field order. Used to keep AllEntities deterministic.
var bucketNames = []string{
	"compounds",
	"targets",
	"diseases",
	"bioactivities",
	"assays",
	"mechanisms",
	"accessions",
	"products",
	"functional_categories",
	"screening_methods",
	"unclassified",
}

// categoryBuckets maps each known category to its Result bucket.
var categoryBuckets = map[string]string{
	CategoryCompoundName:       "compounds",
	CategorySMILES:             "compounds",
	CategoryCASNumber:          "compounds",
	CategoryMolecularFormula:   "compounds",
	CategoryTarget:             "targets",
	CategoryGeneName:           "targets",
	CategoryProteinName:        "targets",
	CategoryDisease:            "diseases",
	CategoryBioactivity:        "bioactivities",
	CategoryAssay:              "assays",
	CategoryMechanism:          "mechanisms",
	CategoryAccession:          "accessions",
	CategoryProduct:            "products",
	CategoryFunctionalCategory: "functional_categories",
	CategoryScreeningMethod:    "screening_methods",
}

// BucketFor returns the Result bucket name for a category, falling back to
// "unclassified" for categories with no typed mapping.
func BucketFor(category string) string {
	if b, ok := categoryBuckets[category]; ok {
		return b
	}
	return "unclassified"
}

// IsKnownCategory reports whether a category has a typed bucket mapping.
func IsKnownCategory(category string) bool {
	_, ok := categoryBuckets[category]
	return ok
}

// KnownCategories returns every category with a typed bucket mapping.
func KnownCategories() []string {
	out := make([]string, 0, len(categoryBuckets))
	for c := range categoryBuckets {
		out = append(out, c)
	}
	return out
}

// Result groups extracted entities into fixed named buckets. Per-bucket order
// is insertion order, which for the fast extractor means left-to-right in the
// source text.
type Result struct {
	SourceText           string   `json:"source_text"`
	Compounds            []Entity `json:"compounds"`
	Targets              []Entity `json:"targets"`
	Diseases             []Entity `json:"diseases"`
	Bioactivities        []Entity `json:"bioactivities"`
	Assays               []Entity `json:"assays"`
	Mechanisms           []Entity `json:"mechanisms"`
	Accessions           []Entity `json:"accessions"`
	Products             []Entity `json:"products"`
	FunctionalCategories []Entity `json:"functional_categories"`
	ScreeningMethods     []Entity `json:"screening_methods"`
	Unclassified         []Entity `json:"unclassified"`
}

// NewResult creates an empty Result for the given source text.
func NewResult(sourceText string) *Result {
	return &Result{SourceText: sourceText}
}

// Add appends an entity to the bucket determined by its category.
func (r *Result) Add(e Entity) {
	switch BucketFor(e.Category) {
	case "compounds":
		r.Compounds = append(r.Compounds, e)
	case "targets":
		r.Targets = append(r.Targets, e)
	case "diseases":
		r.Diseases = append(r.Diseases, e)
	case "bioactivities":
		r.Bioactivities = append(r.Bioactivities, e)
	case "assays":
		r.Assays = append(r.Assays, e)
	case "mechanisms":
		r.Mechanisms = append(r.Mechanisms, e)
	case "accessions":
		r.Accessions = append(r.Accessions, e)
	case "products":
		r.Products = append(r.Products, e)
	case "functional_categories":
		r.FunctionalCategories = append(r.FunctionalCategories, e)
	case "screening_methods":
		r.ScreeningMethods = append(r.ScreeningMethods, e)
	default:
		r.Unclassified = append(r.Unclassified, e)
	}
}

// bucket returns the entity slice for a bucket name.
func (r *Result) bucket(name string) []Entity {
	switch name {
	case "compounds":
		return r.Compounds
	case "targets":
		return r.Targets
	case "diseases":
		return r.Diseases
	case "bioactivities":
		return r.Bioactivities
	case "assays":
		return r.Assays
	case "mechanisms":
		return r.Mechanisms
	case "accessions":
		return r.Accessions
	case "products":
		return r.Products
	case "functional_categories":
		return r.FunctionalCategories
	case "screening_methods":
		return r.ScreeningMethods
	case "unclassified":
		return r.Unclassified
	}
	return nil
}

// AllEntities returns every extracted entity as a flat list, buckets in
// declaration order.
func (r *Result) AllEntities() []Entity {
	var out []Entity
	for _, name := range bucketNames {
		out = append(out, r.bucket(name)...)
	}
	return out
}

// Len returns the total number of extracted entities.
func (r *Result) Len() int {
	n := 0
	for _, name := range bucketNames {
		n += len(r.bucket(name))
	}
	return n
}
