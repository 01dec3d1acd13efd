// Package extraction provides LLM-backed entity extraction from drug
// discovery text. It handles prompt construction from entity profiles,
// response parsing with JSON repair, and span alignment of extracted entities
// back onto the source text. The dictionary-based pkg/fast engine covers the
// same categories without a model call; this package trades latency and an
// API dependency for recall on entities no gazetteer lists.
package extraction

import "github.com/structflo/structflo-ner/pkg/ner"

// Extraction is a single entity instance as the LLM reports it: the class
// label, the verbatim text, and optional free-form attributes.
type Extraction struct {
	Class      string            `json:"extraction_class"`
	Text       string            `json:"extraction_text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Example is a few-shot demonstration: a passage and the extractions a
// correct response would contain.
type Example struct {
	Text        string       `json:"text"`
	Extractions []Extraction `json:"extractions"`
}

// Profile defines what to extract: the entity classes in scope, the
// instruction prompt, and few-shot examples that pin down granularity.
type Profile struct {
	Name          string
	EntityClasses []string
	Prompt        string
	Examples      []Example
}

// Merge combines two profiles: union of classes (first occurrence wins the
// position), concatenated prompts and examples.
func (p Profile) Merge(other Profile) Profile {
	classes := make([]string, 0, len(p.EntityClasses)+len(other.EntityClasses))
	seen := make(map[string]bool)
	for _, c := range append(append([]string{}, p.EntityClasses...), other.EntityClasses...) {
		if !seen[c] {
			seen[c] = true
			classes = append(classes, c)
		}
	}
	return Profile{
		Name:          p.Name + "+" + other.Name,
		EntityClasses: classes,
		Prompt:        p.Prompt + "\n\n" + other.Prompt,
		Examples:      append(append([]Example{}, p.Examples...), other.Examples...),
	}
}

// InScope reports whether a class belongs to this profile.
func (p Profile) InScope(class string) bool {
	for _, c := range p.EntityClasses {
		if c == class {
			return true
		}
	}
	return false
}

// Built-in profiles. Full is the default.
var (
	Chemistry = Profile{
		Name:          "chemistry",
		EntityClasses: []string{ner.CategoryCompoundName, ner.CategorySMILES, ner.CategoryCASNumber, ner.CategoryMolecularFormula},
		Prompt:        chemistryPrompt,
		Examples:      chemistryExamples,
	}

	Biology = Profile{
		Name:          "biology",
		EntityClasses: []string{ner.CategoryTarget, ner.CategoryGeneName, ner.CategoryProteinName},
		Prompt:        biologyPrompt,
		Examples:      biologyExamples,
	}

	Bioactivity = Profile{
		Name:          "bioactivity",
		EntityClasses: []string{ner.CategoryBioactivity, ner.CategoryAssay},
		Prompt:        bioactivityPrompt,
		Examples:      bioactivityExamples,
	}

	Disease = Profile{
		Name:          "disease",
		EntityClasses: []string{ner.CategoryDisease},
		Prompt:        diseasePrompt,
		Examples:      diseaseExamples,
	}

	Full = Profile{
		Name: "full",
		EntityClasses: []string{
			ner.CategoryCompoundName, ner.CategorySMILES, ner.CategoryCASNumber,
			ner.CategoryMolecularFormula, ner.CategoryTarget, ner.CategoryGeneName,
			ner.CategoryProteinName, ner.CategoryDisease, ner.CategoryBioactivity,
			ner.CategoryAssay, ner.CategoryMechanism,
		},
		Prompt:   fullPrompt,
		Examples: fullExamples,
	}
)

// chemistryExamples through fullExamples are condensed few-shot sets drawn
// from real medicinal chemistry literature.
var chemistryExamples = []Example{
	{
		Text: "Compound 14c (SMILES: Cc1ccc(NC(=O)c2ccc(CN3CCN(C)CC3)cc2)cc1) demonstrated potent inhibitory activity. " +
			"The CAS number of imatinib is 152459-95-5 and its molecular formula is C29H31N7O.",
		Extractions: []Extraction{
			{Class: ner.CategoryCompoundName, Text: "Compound 14c"},
			{Class: ner.CategorySMILES, Text: "Cc1ccc(NC(=O)c2ccc(CN3CCN(C)CC3)cc2)cc1"},
			{Class: ner.CategoryCompoundName, Text: "imatinib"},
			{Class: ner.CategoryCASNumber, Text: "152459-95-5"},
			{Class: ner.CategoryMolecularFormula, Text: "C29H31N7O"},
		},
	},
	{
		Text: "Osimertinib (AZD9291) is a third-generation EGFR inhibitor approved for NSCLC.",
		Extractions: []Extraction{
			{Class: ner.CategoryCompoundName, Text: "Osimertinib", Attributes: map[string]string{"synonyms": "AZD9291"}},
			{Class: ner.CategoryCompoundName, Text: "AZD9291"},
		},
	},
}

var biologyExamples = []Example{
	{
		Text: "The compound selectively inhibits EGFR (ERBB1) and HER2 kinases while sparing ERBB3. " +
			"KRAS G12C mutations are prevalent in lung adenocarcinoma.",
		Extractions: []Extraction{
			{Class: ner.CategoryTarget, Text: "EGFR", Attributes: map[string]string{"gene_symbol": "ERBB1"}},
			{Class: ner.CategoryTarget, Text: "HER2"},
			{Class: ner.CategoryTarget, Text: "ERBB3"},
			{Class: ner.CategoryGeneName, Text: "KRAS", Attributes: map[string]string{"mutation": "G12C"}},
		},
	},
}

var bioactivityExamples = []Example{
	{
		Text: "Gefitinib inhibited EGFR with an IC50 of 0.033 µM in an enzymatic assay, " +
			"and showed GI50 = 80 nM against A549 cells in a cell viability assay.",
		Extractions: []Extraction{
			{Class: ner.CategoryBioactivity, Text: "IC50 of 0.033 µM", Attributes: map[string]string{"measurement": "IC50", "value": "0.033", "unit": "µM"}},
			{Class: ner.CategoryAssay, Text: "enzymatic assay"},
			{Class: ner.CategoryBioactivity, Text: "GI50 = 80 nM", Attributes: map[string]string{"measurement": "GI50", "value": "80", "unit": "nM"}},
			{Class: ner.CategoryAssay, Text: "cell viability assay", Attributes: map[string]string{"cell_line": "A549"}},
		},
	},
}

var diseaseExamples = []Example{
	{
		Text: "Approved for non-small cell lung cancer (NSCLC), the drug is also under " +
			"investigation in rheumatoid arthritis.",
		Extractions: []Extraction{
			{Class: ner.CategoryDisease, Text: "non-small cell lung cancer", Attributes: map[string]string{"therapeutic_area": "oncology"}},
			{Class: ner.CategoryDisease, Text: "NSCLC"},
			{Class: ner.CategoryDisease, Text: "rheumatoid arthritis"},
		},
	},
}

var fullExamples = []Example{
	{
		Text: "Bedaquiline (TMC207) inhibits mycobacterial ATP synthase with an MIC of 0.06 µg/mL " +
			"against M. tuberculosis, and is approved for MDR-TB.",
		Extractions: []Extraction{
			{Class: ner.CategoryCompoundName, Text: "Bedaquiline", Attributes: map[string]string{"synonyms": "TMC207"}},
			{Class: ner.CategoryCompoundName, Text: "TMC207"},
			{Class: ner.CategoryTarget, Text: "ATP synthase"},
			{Class: ner.CategoryBioactivity, Text: "MIC of 0.06 µg/mL", Attributes: map[string]string{"measurement": "MIC", "value": "0.06", "unit": "µg/mL"}},
			{Class: ner.CategoryDisease, Text: "MDR-TB"},
		},
	},
	{
		Text: "Gefitinib (ZD1839) is a selective EGFR inhibitor with IC50 = 0.033 µM, acting " +
			"through reversible ATP-competitive binding, in clinical use for NSCLC.",
		Extractions: []Extraction{
			{Class: ner.CategoryCompoundName, Text: "Gefitinib", Attributes: map[string]string{"synonyms": "ZD1839"}},
			{Class: ner.CategoryCompoundName, Text: "ZD1839"},
			{Class: ner.CategoryTarget, Text: "EGFR"},
			{Class: ner.CategoryBioactivity, Text: "IC50 = 0.033 µM", Attributes: map[string]string{"measurement": "IC50", "value": "0.033", "unit": "µM"}},
			{Class: ner.CategoryMechanism, Text: "reversible ATP-competitive binding"},
			{Class: ner.CategoryDisease, Text: "NSCLC"},
		},
	},
}
