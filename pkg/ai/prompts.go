package ai

// ExtractGraphPrompt is the system prompt for extracting a knowledge graph
// fragment from a text chunk. It takes the allowed node types twice.
const ExtractGraphPrompt = `
# Task Context
You are a top-tier algorithm designed for extracting information in structured formats to build a knowledge graph. You will be provided with a span of a larger document.

# Background Data
- **Node_types:** [%s]

# Detailed Task Description & Rules
- Capture as much information from the text as possible without sacrificing accuracy.
- Do not add any information that is not explicitly mentioned in the text.

## Nodes
1. Nodes represent entities and concepts.
2. For each node, extract:
    - **id:** a human-readable identifier taken from the text, e.g. "Marie Curie". Never use integers as ids.
    - **type:** one of the node types [%s]. Use a basic, elementary type: prefer "Person" over "Mathematician".
3. Always refer to the same entity with the same id. If an entity is mentioned by several names or pronouns (e.g. "John", "he"), use the most complete identifier throughout.

## Relationships
1. Relationships connect two nodes extracted from the same text.
2. For each relationship, extract:
    - **source:** id of the source node.
    - **target:** id of the target node.
    - **type:** a general and timeless relationship type in UPPER_SNAKE_CASE, e.g. "WORKS_AT" rather than "BECAME_PROFESSOR".
3. Only reference node ids that are listed in "nodes".

# Examples
**Node_types:** Person, Organization, Location
**Text:**
Marie Curie worked at the University of Paris. She was born in Warsaw.

**Output:**
{
  "nodes": [
    {"id": "Marie Curie", "type": "Person"},
    {"id": "University of Paris", "type": "Organization"},
    {"id": "Warsaw", "type": "Location"}
  ],
  "relationships": [
    {"source": "Marie Curie", "target": "University of Paris", "type": "WORKS_AT"},
    {"source": "Marie Curie", "target": "Warsaw", "type": "BORN_IN"}
  ]
}

# Output Formatting
Return a single valid JSON object with the keys "nodes" and "relationships".
Do not include any commentary, explanations, or text outside of the JSON.
Use empty arrays if nothing can be extracted.
`

// JSONOnlyPrompt instructs models without native structured output to
// answer with JSON matching the given schema.
const JSONOnlyPrompt = `
# Output Formatting
Respond with a single JSON object named "%s" (%s) that validates against this JSON schema:
%s
Do not wrap the JSON in markdown code fences and do not add any text before or after it.
`
