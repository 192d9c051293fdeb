// Package prompts builds the prompt templates sent to the analysis LLM.
package prompts

import (
	"fmt"
	"strings"
)

// AnalysisSystemMessage is the system prompt for codebook analysis calls.
const AnalysisSystemMessage = "You are a construction codebook specialist. Always return valid JSON."

// AnalysisPromptVersion identifies the prompt template stored on versions it
// produced.
const AnalysisPromptVersion = "analysis_v1.0"

// csiContext describes the CSI MasterFormat divisions relevant to civil
// construction. It anchors division/section assignment.
const csiContext = `Key CSI MasterFormat Divisions for Civil Construction:
- Division 02: Existing Conditions (site assessment, demolition)
- Division 31: Earthwork (grading, excavation, fill, soil stabilization)
- Division 32: Exterior Improvements (paving, curbs, sidewalks, fencing, landscaping)
- Division 33: Utilities (water, sanitary sewer, storm sewer, gas, electrical)
  - 33 05 00: Common Work Results for Utilities
  - 33 10 00: Water Utilities (water distribution, water mains, valves, hydrants)
  - 33 30 00: Sanitary Sewerage (sanitary sewer piping, manholes, cleanouts)
  - 33 40 00: Storm Drainage (storm sewer piping, inlets, detention)
  - 33 50 00: Fuel Distribution
  - 33 70 00: Electrical Utilities
- Division 34: Transportation (roadways, signals, signage)
- Division 35: Waterway and Marine Construction`

// BuildAnalysisPrompt creates the classification prompt for one batch of
// items. itemsJSON is the already-serialized array of minimized row
// payloads; rulesJSON, when non-empty, appends client coding rules.
func BuildAnalysisPrompt(codebookType, itemsJSON, rulesJSON string) string {
	var prompt strings.Builder

	prompt.WriteString("You are an expert construction materials classifier and CSI MasterFormat specialist.\n\n")
	prompt.WriteString(csiContext)
	prompt.WriteString("\n\n")

	fmt.Fprintf(&prompt, "Given these %s items from a civil construction codebook, for EACH item:\n", codebookType)
	prompt.WriteString(`1. Generate a standardized code using this pattern: {FAMILY_DIGIT}-{MATERIAL_ABBR}-{SIZE}-{TYPE_CODE}
   - FAMILY_DIGIT: 1=Earthwork, 2=Pipe, 3=Fitting, 4=Valve, 5=Structure, 6=Electrical, 7=Paving, 8=Other
   - MATERIAL_ABBR: DIP=Ductile Iron, PVC=PVC, HDPE=HDPE, RCP=Reinforced Concrete, CMP=Corrugated Metal, STL=Steel, CIP=Cast Iron, etc.
   - SIZE: diameter or size in inches (e.g., 08, 12, 24), use 00 if not applicable
   - TYPE_CODE: P=Pipe, B=Bend, T=Tee, V=Valve, G=Gate, M=Manhole, H=Hydrant, C=Coupling, R=Reducer, E=Elbow, etc.
   Example: 2-DIP-08-B = 8" Ductile Iron Pipe Bend, 4-DIP-06-G = 6" DIP Gate Valve
2. Assign the correct CSI MasterFormat division (e.g., "33")
3. Assign the CSI section (e.g., "33 30 00")
4. Categorize by application: sanitary_sewer, storm_sewer, water, or other
5. Write a clear, standardized description
6. Extract metadata (diameter, material, type, class, etc.)

Items to analyze:
`)
	prompt.WriteString(itemsJSON)
	prompt.WriteString(`

Return valid JSON with this exact structure:
{
  "items": [
    {
      "original_label": "the exact original label provided",
      "code": "generated code",
      "description": "standardized description",
      "csi_division": "two digit division number",
      "csi_section": "full section code like 33 30 00",
      "application": "sanitary_sewer|storm_sewer|water|other",
      "metadata": {"diameter": "...", "material": "...", "type": "...", "class": "..."}
    }
  ],
  "analysis_summary": "2-3 sentence summary of codebook quality and composition",
  "analysis_details": {
    "total_items": 0,
    "divisions_found": ["33", "32"],
    "applications_breakdown": {"water": 0, "sanitary_sewer": 0, "storm_sewer": 0, "other": 0},
    "recommendations": ["recommendation 1", "recommendation 2"]
  }
}`)

	if rulesJSON != "" {
		prompt.WriteString("\n\nAdditional coding rules to follow:\n")
		prompt.WriteString(rulesJSON)
	}

	return prompt.String()
}
