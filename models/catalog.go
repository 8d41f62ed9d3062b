// ABOUTME: Fixed enumerations and display labels for visit records
// ABOUTME: Health scores, tags, selling opportunities and the default interview prompts
package models

type HealthScore string

const (
	HealthGreen  HealthScore = "green"
	HealthYellow HealthScore = "yellow"
	HealthRed    HealthScore = "red"
)

var healthLabels = map[HealthScore]string{
	HealthGreen:  "🟢 Healthy",
	HealthYellow: "🟡 Needs Attention",
	HealthRed:    "🔴 At Risk",
}

// HealthScores lists the scores in display order.
var HealthScores = []HealthScore{HealthGreen, HealthYellow, HealthRed}

// Label returns the display label. Unknown scores render as healthy.
func (h HealthScore) Label() string {
	if l, ok := healthLabels[h]; ok {
		return l
	}
	return healthLabels[HealthGreen]
}

type Tag string

const (
	TagUpsellOpportunity  Tag = "upsell-opportunity"
	TagAtRisk             Tag = "at-risk"
	TagChampionIdentified Tag = "champion-identified"
	TagTechnicalIssues    Tag = "technical-issues"
	TagExpansionPotential Tag = "expansion-potential"
	TagRenewalConcern     Tag = "renewal-concern"
	TagProductFeedback    Tag = "product-feedback"
	TagTrainingNeeded     Tag = "training-needed"
)

var Tags = []Tag{
	TagUpsellOpportunity,
	TagAtRisk,
	TagChampionIdentified,
	TagTechnicalIssues,
	TagExpansionPotential,
	TagRenewalConcern,
	TagProductFeedback,
	TagTrainingNeeded,
}

var tagLabels = map[Tag]string{
	TagUpsellOpportunity:  "Upsell Opportunity",
	TagAtRisk:             "At Risk",
	TagChampionIdentified: "Champion Identified",
	TagTechnicalIssues:    "Technical Issues",
	TagExpansionPotential: "Expansion Potential",
	TagRenewalConcern:     "Renewal Concern",
	TagProductFeedback:    "Product Feedback",
	TagTrainingNeeded:     "Training Needed",
}

func (t Tag) Label() string {
	if l, ok := tagLabels[t]; ok {
		return l
	}
	return string(t)
}

type SellingOpportunity string

const (
	OpportunityPODHero        SellingOpportunity = "podhero"
	OpportunityPickToLight    SellingOpportunity = "pick-to-light"
	OpportunityReceiveToLight SellingOpportunity = "receive-to-light"
	OpportunityAIPicking      SellingOpportunity = "ai-picking"
	OpportunityPackToLight    SellingOpportunity = "pack-to-light"
	OpportunityMakeCom        SellingOpportunity = "make-com"
	OpportunityConsultation   SellingOpportunity = "consultation"
	OpportunityNetSuite       SellingOpportunity = "netsuite"
	OpportunitySPS            SellingOpportunity = "sps"
)

// OpportunityInfo describes a product or service that can be sold.
type OpportunityInfo struct {
	Label       string
	Description string
}

var SellingOpportunities = []SellingOpportunity{
	OpportunityPODHero,
	OpportunityPickToLight,
	OpportunityReceiveToLight,
	OpportunityAIPicking,
	OpportunityPackToLight,
	OpportunityMakeCom,
	OpportunityConsultation,
	OpportunityNetSuite,
	OpportunitySPS,
}

var opportunityCatalog = map[SellingOpportunity]OpportunityInfo{
	OpportunityPODHero:        {Label: "PODHero", Description: "Print on demand fulfillment"},
	OpportunityPickToLight:    {Label: "Pick-to-Light", Description: "Visual picking assistance"},
	OpportunityReceiveToLight: {Label: "Receive-to-Light", Description: "Visual receiving assistance"},
	OpportunityAIPicking:      {Label: "AI Picking", Description: "AI-powered pick optimization"},
	OpportunityPackToLight:    {Label: "Pack-to-Light", Description: "Visual packing assistance"},
	OpportunityMakeCom:        {Label: "Make.com", Description: "Workflow automation integration"},
	OpportunityConsultation:   {Label: "Consultation", Description: "Professional services"},
	OpportunityNetSuite:       {Label: "NetSuite", Description: "NetSuite integration"},
	OpportunitySPS:            {Label: "SPS", Description: "SPS Commerce integration"},
}

func (o SellingOpportunity) Info() OpportunityInfo {
	if info, ok := opportunityCatalog[o]; ok {
		return info
	}
	return OpportunityInfo{Label: string(o)}
}

// PromptTemplate is the static part of an interview question.
type PromptTemplate struct {
	Title  string
	Prompt string
}

const (
	IntroTitle  = "Customer Summary"
	IntroPrompt = "Tell me about this customer: who they are, what they do, and where the account stands today."
)

// DefaultPrompts is the canonical interview, in order.
var DefaultPrompts = []PromptTemplate{
	{
		Title:  "Customer Overview",
		Prompt: "Who is the customer? Describe their business, industry, and how they use your product.",
	},
	{
		Title:  "Day Timeline",
		Prompt: "Walk me through your day from start to finish. What time did you arrive? Who did you meet with and when? How did each meeting go and what was discussed?",
	},
	{
		Title:  "Pain Points",
		Prompt: "What are the pain points of the customer? What challenges are they facing?",
	},
	{
		Title:  "Customer Needs",
		Prompt: "What is the customer needing? What are their goals and desired outcomes?",
	},
	{
		Title:  "Sales Opportunities",
		Prompt: "Select the products below, then explain why these would help this customer.",
	},
	{
		Title:  "Next Steps & Timeline",
		Prompt: "What are next steps and the timeline around those? Who is responsible for what?",
	},
	{
		Title:  "Additional Context",
		Prompt: "Is there anything else important to know about this account? Any observations, concerns, opportunities, or context that would be helpful?",
	},
}
