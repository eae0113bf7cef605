// Package processor evaluates campaign results. The analysis is pure rule
// evaluation over the interaction log, no external model is called.
package processor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"
)

var ErrCampaignNotFound = errors.New("campaign not found")

const previousCampaignWindow = 5

// AnalyticsStore is the narrow store surface the analytics processor needs.
type AnalyticsStore interface {
	GetCampaignForCompany(ctx context.Context, campaignID, companyID int64) (store.Campaign, error)
	GetCampaignActionCounts(ctx context.Context, campaignID int64) (store.ActionCounts, error)
	CountTargetsByCampaign(ctx context.Context, campaignID int64) (int, error)
	ListTargetsByCampaign(ctx context.Context, campaignID int64) ([]store.Target, error)
	ListInteractionsByCampaign(ctx context.Context, campaignID int64) ([]store.Interaction, error)
	ListPreviousCampaigns(ctx context.Context, companyID, excludeCampaignID int64, limit int) ([]store.Campaign, error)
}

type AnalyticsProcessor struct {
	analyticsStore AnalyticsStore
	logger         *observability.Logger
}

func New(analyticsStore AnalyticsStore, logger *observability.Logger) AnalyticsProcessor {
	return AnalyticsProcessor{analyticsStore: analyticsStore, logger: logger}
}

// Stats summarizes a campaign's interaction log. Rates are percentages of
// sent events, rounded to two decimals, and zero when nothing was sent.
type Stats struct {
	TotalTargets   int     `json:"total_targets"`
	TotalSent      int     `json:"total_sent"`
	TotalOpened    int     `json:"total_opened"`
	TotalClicked   int     `json:"total_clicked"`
	TotalSubmitted int     `json:"total_submitted"`
	TotalFailed    int     `json:"total_failed"`
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
	SubmitRate     float64 `json:"submit_rate"`
}

// VulnerableEmployee is a target that clicked or submitted.
type VulnerableEmployee struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Actions    []string  `json:"actions"`
	RiskLevel  string    `json:"risk_level"`
	LastAction time.Time `json:"last_action"`
}

// Performance is Stats extended with the vulnerability breakdown.
type Performance struct {
	Stats
	VulnerableEmployees []VulnerableEmployee `json:"vulnerable_employees"`
	VulnerabilityRate   float64              `json:"vulnerability_rate"`
}

type RiskAssessment struct {
	Level             string  `json:"level"`
	Description       string  `json:"description"`
	SubmitRate        float64 `json:"submit_rate"`
	ClickRate         float64 `json:"click_rate"`
	VulnerabilityRate float64 `json:"vulnerability_rate"`
}

type Trend struct {
	Trend                 string  `json:"trend"`
	Description           string  `json:"description"`
	SubmitTrend           string  `json:"submit_trend,omitempty"`
	ClickTrend            string  `json:"click_trend,omitempty"`
	PreviousAverageSubmit float64 `json:"previous_average_submit,omitempty"`
	PreviousAverageClick  float64 `json:"previous_average_click,omitempty"`
}

type Suggestion struct {
	Type            string   `json:"type"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Priority        string   `json:"priority"`
	ActionRequired  bool     `json:"action_required"`
	Employees       []string `json:"employees,omitempty"`
	TrainingModules []string `json:"training_modules,omitempty"`
}

type Recommendation struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// Analysis is the full rule-based assessment of a finished campaign.
type Analysis struct {
	CampaignID          int64            `json:"campaign_id"`
	CampaignType        string           `json:"campaign_type"`
	AnalysisDate        time.Time        `json:"analysis_date"`
	CurrentPerformance  Performance      `json:"current_performance"`
	Suggestions         []Suggestion     `json:"suggestions"`
	Improvement         string           `json:"improvement"`
	RiskLevel           RiskAssessment   `json:"risk_level"`
	Recommendations     []Recommendation `json:"recommendations"`
	PerformanceAnalysis Trend            `json:"performance_analysis"`
}

// CampaignStats returns the campaign and its interaction summary.
func (p *AnalyticsProcessor) CampaignStats(ctx context.Context, campaignID, companyID int64) (store.Campaign, Stats, error) {
	campaign, err := p.analyticsStore.GetCampaignForCompany(ctx, campaignID, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Campaign{}, Stats{}, ErrCampaignNotFound
		}
		return store.Campaign{}, Stats{}, fmt.Errorf("failed to load campaign: %w", err)
	}

	stats, err := p.stats(ctx, campaign.ID)
	if err != nil {
		return store.Campaign{}, Stats{}, err
	}
	return campaign, stats, nil
}

// Analyze evaluates the campaign against its company's recent history.
func (p *AnalyticsProcessor) Analyze(ctx context.Context, campaignID, companyID int64) (Analysis, error) {
	campaign, err := p.analyticsStore.GetCampaignForCompany(ctx, campaignID, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Analysis{}, ErrCampaignNotFound
		}
		return Analysis{}, fmt.Errorf("failed to load campaign: %w", err)
	}

	performance, err := p.performance(ctx, campaign.ID)
	if err != nil {
		return Analysis{}, err
	}

	previous, err := p.previousStats(ctx, campaign)
	if err != nil {
		return Analysis{}, err
	}

	trend := analyzeTrend(performance.Stats, previous)

	return Analysis{
		CampaignID:          campaign.ID,
		CampaignType:        campaign.Type,
		AnalysisDate:        time.Now().UTC(),
		CurrentPerformance:  performance,
		Suggestions:         buildSuggestions(campaign.Type, performance.VulnerableEmployees),
		Improvement:         describeImprovement(performance.Stats, previous),
		RiskLevel:           assessRisk(performance),
		Recommendations:     buildRecommendations(performance, trend),
		PerformanceAnalysis: trend,
	}, nil
}

func (p *AnalyticsProcessor) stats(ctx context.Context, campaignID int64) (Stats, error) {
	counts, err := p.analyticsStore.GetCampaignActionCounts(ctx, campaignID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count interactions: %w", err)
	}
	targets, err := p.analyticsStore.CountTargetsByCampaign(ctx, campaignID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count targets: %w", err)
	}
	return buildStats(targets, counts), nil
}

func buildStats(totalTargets int, counts store.ActionCounts) Stats {
	return Stats{
		TotalTargets:   totalTargets,
		TotalSent:      counts.Sent,
		TotalOpened:    counts.Opened,
		TotalClicked:   counts.Clicked,
		TotalSubmitted: counts.Submitted,
		TotalFailed:    counts.Failed,
		OpenRate:       rate(counts.Opened, counts.Sent),
		ClickRate:      rate(counts.Clicked, counts.Sent),
		SubmitRate:     rate(counts.Submitted, counts.Sent),
	}
}

func (p *AnalyticsProcessor) performance(ctx context.Context, campaignID int64) (Performance, error) {
	counts, err := p.analyticsStore.GetCampaignActionCounts(ctx, campaignID)
	if err != nil {
		return Performance{}, fmt.Errorf("failed to count interactions: %w", err)
	}
	targets, err := p.analyticsStore.ListTargetsByCampaign(ctx, campaignID)
	if err != nil {
		return Performance{}, fmt.Errorf("failed to list targets: %w", err)
	}
	interactions, err := p.analyticsStore.ListInteractionsByCampaign(ctx, campaignID)
	if err != nil {
		return Performance{}, fmt.Errorf("failed to list interactions: %w", err)
	}

	vulnerable := vulnerableEmployees(targets, interactions)
	vulnerabilityRate := 0.0
	if len(targets) > 0 {
		vulnerabilityRate = round2(float64(len(vulnerable)) / float64(len(targets)) * 100)
	}

	return Performance{
		Stats:               buildStats(len(targets), counts),
		VulnerableEmployees: vulnerable,
		VulnerabilityRate:   vulnerabilityRate,
	}, nil
}

// previousStats summarizes the company's most recent non-draft campaigns,
// excluding the one under analysis.
func (p *AnalyticsProcessor) previousStats(ctx context.Context, campaign store.Campaign) ([]Stats, error) {
	campaigns, err := p.analyticsStore.ListPreviousCampaigns(ctx, campaign.CompanyID, campaign.ID, previousCampaignWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to list previous campaigns: %w", err)
	}

	stats := make([]Stats, 0, len(campaigns))
	for _, previous := range campaigns {
		s, err := p.stats(ctx, previous.ID)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// vulnerableEmployees returns the targets that clicked or submitted, with
// every action they took. Interactions whose email matches no target row
// are skipped.
func vulnerableEmployees(targets []store.Target, interactions []store.Interaction) []VulnerableEmployee {
	targetsByEmail := make(map[string]store.Target, len(targets))
	for _, target := range targets {
		targetsByEmail[target.Email] = target
	}

	actionsByEmail := make(map[string][]store.Interaction)
	for _, interaction := range interactions {
		actionsByEmail[interaction.Email] = append(actionsByEmail[interaction.Email], interaction)
	}

	var vulnerable []VulnerableEmployee
	for _, target := range targets {
		events := actionsByEmail[target.Email]

		exposed := false
		actions := make([]string, 0, len(events))
		var lastAction time.Time
		riskLevel := "none"
		for _, event := range events {
			actions = append(actions, event.ActionType)
			if event.OccurredAt.After(lastAction) {
				lastAction = event.OccurredAt
			}
			switch event.ActionType {
			case store.ActionSubmitted:
				exposed = true
				riskLevel = "high"
			case store.ActionClicked:
				exposed = true
				if riskLevel != "high" {
					riskLevel = "medium"
				}
			case store.ActionOpened:
				if riskLevel == "none" {
					riskLevel = "low"
				}
			}
		}

		if exposed {
			vulnerable = append(vulnerable, VulnerableEmployee{
				Name:       target.Name,
				Email:      target.Email,
				Actions:    actions,
				RiskLevel:  riskLevel,
				LastAction: lastAction,
			})
		}
	}
	return vulnerable
}

func assessRisk(performance Performance) RiskAssessment {
	submitRate := performance.SubmitRate
	vulnerabilityRate := performance.VulnerabilityRate

	var level, description string
	switch {
	case submitRate > 20 || vulnerabilityRate > 50:
		level = "high"
		description = "High risk: Many employees are vulnerable to phishing attacks. Immediate action required."
	case submitRate > 10 || vulnerabilityRate > 30:
		level = "medium"
		description = "Medium risk: Some employees are vulnerable. Additional training recommended."
	case submitRate > 5 || vulnerabilityRate > 15:
		level = "low"
		description = "Low risk: Most employees demonstrate good security awareness."
	default:
		level = "minimal"
		description = "Minimal risk: Excellent security awareness across the organization."
	}

	return RiskAssessment{
		Level:             level,
		Description:       description,
		SubmitRate:        submitRate,
		ClickRate:         performance.ClickRate,
		VulnerabilityRate: vulnerabilityRate,
	}
}

// describeImprovement compares submit rates against the previous-campaign
// average. Lower rates are better.
func describeImprovement(current Stats, previous []Stats) string {
	if len(previous) == 0 {
		return "This is your first campaign. Use this as a baseline for future comparisons."
	}

	improvement := avgSubmitRate(previous) - current.SubmitRate
	switch {
	case improvement > 5:
		return fmt.Sprintf("Excellent improvement! %.1f%% fewer employees submitted credentials compared to previous campaigns.", improvement)
	case improvement > 0:
		return fmt.Sprintf("Good progress! %.1f%% fewer employees submitted credentials compared to previous campaigns.", improvement)
	case improvement < -5:
		return fmt.Sprintf("Attention needed: %.1f%% more employees submitted credentials compared to previous campaigns.", -improvement)
	default:
		return "Performance is similar to previous campaigns. Consider additional training to improve results."
	}
}

func analyzeTrend(current Stats, previous []Stats) Trend {
	if len(previous) == 0 {
		return Trend{
			Trend:       "baseline",
			Description: "This is the first campaign. No previous data for comparison.",
		}
	}

	avgSubmit := avgSubmitRate(previous)
	avgClick := 0.0
	for _, s := range previous {
		avgClick += s.ClickRate
	}
	avgClick /= float64(len(previous))

	submitTrend := "declining"
	if current.SubmitRate < avgSubmit {
		submitTrend = "improving"
	}
	clickTrend := "declining"
	if current.ClickRate < avgClick {
		clickTrend = "improving"
	}

	return Trend{
		Trend:                 submitTrend,
		Description:           fmt.Sprintf("Submit rate is %s compared to previous campaigns.", submitTrend),
		SubmitTrend:           submitTrend,
		ClickTrend:            clickTrend,
		PreviousAverageSubmit: round2(avgSubmit),
		PreviousAverageClick:  round2(avgClick),
	}
}

func buildSuggestions(campaignType string, vulnerable []VulnerableEmployee) []Suggestion {
	var suggestions []Suggestion

	if len(vulnerable) == 0 {
		suggestions = append(suggestions, Suggestion{
			Type:        "success",
			Title:       "Excellent Security Awareness",
			Description: "All employees demonstrated good security awareness by not clicking on suspicious links.",
			Priority:    "low",
		})
	} else {
		var highRisk, mediumRisk []string
		for _, employee := range vulnerable {
			switch employee.RiskLevel {
			case "high":
				highRisk = append(highRisk, employee.Name)
			case "medium":
				mediumRisk = append(mediumRisk, employee.Name)
			}
		}

		if len(highRisk) > 0 {
			suggestions = append(suggestions, Suggestion{
				Type:           "critical",
				Title:          "Immediate Security Training Required",
				Description:    fmt.Sprintf("%d employee(s) submitted credentials to the phishing simulation. Immediate security training is required.", len(highRisk)),
				Priority:       "high",
				ActionRequired: true,
				Employees:      highRisk,
				TrainingModules: []string{
					"Phishing Recognition",
					"Password Security",
					"Social Engineering Awareness",
					"Incident Reporting Procedures",
				},
			})
		}
		if len(mediumRisk) > 0 {
			suggestions = append(suggestions, Suggestion{
				Type:           "warning",
				Title:          "Additional Security Training Recommended",
				Description:    fmt.Sprintf("%d employee(s) clicked on suspicious links. Additional training is recommended.", len(mediumRisk)),
				Priority:       "medium",
				ActionRequired: true,
				Employees:      mediumRisk,
				TrainingModules: []string{
					"Phishing Recognition",
					"Link Verification",
					"Email Security Best Practices",
				},
			})
		}

		suggestions = append(suggestions, campaignTypeSuggestion(campaignType))
	}

	suggestions = append(suggestions, Suggestion{
		Type:        "info",
		Title:       "Ongoing Security Awareness",
		Description: "Continue regular phishing simulations and security awareness training to maintain a strong security culture.",
		Priority:    "low",
	})

	return suggestions
}

func campaignTypeSuggestion(campaignType string) Suggestion {
	switch campaignType {
	case store.CampaignTypePhishing:
		return Suggestion{
			Type:        "info",
			Title:       "Phishing Simulation Results",
			Description: "This phishing simulation tested employee awareness of suspicious emails. Review results with your security team.",
			Priority:    "medium",
		}
	case store.CampaignTypeAwareness:
		return Suggestion{
			Type:        "info",
			Title:       "Security Awareness Training",
			Description: "This awareness campaign provided educational content. Monitor employee engagement and follow up as needed.",
			Priority:    "low",
		}
	case store.CampaignTypeTraining:
		return Suggestion{
			Type:        "info",
			Title:       "Training Module Completion",
			Description: "This training module assessed employee knowledge. Review completion rates and knowledge gaps.",
			Priority:    "medium",
		}
	default:
		return Suggestion{
			Type:        "info",
			Title:       "Campaign Analysis",
			Description: "Review campaign results and adjust future training accordingly.",
			Priority:    "low",
		}
	}
}

func buildRecommendations(performance Performance, trend Trend) []Recommendation {
	var recommendations []Recommendation

	if performance.SubmitRate > 15 {
		recommendations = append(recommendations, Recommendation{
			Category:    "training",
			Title:       "Implement Mandatory Security Training",
			Description: "High submission rate indicates need for comprehensive security training program.",
			Priority:    "high",
		})
	}
	if performance.ClickRate > 30 {
		recommendations = append(recommendations, Recommendation{
			Category:    "awareness",
			Title:       "Enhance Phishing Awareness",
			Description: "High click rate suggests employees need better training on identifying suspicious links.",
			Priority:    "medium",
		})
	}
	if trend.Trend == "declining" {
		recommendations = append(recommendations, Recommendation{
			Category:    "strategy",
			Title:       "Review Training Strategy",
			Description: "Performance is declining. Consider updating training methods and frequency.",
			Priority:    "medium",
		})
	}
	if performance.VulnerabilityRate < 10 {
		recommendations = append(recommendations, Recommendation{
			Category:    "maintenance",
			Title:       "Maintain Current Training Program",
			Description: "Excellent results! Continue current training program to maintain security awareness.",
			Priority:    "low",
		})
	}

	return recommendations
}

func avgSubmitRate(stats []Stats) float64 {
	total := 0.0
	for _, s := range stats {
		total += s.SubmitRate
	}
	return total / float64(len(stats))
}

func rate(count, sent int) float64 {
	if sent == 0 {
		return 0
	}
	return round2(float64(count) / float64(sent) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
