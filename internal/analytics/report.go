package analytics

import (
	"github.com/ShivaprasadMurashillin/LexDash/internal/billing"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

/* ============================== Dashboard =============================== */

type Overview struct {
	TotalCases         int64 `json:"totalCases"`
	ActiveCases        int64 `json:"activeCases"`
	PendingTasks       int64 `json:"pendingTasks"`
	DocumentsFiled     int64 `json:"documentsFiled"`
	TotalDocuments     int64 `json:"totalDocuments"`
	TotalClients       int64 `json:"totalClients"`
	TaskCompletionRate int   `json:"taskCompletionRate"`
}

type Dashboard struct {
	Overview          Overview           `json:"overview"`
	CasesByStatus     []models.NameValue `json:"casesByStatus"`
	CasesByType       []models.NameValue `json:"casesByType"`
	RecentCases       []models.Case      `json:"recentCases"`
	UpcomingDeadlines []models.Case      `json:"upcomingDeadlines"`
	RecentTasks       []models.Task      `json:"recentTasks"`
}

/* ============================== Analytics =============================== */

type IntakePoint struct {
	Month string `json:"month"`
	Cases int64  `json:"cases"`
}

type GrowthPoint struct {
	Month   string `json:"month"`
	Clients int64  `json:"clients"`
}

type VelocityPoint struct {
	Month     string `json:"month"`
	Completed int64  `json:"completed"`
}

type AttorneyLoad struct {
	Name  string `json:"name"`
	Cases int64  `json:"cases"`
}

type CaseOutcomes struct {
	Closed      int64 `json:"closed"`
	Active      int64 `json:"active"`
	Pending     int64 `json:"pending"`
	OnHold      int64 `json:"onHold"`
	Total       int64 `json:"total"`
	ClosureRate int   `json:"closureRate"`
}

// PriorityRow counts one attorney's open cases per priority.
type PriorityRow struct {
	Name   string `json:"name"`
	High   int64  `json:"High"`
	Medium int64  `json:"Medium"`
	Low    int64  `json:"Low"`
}

type OverdueAnalysis struct {
	Overdue     int64 `json:"overdue"`
	TotalActive int64 `json:"totalActive"`
	OverdueRate int   `json:"overdueRate"`
}

type RevenueByType struct {
	Type             string  `json:"type"`
	Cases            int64   `json:"cases"`
	EstimatedRevenue float64 `json:"estimatedRevenue"`
}

type BillingOverview struct {
	billing.Overview
	PaidCount    int64 `json:"paidCount"`
	OverdueCount int64 `json:"overdueCount"`
}

type Report struct {
	MonthlyIntake     []IntakePoint          `json:"monthlyIntake"`
	AttorneyWorkload  []AttorneyLoad         `json:"attorneyWorkload"`
	CaseOutcomes      CaseOutcomes           `json:"caseOutcomes"`
	TaskVelocity      []VelocityPoint        `json:"taskVelocity"`
	DocPipeline       []models.NameValue     `json:"docPipeline"`
	ClientGrowth      []GrowthPoint          `json:"clientGrowth"`
	PriorityBreakdown []PriorityRow          `json:"priorityBreakdown"`
	OverdueAnalysis   OverdueAnalysis        `json:"overdueAnalysis"`
	RevenueByType     []RevenueByType        `json:"revenueByType"`
	BillingOverview   BillingOverview        `json:"billingOverview"`
	MonthlyRevenue    []billing.MonthRevenue `json:"monthlyRevenue"`
	RecentActivity    []models.Notification  `json:"recentActivity"`
}
