package models

// DashboardStats is the aggregate payload behind GET /api/stats.
type DashboardStats struct {
	LeadsByStatus    map[string]int64 `json:"leads_by_status"`
	LeadsTotal       int64            `json:"leads_total"`
	SessionsByStatus map[string]int64 `json:"sessions_by_status"`
	SessionsUpcoming int64            `json:"sessions_upcoming"` // next 7 days, still scheduled
	TasksOpen        int64            `json:"tasks_open"`
	TasksOverdue     int64            `json:"tasks_overdue"`
	MessagesInbound  int64            `json:"messages_inbound"`
	MessagesOutbound int64            `json:"messages_outbound"`
}
