package universe

import (
	"fmt"
	"strings"

	"github.com/hirecj/agentsim/agent"
)

// DataAgent wraps a Universe as the read-only business-data view attached
// to a session. It renders compact snapshots for the agent runtime and
// advertises the tools the data can answer.
type DataAgent struct {
	universe *Universe
}

// NewDataAgent creates a DataAgent over an immutable universe.
func NewDataAgent(u *Universe) *DataAgent {
	return &DataAgent{universe: u}
}

// Universe returns the backing snapshot.
func (a *DataAgent) Universe() *Universe {
	return a.universe
}

// Tools returns the tool set scoped to this universe's data.
func (a *DataAgent) Tools() []agent.Tool {
	tools := []agent.Tool{
		{Name: "get_business_metrics", Description: "Headline metrics for the merchant's current period"},
	}
	if len(a.universe.Customers) > 0 {
		tools = append(tools, agent.Tool{Name: "lookup_customer", Description: "Look up a customer record by name or email"})
	}
	if len(a.universe.Tickets) > 0 {
		tools = append(tools, agent.Tool{Name: "search_tickets", Description: "Search open support tickets"})
	}
	return tools
}

// Snapshot renders the headline metrics as a short textual block for
// inclusion in the runtime request.
func (a *DataAgent) Snapshot() string {
	m := a.universe.Metrics
	var sb strings.Builder
	fmt.Fprintf(&sb, "Merchant: %s (%s)\n", a.universe.MerchantName, a.universe.ScenarioName)
	fmt.Fprintf(&sb, "MRR: $%.2f | Subscribers: %d | Churn: %.1f%%\n", m.MRR, m.Subscribers, m.ChurnRate*100)
	fmt.Fprintf(&sb, "CSAT: %.1f | Open tickets: %d", m.CSATScore, m.SupportTickets)
	return sb.String()
}
