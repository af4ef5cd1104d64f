package crowdfunds

import "github.com/wehave/market/pkg/market"

const (
	MsgGoalReached    = "Goal reached"
	MsgContribute     = "Contribute"
	MsgConnectWallet  = "Please connect wallet."
	MsgCreatedSuccess = "Crowdfund was created successfully."
)

// FundingStateFor decides whether contributions are possible. A reached goal
// wins over the session: the claim action replaces the contribute button.
func FundingStateFor(signedIn bool, progress *market.Amount, goal market.Amount) *market.FundingState {
	switch {
	case progress != nil && progress.Cmp(goal) == 0:
		return &market.FundingState{Enabled: false, Message: MsgGoalReached, GoalReached: true}
	case signedIn:
		return &market.FundingState{Enabled: true, Message: MsgContribute}
	default:
		return &market.FundingState{Enabled: false, Message: MsgConnectWallet}
	}
}
