package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"igcollector/pkg/account"
	"igcollector/pkg/pool"
)

// RenderSnapshot formats a pool snapshot for terminal display
func RenderSnapshot(snap pool.Snapshot) string {
	var b strings.Builder

	b.WriteString(Cyan("Pool status") + Dim(fmt.Sprintf("  (%s)\n", snap.TakenAt.Format(time.RFC3339))))
	b.WriteString(fmt.Sprintf("  Accounts:     %d (%s eligible now)\n", snap.Total, Green(fmt.Sprintf("%d", snap.EligibleNow))))
	b.WriteString(fmt.Sprintf("  Available:    %d\n", snap.Available))
	b.WriteString(fmt.Sprintf("  In use:       %d\n", snap.InUse))
	b.WriteString(fmt.Sprintf("  Cooling down: %d\n", snap.Cooldown))
	b.WriteString(fmt.Sprintf("  Quarantined:  %d\n", snap.Quarantined))
	b.WriteString(fmt.Sprintf("  Disabled:     %d\n", snap.Disabled))
	b.WriteString(fmt.Sprintf("  Avg health:   %.1f\n", snap.AverageHealth))
	b.WriteString(fmt.Sprintf("  Window uses:  %d\n", snap.UsesThisWindow))

	if !snap.MostRecentUse.IsZero() {
		b.WriteString(fmt.Sprintf("  Last use:     %s ago\n", formatDuration(time.Since(snap.MostRecentUse))))
	}

	return b.String()
}

// RenderAccounts formats account records as a table. Credential references
// are deliberately left out of the listing.
func RenderAccounts(accounts []*account.Account, now time.Time) string {
	var b strings.Builder

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tHEALTH\tUSES\tFAILURES\tLAST USED\tCOOLDOWN")

	for _, acc := range accounts {
		lastUsed := "never"
		if !acc.LastUsedAt.IsZero() {
			lastUsed = formatDuration(now.Sub(acc.LastUsedAt)) + " ago"
		}

		cooldown := "-"
		if !acc.CooldownUntil.IsZero() {
			if remaining := acc.CooldownUntil.Sub(now); remaining > 0 {
				cooldown = formatDuration(remaining)
			} else {
				cooldown = "expired"
			}
		}

		fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%d\t%s\t%s\n",
			acc.ID, stateLabel(acc.State), acc.Health,
			acc.UsageCount, acc.FailureCount, lastUsed, cooldown)
	}

	_ = w.Flush()
	return b.String()
}

// stateLabel colors an account state for display
func stateLabel(st account.State) string {
	switch st {
	case account.StateAvailable:
		return Green(string(st))
	case account.StateInUse:
		return Cyan(string(st))
	case account.StateCooldown:
		return Yellow(string(st))
	case account.StateQuarantined:
		return Red(string(st))
	case account.StateDisabled:
		return Dim(string(st))
	}
	return string(st)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
